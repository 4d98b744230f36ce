// Package scheduler runs the background job that answers randomness
// requests with the local oracle once they are old enough.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/vrf"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

type Coordinator interface {
	PendingRequests() []vrf.Request
	FulfillRandomWords(ctx context.Context, proof vrf.Proof) (*vrf.Fulfillment, error)
}

type Prover interface {
	KeyHash() common.Hash
	Prove(req vrf.Request) (vrf.Proof, error)
}

// Fulfiller polls the coordinator every interval. A request is answered
// when it has waited its confirmations times blockTime.
type Fulfiller struct {
	scheduler   *gocron.Scheduler
	coordinator Coordinator
	oracle      Prover
	interval    time.Duration
	blockTime   time.Duration
	now         func() time.Time
}

func NewFulfiller(coordinator Coordinator, oracle Prover, interval, blockTime time.Duration) *Fulfiller {
	return &Fulfiller{
		scheduler:   gocron.NewScheduler(time.UTC),
		coordinator: coordinator,
		oracle:      oracle,
		interval:    interval,
		blockTime:   blockTime,
		now:         time.Now,
	}
}

func (f *Fulfiller) Start() error {
	if f.interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", f.interval)
	}
	if _, err := f.scheduler.Every(f.interval).SingletonMode().Do(f.tick); err != nil {
		return fmt.Errorf("failed to schedule fulfillment job: %w", err)
	}
	f.scheduler.StartAsync()
	log.WithField("interval", f.interval).Info("randomness fulfiller started")
	return nil
}

func (f *Fulfiller) Stop() {
	f.scheduler.Stop()
}

func (f *Fulfiller) tick() {
	if _, err := f.RunOnce(context.Background()); err != nil {
		log.WithError(err).Warn("fulfillment pass failed")
	}
}

// RunOnce answers every ripe request for the oracle's key and returns the
// fulfillments it delivered.
func (f *Fulfiller) RunOnce(ctx context.Context) ([]*vrf.Fulfillment, error) {
	var (
		done    []*vrf.Fulfillment
		lastErr error
	)
	keyHash := f.oracle.KeyHash()
	now := f.now()
	for _, req := range f.coordinator.PendingRequests() {
		if req.KeyHash != keyHash {
			continue
		}
		if now.Sub(req.CreatedAt) < time.Duration(req.Confirmations)*f.blockTime {
			continue
		}
		proof, err := f.oracle.Prove(req)
		if err != nil {
			lastErr = err
			continue
		}
		res, err := f.coordinator.FulfillRandomWords(ctx, proof)
		if err != nil {
			log.WithFields(log.Fields{
				"requestId": req.ID,
				"consumer":  req.Consumer.Hex(),
			}).WithError(err).Warn("failed to fulfill randomness request")
			lastErr = err
			continue
		}
		entry := log.WithFields(log.Fields{
			"requestId": res.RequestID,
			"consumer":  res.Consumer.Hex(),
			"payment":   res.Payment.String(),
		})
		if res.Success {
			entry.Info("randomness request fulfilled")
		} else {
			entry.WithField("error", res.Error).Warn("consumer rejected randomness")
		}
		done = append(done, res)
	}
	return done, lastErr
}
