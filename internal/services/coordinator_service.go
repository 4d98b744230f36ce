package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ArowuTest/bridgetunes-raffle/internal/scheduler"
	"github.com/ArowuTest/bridgetunes-raffle/internal/vrf"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

type coordinatorService struct {
	coordinator *vrf.Coordinator
	oracle      *vrf.Oracle
	fulfiller   *scheduler.Fulfiller
	subID       uint64
}

// NewCoordinatorService exposes the local coordinator. subID is the
// subscription the lottery draws on.
func NewCoordinatorService(coordinator *vrf.Coordinator, oracle *vrf.Oracle, fulfiller *scheduler.Fulfiller, subID uint64) CoordinatorService {
	return &coordinatorService{
		coordinator: coordinator,
		oracle:      oracle,
		fulfiller:   fulfiller,
		subID:       subID,
	}
}

func (s *coordinatorService) KeyHash() common.Hash { return s.oracle.KeyHash() }

func (s *coordinatorService) SubscriptionID() uint64 { return s.subID }

func (s *coordinatorService) GetSubscription(ctx context.Context, id uint64) (vrf.Subscription, error) {
	return s.coordinator.GetSubscription(ctx, id)
}

func (s *coordinatorService) CreateSubscription(_ context.Context, owner common.Address) uint64 {
	id := s.coordinator.CreateSubscription(owner)
	log.WithFields(log.Fields{"subId": id, "owner": owner.Hex()}).Info("subscription created")
	return id
}

func (s *coordinatorService) FundSubscription(_ context.Context, id uint64, amount *big.Int) error {
	if err := s.coordinator.FundSubscription(id, amount); err != nil {
		return fmt.Errorf("fund subscription %d: %w", id, err)
	}
	return nil
}

func (s *coordinatorService) AddConsumer(_ context.Context, caller common.Address, id uint64, consumer common.Address) error {
	if err := s.coordinator.AddConsumer(caller, id, consumer); err != nil {
		return fmt.Errorf("add consumer to subscription %d: %w", id, err)
	}
	return nil
}

func (s *coordinatorService) RemoveConsumer(_ context.Context, caller common.Address, id uint64, consumer common.Address) error {
	if err := s.coordinator.RemoveConsumer(caller, id, consumer); err != nil {
		return fmt.Errorf("remove consumer from subscription %d: %w", id, err)
	}
	return nil
}

func (s *coordinatorService) PendingRequests(_ context.Context) []vrf.Request {
	return s.coordinator.PendingRequests()
}

// Fulfill answers requestID right away, ignoring its confirmations.
func (s *coordinatorService) Fulfill(ctx context.Context, requestID uint64) (*vrf.Fulfillment, error) {
	for _, req := range s.coordinator.PendingRequests() {
		if req.ID != requestID {
			continue
		}
		proof, err := s.oracle.Prove(req)
		if err != nil {
			return nil, fmt.Errorf("prove request %d: %w", requestID, err)
		}
		res, err := s.coordinator.FulfillRandomWords(ctx, proof)
		if err != nil {
			return nil, fmt.Errorf("fulfill request %d: %w", requestID, err)
		}
		log.WithFields(log.Fields{
			"requestId": res.RequestID,
			"success":   res.Success,
		}).Info("randomness request fulfilled manually")
		return res, nil
	}
	return nil, fmt.Errorf("%w: %d", vrf.ErrUnknownRequest, requestID)
}

func (s *coordinatorService) FulfillReady(ctx context.Context) ([]*vrf.Fulfillment, error) {
	return s.fulfiller.RunOnce(ctx)
}
