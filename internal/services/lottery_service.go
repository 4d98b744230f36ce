package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ArowuTest/bridgetunes-raffle/internal/lottery"
	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// Ensure lotteryService implements LotteryService
var _ LotteryService = (*lotteryService)(nil)

type lotteryService struct {
	engine *lottery.Engine
	repos  repositories.Repositories
	tokens map[common.Address]lottery.DecimalsReader
}

// NewLotteryService restores the last snapshot of the engine, if any, and
// persists every committed operation from then on. tokens are the tokens
// GetDecimals can answer for.
func NewLotteryService(ctx context.Context, engine *lottery.Engine, repos repositories.Repositories, tokens map[common.Address]lottery.DecimalsReader) (LotteryService, error) {
	s := &lotteryService{engine: engine, repos: repos, tokens: tokens}

	snapshot, err := repos.State.Load(ctx, engine.Address())
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		if err := repos.State.Save(ctx, engine.State(ctx)); err != nil {
			return nil, fmt.Errorf("failed to save initial lottery state: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load lottery state: %w", err)
	default:
		if err := engine.Restore(snapshot); err != nil {
			return nil, fmt.Errorf("failed to restore lottery state: %w", err)
		}
		log.WithFields(log.Fields{
			"lottery": snapshot.Address.Hex(),
			"round":   snapshot.Round,
			"state":   snapshot.State,
			"players": len(snapshot.Players),
		}).Info("lottery state restored")
	}

	engine.OnCommit(s.persist)
	return s, nil
}

// persist writes what a committed operation changed. The operation already
// happened, so failures are logged rather than returned.
func (s *lotteryService) persist(ctx context.Context, c lottery.Commit) {
	ctx = context.WithoutCancel(ctx)
	entry := log.WithFields(log.Fields{
		"lottery": c.State.Address.Hex(),
		"round":   c.State.Round,
	})

	if err := s.repos.State.Save(ctx, c.State); err != nil {
		entry.WithError(err).Error("failed to save lottery state")
	}
	if err := s.repos.Events.CreateMany(ctx, c.Events); err != nil {
		entry.WithError(err).WithField("events", len(c.Events)).Error("failed to record lottery events")
	}
	for i := range c.Winners {
		w := c.Winners[i]
		if err := s.repos.Winners.Create(ctx, &w); err != nil {
			entry.WithError(err).WithField("winner", w.Address.Hex()).Error("failed to record winner")
			continue
		}
		entry.WithFields(log.Fields{
			"winner":  w.Address.Hex(),
			"prize":   w.Prize.String(),
			"payout":  w.Payout,
			"paidOut": w.PaidOut,
		}).Info("round resolved")
	}
}

func (s *lotteryService) Enter(ctx context.Context, player common.Address, payment *big.Int) error {
	if err := s.engine.Enter(ctx, player, payment); err != nil {
		return fmt.Errorf("enter: %w", err)
	}
	return nil
}

func (s *lotteryService) PickWinner(ctx context.Context, caller common.Address) (uint64, error) {
	id, err := s.engine.PickWinner(ctx, caller)
	if err != nil {
		return 0, fmt.Errorf("pick winner: %w", err)
	}
	log.WithFields(log.Fields{"requestId": id, "caller": caller.Hex()}).Info("randomness requested")
	return id, nil
}

func (s *lotteryService) WithdrawPrize(ctx context.Context, caller common.Address) (*big.Int, error) {
	amount, err := s.engine.WithdrawPrize(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("withdraw prize: %w", err)
	}
	return amount, nil
}

func (s *lotteryService) SetGasLimit(ctx context.Context, caller common.Address, limit uint32) error {
	if err := s.engine.SetGasLimit(ctx, caller, limit); err != nil {
		return fmt.Errorf("set gas limit: %w", err)
	}
	return nil
}

func (s *lotteryService) SetLotteryTicket(ctx context.Context, caller common.Address, amount *big.Int) error {
	if err := s.engine.SetLotteryTicket(ctx, caller, amount); err != nil {
		return fmt.Errorf("set ticket price: %w", err)
	}
	return nil
}

func (s *lotteryService) GetState(ctx context.Context) *models.LotteryState {
	return s.engine.State(ctx)
}

func (s *lotteryService) GetPlayers(ctx context.Context) []common.Address {
	return s.engine.GetPlayers(ctx)
}

func (s *lotteryService) Manager() common.Address { return s.engine.Manager() }

func (s *lotteryService) RecentWinner(ctx context.Context) common.Address {
	return s.engine.RecentWinner(ctx)
}

func (s *lotteryService) LotteryTicket(ctx context.Context) *big.Int {
	return s.engine.LotteryTicket(ctx)
}

func (s *lotteryService) TotalPlayerFunds(ctx context.Context) *big.Int {
	return s.engine.TotalPlayerFunds(ctx)
}

func (s *lotteryService) PendingWithdrawals(ctx context.Context, who common.Address) *big.Int {
	return s.engine.PendingWithdrawals(ctx, who)
}

func (s *lotteryService) Holdings(ctx context.Context) (*big.Int, error) {
	return s.engine.Holdings(ctx)
}

func (s *lotteryService) Policy() models.LotteryPolicy { return s.engine.Policy() }

func (s *lotteryService) GetDecimals(ctx context.Context, token *common.Address) (uint8, error) {
	if token == nil {
		return s.engine.GetDecimals(ctx, nil)
	}
	reader, ok := s.tokens[*token]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownToken, token.Hex())
	}
	return s.engine.GetDecimals(ctx, reader)
}

func (s *lotteryService) GetWinners(ctx context.Context, page, limit int) ([]*models.Winner, int64, error) {
	winners, err := s.repos.Winners.FindAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list winners: %w", err)
	}
	total, err := s.repos.Winners.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count winners: %w", err)
	}
	return winners, total, nil
}

func (s *lotteryService) GetWinnersByAddress(ctx context.Context, address common.Address, page, limit int) ([]*models.Winner, error) {
	winners, err := s.repos.Winners.FindByAddress(ctx, address, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners of %s: %w", address.Hex(), err)
	}
	return winners, nil
}

func (s *lotteryService) GetEvents(ctx context.Context, eventType models.EventType, page, limit int) ([]*models.Event, error) {
	var (
		events []*models.Event
		err    error
	)
	if eventType == "" {
		events, err = s.repos.Events.FindAll(ctx, page, limit)
	} else {
		events, err = s.repos.Events.FindByType(ctx, eventType, page, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
