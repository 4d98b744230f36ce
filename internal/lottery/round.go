package lottery

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ethereum/go-ethereum/common"
)

// PickWinner closes the round and requests randomness for it. The round
// stays frozen until the coordinator answers.
func (e *Engine) PickWinner(ctx context.Context, caller common.Address) (uint64, error) {
	var requestID uint64
	err := e.exec(ctx, func(ctx context.Context, f *frame) error {
		s := e.state
		if caller != s.Manager {
			return ErrUnauthorized
		}
		switch s.State {
		case models.RoundStateOpen:
		case models.RoundStateLocked:
			return ErrWinnerPendingCollection
		default:
			return ErrInvalidState
		}
		if len(s.Players) < minPlayers {
			return ErrNotEnoughPlayers
		}

		balance, err := e.coordinator.SubscriptionBalance(ctx, e.opts.SubscriptionID)
		if err != nil {
			return fmt.Errorf("subscription %d: %w", e.opts.SubscriptionID, err)
		}
		if balance.Cmp(e.opts.MinSubscriptionBalance) < 0 {
			return ErrInsufficientSubscriptionFunds
		}

		id, err := e.coordinator.RequestRandomWords(ctx, s.Address, e.opts.KeyHash, e.opts.SubscriptionID,
			e.opts.Confirmations, s.CallbackGasLimit, e.opts.NumWords)
		if err != nil {
			return fmt.Errorf("request random words: %w", err)
		}

		s = e.state
		s.State = models.RoundStateAwaitingRandomness
		s.PendingRequestID = id
		s.HasPending = true
		f.emit(e.opts.Now(), models.Event{
			Type:      models.EventRandomnessRequested,
			Round:     s.Round,
			Address:   caller,
			Amount:    new(big.Int).Set(s.TotalPool),
			RequestID: id,
			Value:     uint64(len(s.Players)),
		})
		requestID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return requestID, nil
}

// RawFulfillRandomWords is the coordinator callback. It selects the winner,
// credits the whole pool to the winner's ledger entry and settles the
// round according to the payout mode.
func (e *Engine) RawFulfillRandomWords(ctx context.Context, caller common.Address, requestID uint64, words []*big.Int) error {
	return e.exec(ctx, func(ctx context.Context, f *frame) error {
		if caller != e.opts.Coordinator {
			return ErrUnauthorizedCallback
		}
		s := e.state
		if !s.HasPending || s.State != models.RoundStateAwaitingRandomness || requestID != s.PendingRequestID {
			return fmt.Errorf("%w: %d", ErrUnknownRequest, requestID)
		}
		if len(words) == 0 || words[0] == nil {
			return ErrNoRandomWords
		}

		players := len(s.Players)
		idx, word := selectWinner(e.opts.Policy.Selection, words, players)
		winner := s.Players[idx]
		prize := new(big.Int).Set(s.TotalPool)
		now := e.opts.Now()

		credit(s, winner, prize)
		round := s.Round
		s.Players = []common.Address{}
		s.TotalPool = new(big.Int)
		s.PendingRequestID = 0
		s.HasPending = false
		s.RecentWinner = winner
		s.Round++

		record := models.Winner{
			Round:      round,
			Address:    winner,
			Prize:      prize,
			Players:    players,
			RequestID:  requestID,
			RandomWord: word,
			Payout:     e.opts.Policy.Payout,
			WinDate:    now,
		}
		f.emit(now, models.Event{
			Type:      models.EventWinnerPicked,
			Round:     round,
			Address:   winner,
			Amount:    new(big.Int).Set(prize),
			RequestID: requestID,
			Value:     uint64(idx),
		})

		switch e.opts.Policy.Payout {
		case models.PayoutLocked:
			s.State = models.RoundStateLocked
		case models.PayoutPull:
			s.State = models.RoundStateOpen
		case models.PayoutImmediate:
			s.State = models.RoundStateOpen
			record.PaidOut = e.payNow(ctx, f, round, winner, prize)
		}
		f.winners = append(f.winners, record)
		return nil
	})
}

// payNow takes the prize back off the ledger and sends it. When the
// transfer fails the credit is put back so the winner can still withdraw.
func (e *Engine) payNow(ctx context.Context, f *frame, round uint64, winner common.Address, prize *big.Int) bool {
	debit(e.state, winner, prize)
	err := e.interact(ctx, f, func(ctx context.Context) error {
		return e.currency.Pay(ctx, winner, prize)
	})
	if err != nil {
		credit(e.state, winner, prize)
		f.emit(e.opts.Now(), models.Event{
			Type:    models.EventPayoutFailed,
			Round:   round,
			Address: winner,
			Amount:  new(big.Int).Set(prize),
		})
		return false
	}
	f.emit(e.opts.Now(), models.Event{
		Type:    models.EventPrizePaid,
		Round:   round,
		Address: winner,
		Amount:  new(big.Int).Set(prize),
	})
	return true
}

func credit(s *models.LotteryState, who common.Address, amount *big.Int) {
	owed, ok := s.Pending[who]
	if !ok {
		owed = new(big.Int)
		s.Pending[who] = owed
	}
	owed.Add(owed, amount)
}

func debit(s *models.LotteryState, who common.Address, amount *big.Int) {
	owed, ok := s.Pending[who]
	if !ok {
		return
	}
	owed.Sub(owed, amount)
	if owed.Sign() <= 0 {
		delete(s.Pending, who)
	}
}
