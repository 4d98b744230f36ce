package lottery

import (
	"context"
	"math/big"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ethereum/go-ethereum/common"
)

// Enter buys one entry for player. payment is the value attached to the
// call for native lotteries and the requested amount for token ones; the
// fixed policy ignores it for tokens.
func (e *Engine) Enter(ctx context.Context, player common.Address, payment *big.Int) error {
	return e.exec(ctx, func(ctx context.Context, f *frame) error {
		switch e.state.State {
		case models.RoundStateAwaitingRandomness:
			return ErrInvalidState
		case models.RoundStateLocked:
			return ErrWinnerPendingCollection
		}

		amount, err := e.entryAmount(payment)
		if err != nil {
			return err
		}
		if err := e.currency.Collect(ctx, player, amount); err != nil {
			return err
		}

		s := e.state
		s.Players = append(s.Players, player)
		s.TotalPool.Add(s.TotalPool, amount)
		f.emit(e.opts.Now(), models.Event{
			Type:    models.EventEntered,
			Round:   s.Round,
			Address: player,
			Amount:  new(big.Int).Set(amount),
		})
		return nil
	})
}

func (e *Engine) entryAmount(payment *big.Int) (*big.Int, error) {
	s := e.state
	switch e.opts.Policy.Entry {
	case models.EntryMinimum:
		if payment == nil || payment.Cmp(s.MinimumAmount) < 0 {
			return nil, ErrMinimumAmountNotMet
		}
		return new(big.Int).Set(payment), nil
	case models.EntryFixed:
		if e.opts.Policy.Currency == models.CurrencyToken {
			return new(big.Int).Set(s.TicketPrice), nil
		}
	}
	// exact, and fixed for native value where the attached value is the payment
	if payment == nil || payment.Cmp(s.TicketPrice) != 0 {
		return nil, ErrIncorrectAmount
	}
	return new(big.Int).Set(payment), nil
}

// Receive rejects value sent to the engine outside of Enter. Install it as
// the engine account's receive hook.
func (e *Engine) Receive(_ context.Context, _ common.Address, _ *big.Int) error {
	return ErrDirectTransferNotAllowed
}

// GetPlayers lists the entries of the current round in entry order.
func (e *Engine) GetPlayers(ctx context.Context) []common.Address {
	defer e.read(ctx)()
	return append([]common.Address(nil), e.state.Players...)
}

// TotalPlayerFunds is the pool collected since the last resolution.
func (e *Engine) TotalPlayerFunds(ctx context.Context) *big.Int {
	defer e.read(ctx)()
	return new(big.Int).Set(e.state.TotalPool)
}
