package lottery

import (
	"context"
	"math/big"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ethereum/go-ethereum/common"
)

// SetGasLimit changes the callback gas limit used by later requests.
func (e *Engine) SetGasLimit(ctx context.Context, caller common.Address, limit uint32) error {
	return e.exec(ctx, func(ctx context.Context, f *frame) error {
		s := e.state
		if caller != s.Manager {
			return ErrUnauthorized
		}
		s.CallbackGasLimit = limit
		f.emit(e.opts.Now(), models.Event{
			Type:    models.EventGasLimitChanged,
			Round:   s.Round,
			Address: caller,
			Value:   uint64(limit),
		})
		return nil
	})
}

// SetLotteryTicket changes the entry price for later entries. Under the
// minimum entry policy it moves the minimum as well.
func (e *Engine) SetLotteryTicket(ctx context.Context, caller common.Address, amount *big.Int) error {
	return e.exec(ctx, func(ctx context.Context, f *frame) error {
		s := e.state
		if caller != s.Manager {
			return ErrUnauthorized
		}
		if amount == nil || amount.Sign() <= 0 {
			return ErrIncorrectAmount
		}
		s.TicketPrice = new(big.Int).Set(amount)
		if e.opts.Policy.Entry == models.EntryMinimum {
			s.MinimumAmount = new(big.Int).Set(amount)
		}
		f.emit(e.opts.Now(), models.Event{
			Type:    models.EventTicketPriceChanged,
			Round:   s.Round,
			Address: caller,
			Amount:  new(big.Int).Set(amount),
		})
		return nil
	})
}

// Manager is the only caller allowed to pick winners and change settings.
func (e *Engine) Manager() common.Address { return e.opts.Manager }

func (e *Engine) RecentWinner(ctx context.Context) common.Address {
	defer e.read(ctx)()
	return e.state.RecentWinner
}

// PendingWithdrawals is what the ledger owes who.
func (e *Engine) PendingWithdrawals(ctx context.Context, who common.Address) *big.Int {
	defer e.read(ctx)()
	if owed, ok := e.state.Pending[who]; ok {
		return new(big.Int).Set(owed)
	}
	return new(big.Int)
}

// LotteryTicket is the current entry price, the minimum under the minimum
// entry policy.
func (e *Engine) LotteryTicket(ctx context.Context) *big.Int {
	defer e.read(ctx)()
	if e.opts.Policy.Entry == models.EntryMinimum {
		return new(big.Int).Set(e.state.MinimumAmount)
	}
	return new(big.Int).Set(e.state.TicketPrice)
}

func (e *Engine) GasLimit(ctx context.Context) uint32 {
	defer e.read(ctx)()
	return e.state.CallbackGasLimit
}

// GetDecimals reads the precision of a token. A nil token means the
// lottery currency.
func (e *Engine) GetDecimals(ctx context.Context, token DecimalsReader) (uint8, error) {
	if token == nil {
		return e.currency.Decimals(ctx)
	}
	return token.Decimals(ctx)
}

// Holdings is what the engine account owns in the lottery currency.
func (e *Engine) Holdings(ctx context.Context) (*big.Int, error) {
	return e.currency.Holdings(ctx)
}

// State returns a copy of the full engine state.
func (e *Engine) State(ctx context.Context) *models.LotteryState {
	defer e.read(ctx)()
	return e.state.Clone()
}
