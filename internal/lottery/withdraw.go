package lottery

import (
	"context"
	"math/big"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ethereum/go-ethereum/common"
)

// WithdrawPrize pays caller everything the ledger owes them. The entry is
// cleared before the transfer, so a transfer hook that calls back in finds
// nothing left. A locked round opens again once the recent winner has
// collected.
func (e *Engine) WithdrawPrize(ctx context.Context, caller common.Address) (*big.Int, error) {
	var paid *big.Int
	err := e.exec(ctx, func(ctx context.Context, f *frame) error {
		s := e.state
		owed, ok := s.Pending[caller]
		if !ok || owed.Sign() <= 0 {
			return ErrNothingToWithdraw
		}
		amount := new(big.Int).Set(owed)
		delete(s.Pending, caller)
		if s.State == models.RoundStateLocked && caller == s.RecentWinner {
			s.State = models.RoundStateOpen
		}
		f.emit(e.opts.Now(), models.Event{
			Type:    models.EventPrizeWithdrawn,
			Round:   s.Round,
			Address: caller,
			Amount:  new(big.Int).Set(amount),
		})

		if err := e.interact(ctx, f, func(ctx context.Context) error {
			return e.currency.Pay(ctx, caller, amount)
		}); err != nil {
			return err
		}
		paid = amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}
