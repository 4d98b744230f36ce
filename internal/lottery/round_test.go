package lottery

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickWinnerPreconditions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(t *testing.T, fx *nativeFixture)
		caller  common.Address
		wantErr error
	}{
		{
			name:    "not the manager",
			setup:   func(t *testing.T, fx *nativeFixture) { enterAll(t, fx, alice, bob) },
			caller:  alice,
			wantErr: ErrUnauthorized,
		},
		{
			name:    "no players",
			setup:   func(*testing.T, *nativeFixture) {},
			caller:  managerAddr,
			wantErr: ErrNotEnoughPlayers,
		},
		{
			name:    "one player",
			setup:   func(t *testing.T, fx *nativeFixture) { enterAll(t, fx, alice) },
			caller:  managerAddr,
			wantErr: ErrNotEnoughPlayers,
		},
		{
			name: "subscription empty",
			setup: func(t *testing.T, fx *nativeFixture) {
				enterAll(t, fx, alice, bob)
				fx.coord.balance = big.NewInt(0)
			},
			caller:  managerAddr,
			wantErr: ErrInsufficientSubscriptionFunds,
		},
		{
			name: "already awaiting randomness",
			setup: func(t *testing.T, fx *nativeFixture) {
				enterAll(t, fx, alice, bob)
				_, err := fx.engine.PickWinner(ctx, managerAddr)
				require.NoError(t, err)
			},
			caller:  managerAddr,
			wantErr: ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newNativeFixture(t, models.PayoutPull)
			tt.setup(t, fx)
			before := fx.engine.State(ctx)
			requests := len(fx.coord.requests)

			_, err := fx.engine.PickWinner(ctx, tt.caller)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, fx.engine.State(ctx))
			assert.Len(t, fx.coord.requests, requests)
		})
	}
}

func TestPickWinnerCoordinatorFailureLeavesRoundOpen(t *testing.T) {
	fx := newNativeFixture(t, models.PayoutPull)
	ctx := context.Background()
	enterAll(t, fx, alice, bob)
	fx.coord.err = errors.New("gas limit too big")

	_, err := fx.engine.PickWinner(ctx, managerAddr)
	require.Error(t, err)
	s := fx.engine.State(ctx)
	assert.Equal(t, models.RoundStateOpen, s.State)
	assert.False(t, s.HasPending)
}

func TestPickWinnerRequestsOnce(t *testing.T) {
	fx := newNativeFixture(t, models.PayoutPull)
	ctx := context.Background()
	enterAll(t, fx, alice, bob)

	id, err := fx.engine.PickWinner(ctx, managerAddr)
	require.NoError(t, err)
	require.Len(t, fx.coord.requests, 1)

	req := fx.coord.requests[0]
	assert.Equal(t, engineAddr, req.consumer)
	assert.Equal(t, common.HexToHash("0x01"), req.keyHash)
	assert.Equal(t, uint64(1), req.subID)
	assert.Equal(t, DefaultCallbackGasLimit, req.gasLimit)
	assert.Equal(t, DefaultNumWords, req.numWords)

	s := fx.engine.State(ctx)
	assert.Equal(t, models.RoundStateAwaitingRandomness, s.State)
	assert.True(t, s.HasPending)
	assert.Equal(t, id, s.PendingRequestID)
}

func TestFulfillCreditsWholePool(t *testing.T) {
	fx := newNativeFixture(t, models.PayoutPull)
	ctx := context.Background()

	var winners []models.Winner
	fx.engine.OnCommit(func(_ context.Context, c Commit) {
		winners = append(winners, c.Winners...)
	})

	// 4 mod 3 picks the second entry
	winner := fx.resolve(t, 4, alice, bob, carol)
	assert.Equal(t, bob, winner)

	pool := new(big.Int).Mul(ticket, big.NewInt(3))
	assert.Equal(t, 0, pool.Cmp(fx.engine.PendingWithdrawals(ctx, bob)))
	assert.Equal(t, 0, fx.engine.PendingWithdrawals(ctx, alice).Sign())
	assert.Equal(t, 0, fx.engine.TotalPlayerFunds(ctx).Sign())
	assert.Empty(t, fx.engine.GetPlayers(ctx))

	s := fx.engine.State(ctx)
	assert.Equal(t, models.RoundStateOpen, s.State)
	assert.False(t, s.HasPending)
	assert.Equal(t, uint64(1), s.Round)

	require.Len(t, winners, 1)
	assert.Equal(t, uint64(0), winners[0].Round)
	assert.Equal(t, bob, winners[0].Address)
	assert.Equal(t, 3, winners[0].Players)
	assert.Equal(t, 0, pool.Cmp(winners[0].Prize))
	assert.False(t, winners[0].PaidOut)
}

func TestFulfillRejectsWrongCallerAndReplay(t *testing.T) {
	fx := newNativeFixture(t, models.PayoutPull)
	ctx := context.Background()
	enterAll(t, fx, alice, bob)
	id, err := fx.engine.PickWinner(ctx, managerAddr)
	require.NoError(t, err)
	words := []*big.Int{big.NewInt(1)}

	err = fx.engine.RawFulfillRandomWords(ctx, alice, id, words)
	assert.ErrorIs(t, err, ErrUnauthorizedCallback)
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.ErrorIs(t, fx.engine.RawFulfillRandomWords(ctx, coordAddr, id+1, words), ErrUnknownRequest)
	assert.ErrorIs(t, fx.engine.RawFulfillRandomWords(ctx, coordAddr, id, nil), ErrNoRandomWords)
	assert.Equal(t, models.RoundStateAwaitingRandomness, fx.engine.State(ctx).State)

	require.NoError(t, fx.engine.RawFulfillRandomWords(ctx, coordAddr, id, words))
	pool := new(big.Int).Mul(ticket, big.NewInt(2))
	assert.Equal(t, 0, pool.Cmp(fx.engine.PendingWithdrawals(ctx, bob)))

	// replay after resolution
	assert.ErrorIs(t, fx.engine.RawFulfillRandomWords(ctx, coordAddr, id, words), ErrUnknownRequest)
	assert.Equal(t, 0, pool.Cmp(fx.engine.PendingWithdrawals(ctx, bob)))
}

func TestLockedRound(t *testing.T) {
	fx := newNativeFixture(t, models.PayoutLocked)
	ctx := context.Background()

	winner := fx.resolve(t, 0, alice, bob)
	require.Equal(t, alice, winner)
	assert.Equal(t, models.RoundStateLocked, fx.engine.State(ctx).State)

	err := fx.engine.Enter(ctx, carol, ticket)
	assert.ErrorIs(t, err, ErrWinnerPendingCollection)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = fx.engine.PickWinner(ctx, managerAddr)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = fx.engine.WithdrawPrize(ctx, bob)
	assert.ErrorIs(t, err, ErrNothingToWithdraw)
	assert.Equal(t, models.RoundStateLocked, fx.engine.State(ctx).State)

	paid, err := fx.engine.WithdrawPrize(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, new(big.Int).Mul(ticket, big.NewInt(2)).Cmp(paid))
	assert.Equal(t, models.RoundStateOpen, fx.engine.State(ctx).State)

	require.NoError(t, fx.engine.Enter(ctx, carol, ticket))
}

func TestImmediatePayout(t *testing.T) {
	ctx := context.Background()
	eng, tok, _ := newTokenEngine(t, models.LotteryPolicy{
		Currency: models.CurrencyToken, Entry: models.EntryMinimum,
		Payout: models.PayoutImmediate, Selection: models.SelectionModulo,
	})
	var commits []Commit
	eng.OnCommit(func(_ context.Context, c Commit) { commits = append(commits, c) })

	for _, p := range []common.Address{alice, bob} {
		require.True(t, tok.Approve(p, engineAddr, tok.Units(5)))
	}
	require.NoError(t, eng.Enter(ctx, alice, tok.Units(2)))
	require.NoError(t, eng.Enter(ctx, bob, tok.Units(3)))
	id, err := eng.PickWinner(ctx, managerAddr)
	require.NoError(t, err)
	require.NoError(t, eng.RawFulfillRandomWords(ctx, coordAddr, id, []*big.Int{big.NewInt(1)}))

	bal, err := tok.BalanceOf(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 0, tok.Units(102).Cmp(bal))
	assert.Equal(t, 0, eng.PendingWithdrawals(ctx, bob).Sign())
	held, err := eng.Holdings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, held.Sign())
	assert.Equal(t, models.RoundStateOpen, eng.State(ctx).State)

	last := commits[len(commits)-1]
	require.Len(t, last.Winners, 1)
	assert.True(t, last.Winners[0].PaidOut)
	assert.Equal(t, []models.EventType{models.EventWinnerPicked, models.EventPrizePaid}, eventTypes(last.Events))
}

func TestImmediatePayoutFailureKeepsCredit(t *testing.T) {
	fx := newNativeFixture(t, models.PayoutImmediate)
	ctx := context.Background()
	var commits []Commit
	fx.engine.OnCommit(func(_ context.Context, c Commit) { commits = append(commits, c) })

	refuse := errors.New("no thanks")
	fx.bank.RegisterHook(alice, func(context.Context, common.Address, *big.Int) error { return refuse })

	winner := fx.resolve(t, 0, alice, bob)
	require.Equal(t, alice, winner)

	pool := new(big.Int).Mul(ticket, big.NewInt(2))
	assert.Equal(t, 0, pool.Cmp(fx.engine.PendingWithdrawals(ctx, alice)))
	assert.Equal(t, models.RoundStateOpen, fx.engine.State(ctx).State)
	last := commits[len(commits)-1]
	assert.False(t, last.Winners[0].PaidOut)
	assert.Equal(t, []models.EventType{models.EventWinnerPicked, models.EventPayoutFailed}, eventTypes(last.Events))

	fx.bank.RemoveHook(alice)
	paid, err := fx.engine.WithdrawPrize(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, pool.Cmp(paid))
	assert.Equal(t, 0, new(big.Int).Add(oneEther, ticket).Cmp(fx.bank.BalanceOf(alice)))
}

func TestSettersAreManagerOnly(t *testing.T) {
	fx := newNativeFixture(t, models.PayoutPull)
	ctx := context.Background()

	assert.ErrorIs(t, fx.engine.SetGasLimit(ctx, alice, 1), ErrUnauthorized)
	assert.ErrorIs(t, fx.engine.SetLotteryTicket(ctx, alice, big.NewInt(1)), ErrUnauthorized)
	assert.ErrorIs(t, fx.engine.SetLotteryTicket(ctx, managerAddr, big.NewInt(0)), ErrIncorrectAmount)
	assert.Equal(t, 0, ticket.Cmp(fx.engine.LotteryTicket(ctx)))

	require.NoError(t, fx.engine.SetGasLimit(ctx, managerAddr, 90000))
	newPrice := new(big.Int).Mul(ticket, big.NewInt(2))
	require.NoError(t, fx.engine.SetLotteryTicket(ctx, managerAddr, newPrice))
	assert.Equal(t, 0, newPrice.Cmp(fx.engine.LotteryTicket(ctx)))

	assert.ErrorIs(t, fx.engine.Enter(ctx, alice, ticket), ErrIncorrectAmount)
	require.NoError(t, fx.engine.Enter(ctx, alice, newPrice))
	require.NoError(t, fx.engine.Enter(ctx, bob, newPrice))
	_, err := fx.engine.PickWinner(ctx, managerAddr)
	require.NoError(t, err)
	assert.Equal(t, uint32(90000), fx.coord.requests[0].gasLimit)
}

func TestViews(t *testing.T) {
	fx := newNativeFixture(t, models.PayoutPull)
	ctx := context.Background()

	assert.Equal(t, managerAddr, fx.engine.Manager())
	assert.Equal(t, common.Address{}, fx.engine.RecentWinner(ctx))

	decimals, err := fx.engine.GetDecimals(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, NativeDecimals, decimals)

	_, tok, _ := newTokenEngine(t, models.LotteryPolicy{
		Currency: models.CurrencyToken, Entry: models.EntryFixed,
		Payout: models.PayoutPull, Selection: models.SelectionModulo,
	})
	decimals, err = fx.engine.GetDecimals(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), decimals)
}

func enterAll(t *testing.T, fx *nativeFixture, players ...common.Address) {
	t.Helper()
	for _, p := range players {
		require.NoError(t, fx.engine.Enter(context.Background(), p, ticket))
	}
}

func eventTypes(events []models.Event) []models.EventType {
	types := make([]models.EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}
