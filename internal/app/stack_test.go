package app_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ArowuTest/bridgetunes-raffle/internal/app"
	"github.com/ArowuTest/bridgetunes-raffle/internal/app/apptest"
	"github.com/ArowuTest/bridgetunes-raffle/internal/lottery"
	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlaysARound(t *testing.T) {
	ctx := context.Background()
	stack := apptest.Build(t, "classic")

	require.NoError(t, stack.Engine.Enter(ctx, apptest.Alice, apptest.Ticket))
	require.NoError(t, stack.Engine.Enter(ctx, apptest.Bob, apptest.Ticket))
	id, err := stack.Engine.PickWinner(ctx, apptest.Manager)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	done, err := stack.Fulfiller.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.True(t, done[0].Success, done[0].Error)

	state := stack.Engine.State(ctx)
	assert.Equal(t, models.RoundStateOpen, state.State)
	assert.Equal(t, uint64(1), state.Round)
	winner := state.RecentWinner
	assert.Contains(t, []common.Address{apptest.Alice, apptest.Bob}, winner)
	assert.Equal(t, 0, stack.Engine.PendingWithdrawals(ctx, winner).Cmp(state.TotalPending()))
}

func TestBuildRejectsDirectTransfers(t *testing.T) {
	stack := apptest.Build(t, "classic")
	err := stack.Bank.Transfer(context.Background(), apptest.Alice, apptest.Lottery, apptest.Ticket)
	assert.ErrorIs(t, err, lottery.ErrDirectTransferNotAllowed)
	assert.Equal(t, 0, apptest.OneEther.Cmp(stack.Bank.BalanceOf(apptest.Alice)))
}

func TestBuildVariants(t *testing.T) {
	tests := []struct {
		variant  string
		currency models.Currency
		ticket   string
	}{
		{"classic", models.CurrencyNative, "10000000000000000"},
		{"ether", models.CurrencyNative, "10000000000000000"},
		{"erc20", models.CurrencyToken, "1000000000000000000"},
		{"link", models.CurrencyToken, "1000000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			stack, err := app.Build(apptest.Config(tt.variant))
			require.NoError(t, err)
			assert.Equal(t, tt.currency, stack.Engine.Policy().Currency)
			assert.Equal(t, tt.ticket, stack.Engine.LotteryTicket(context.Background()).String())

			sub, err := stack.Coordinator.GetSubscription(context.Background(), stack.SubscriptionID)
			require.NoError(t, err)
			assert.Equal(t, apptest.Manager, sub.Owner)
			assert.Equal(t, []common.Address{apptest.Lottery}, sub.Consumers)
		})
	}
}

func TestBuildRejectsBadTicket(t *testing.T) {
	cfg := apptest.Config("classic")
	cfg.Lottery.TicketPrice = "0.0000000000000000001"
	_, err := app.Build(cfg)
	assert.Error(t, err)
}


func TestReopenPendingAfterRestart(t *testing.T) {
	ctx := context.Background()
	before := apptest.Build(t, "classic")
	require.NoError(t, before.Engine.Enter(ctx, apptest.Alice, apptest.Ticket))
	require.NoError(t, before.Engine.Enter(ctx, apptest.Bob, apptest.Ticket))
	id, err := before.Engine.PickWinner(ctx, apptest.Manager)
	require.NoError(t, err)
	snapshot := before.Engine.State(ctx)

	after := apptest.Build(t, "classic")
	reopened, err := after.ReopenPending(ctx)
	require.NoError(t, err)
	assert.False(t, reopened, "a fresh round has nothing pending")

	require.NoError(t, after.Engine.Restore(snapshot))
	reopened, err = after.ReopenPending(ctx)
	require.NoError(t, err)
	assert.True(t, reopened)

	done, err := after.Fulfiller.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, id, done[0].RequestID)
	assert.True(t, done[0].Success, done[0].Error)
	assert.Equal(t, models.RoundStateOpen, after.Engine.State(ctx).State)
}

func TestBuildRequiresFeeBeforePicking(t *testing.T) {
	ctx := context.Background()
	cfg := apptest.Config("classic")
	cfg.Coordinator.FeePerRequest = "10"
	cfg.Coordinator.MinSubscriptionBalance = "1"
	cfg.Coordinator.InitialFunding = "5"
	stack := apptest.BuildWith(t, cfg)

	require.NoError(t, stack.Engine.Enter(ctx, apptest.Alice, apptest.Ticket))
	require.NoError(t, stack.Engine.Enter(ctx, apptest.Bob, apptest.Ticket))
	_, err := stack.Engine.PickWinner(ctx, apptest.Manager)
	assert.ErrorIs(t, err, lottery.ErrInsufficientSubscriptionFunds)
	assert.Equal(t, models.RoundStateOpen, stack.Engine.State(ctx).State)

	require.NoError(t, stack.Coordinator.FundSubscription(stack.SubscriptionID, big.NewInt(5)))
	_, err = stack.Engine.PickWinner(ctx, apptest.Manager)
	require.NoError(t, err)

	done, err := stack.Fulfiller.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.True(t, done[0].Success, done[0].Error)
	assert.Equal(t, models.RoundStateOpen, stack.Engine.State(ctx).State)
}
