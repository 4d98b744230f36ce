package services

import (
	"context"
	"math/big"
	"testing"

	"github.com/ArowuTest/bridgetunes-raffle/internal/app"
	"github.com/ArowuTest/bridgetunes-raffle/internal/app/apptest"
	"github.com/ArowuTest/bridgetunes-raffle/internal/lottery"
	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories/memory"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLotteryService(t *testing.T, variant string) (LotteryService, *app.Stack, repositories.Repositories) {
	t.Helper()
	stack := apptest.Build(t, variant)
	repos := memory.New()
	svc, err := NewLotteryService(context.Background(), stack.Engine, repos, stack.Tokens())
	require.NoError(t, err)
	return svc, stack, repos
}

func TestLotteryServicePersistsCommits(t *testing.T) {
	ctx := context.Background()
	svc, stack, repos := newLotteryService(t, "classic")

	saved, err := repos.State.Load(ctx, apptest.Lottery)
	require.NoError(t, err, "initial snapshot is saved")
	assert.Equal(t, models.RoundStateOpen, saved.State)

	require.NoError(t, svc.Enter(ctx, apptest.Alice, apptest.Ticket))
	require.NoError(t, svc.Enter(ctx, apptest.Bob, apptest.Ticket))
	_, err = svc.PickWinner(ctx, apptest.Manager)
	require.NoError(t, err)
	_, err = stack.Fulfiller.RunOnce(ctx)
	require.NoError(t, err)

	saved, err = repos.State.Load(ctx, apptest.Lottery)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), saved.Round)
	assert.Empty(t, saved.Players)

	winners, total, err := svc.GetWinners(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, winners, 1)
	assert.Equal(t, svc.RecentWinner(ctx), winners[0].Address)
	assert.Equal(t, 0, new(big.Int).Mul(apptest.Ticket, big.NewInt(2)).Cmp(winners[0].Prize))

	events, err := svc.GetEvents(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, events, 4)
	entered, err := svc.GetEvents(ctx, models.EventEntered, 1, 10)
	require.NoError(t, err)
	assert.Len(t, entered, 2)

	mine, err := svc.GetWinnersByAddress(ctx, winners[0].Address, 1, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestLotteryServiceKeepsFailedOperationsOut(t *testing.T) {
	ctx := context.Background()
	svc, _, repos := newLotteryService(t, "classic")

	err := svc.Enter(ctx, apptest.Alice, big.NewInt(1))
	assert.ErrorIs(t, err, lottery.ErrIncorrectAmount)
	_, err = svc.PickWinner(ctx, apptest.Alice)
	assert.ErrorIs(t, err, lottery.ErrUnauthorized)

	events, err := repos.Events.FindAll(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLotteryServiceRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	stack := apptest.Build(t, "classic")
	repos := memory.New()

	snapshot := stack.Engine.State(ctx)
	snapshot.Round = 7
	snapshot.Players = []common.Address{apptest.Alice}
	snapshot.TotalPool = new(big.Int).Set(apptest.Ticket)
	require.NoError(t, repos.State.Save(ctx, snapshot))

	svc, err := NewLotteryService(ctx, stack.Engine, repos, stack.Tokens())
	require.NoError(t, err)
	assert.Equal(t, []common.Address{apptest.Alice}, svc.GetPlayers(ctx))
	assert.Equal(t, uint64(7), svc.GetState(ctx).Round)
	assert.Equal(t, 0, apptest.Ticket.Cmp(svc.TotalPlayerFunds(ctx)))
}

func TestLotteryServiceRejectsForeignSnapshot(t *testing.T) {
	ctx := context.Background()
	stack := apptest.Build(t, "classic")
	repos := memory.New()

	snapshot := stack.Engine.State(ctx)
	snapshot.Manager = apptest.Alice
	require.NoError(t, repos.State.Save(ctx, snapshot))

	_, err := NewLotteryService(ctx, stack.Engine, repos, stack.Tokens())
	assert.Error(t, err)
}

func TestLotteryServiceDecimals(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLotteryService(t, "classic")

	d, err := svc.GetDecimals(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, lottery.NativeDecimals, d)

	tok := apptest.Token
	d, err = svc.GetDecimals(ctx, &tok)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), d)

	unknown := apptest.Alice
	_, err = svc.GetDecimals(ctx, &unknown)
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestLotteryServiceAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLotteryService(t, "link")

	require.NoError(t, svc.SetLotteryTicket(ctx, apptest.Manager, big.NewInt(5)))
	assert.Equal(t, "5", svc.LotteryTicket(ctx).String())
	require.NoError(t, svc.SetGasLimit(ctx, apptest.Manager, 200000))
	assert.Equal(t, uint32(200000), svc.GetState(ctx).CallbackGasLimit)

	assert.ErrorIs(t, svc.SetGasLimit(ctx, apptest.Bob, 1), lottery.ErrUnauthorized)
	assert.Equal(t, apptest.Manager, svc.Manager())
	assert.Equal(t, models.PayoutImmediate, svc.Policy().Payout)
}
