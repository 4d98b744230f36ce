// Package repotest checks that a storage backend behaves like the
// repositories interfaces promise. Backend packages call Run from their
// own tests.
package repotest

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lotteryAddr = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	managerAddr = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	alice       = common.HexToAddress("0x0000000000000000000000000000000000000001")
	bob         = common.HexToAddress("0x0000000000000000000000000000000000000002")
	at          = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

// Run exercises every repository of repos. newRepos must return an empty
// backend each time it is called.
func Run(t *testing.T, newRepos func(t *testing.T) repositories.Repositories) {
	t.Run("state", func(t *testing.T) { testState(t, newRepos(t).State) })
	t.Run("winners", func(t *testing.T) { testWinners(t, newRepos(t).Winners) })
	t.Run("events", func(t *testing.T) { testEvents(t, newRepos(t).Events) })
	t.Run("accounts", func(t *testing.T) { testAccounts(t, newRepos(t).Accounts) })
}

func testState(t *testing.T, repo repositories.StateRepository) {
	ctx := context.Background()

	_, err := repo.Load(ctx, lotteryAddr)
	require.ErrorIs(t, err, repositories.ErrNotFound)

	s := models.NewLotteryState(lotteryAddr, managerAddr, big.NewInt(100), big.NewInt(50), 100000)
	s.Players = []common.Address{alice, bob, alice}
	s.TotalPool = big.NewInt(300)
	s.State = models.RoundStateAwaitingRandomness
	s.PendingRequestID = 7
	s.HasPending = true
	s.Round = 3
	s.RecentWinner = bob
	s.Pending[bob] = new(big.Int).Lsh(big.NewInt(1), 100)
	s.UpdatedAt = at
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Load(ctx, lotteryAddr)
	require.NoError(t, err)
	assert.Equal(t, s.Address, got.Address)
	assert.Equal(t, s.Manager, got.Manager)
	assert.Equal(t, s.State, got.State)
	assert.Equal(t, s.Round, got.Round)
	assert.Equal(t, s.Players, got.Players)
	assert.Equal(t, "300", got.TotalPool.String())
	assert.Equal(t, "100", got.TicketPrice.String())
	assert.Equal(t, "50", got.MinimumAmount.String())
	assert.Equal(t, uint32(100000), got.CallbackGasLimit)
	assert.Equal(t, uint64(7), got.PendingRequestID)
	assert.True(t, got.HasPending)
	assert.Equal(t, bob, got.RecentWinner)
	require.Contains(t, got.Pending, bob)
	assert.Equal(t, s.Pending[bob].String(), got.Pending[bob].String())
	assert.True(t, at.Equal(got.UpdatedAt))

	// a later save replaces the snapshot
	s.Players = []common.Address{}
	s.State = models.RoundStateOpen
	delete(s.Pending, bob)
	require.NoError(t, repo.Save(ctx, s))
	got, err = repo.Load(ctx, lotteryAddr)
	require.NoError(t, err)
	assert.Empty(t, got.Players)
	assert.Empty(t, got.Pending)
	assert.Equal(t, models.RoundStateOpen, got.State)
}

func testWinners(t *testing.T, repo repositories.WinnerRepository) {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		addr := alice
		if i == 1 {
			addr = bob
		}
		require.NoError(t, repo.Create(ctx, &models.Winner{
			Round:      uint64(i),
			Address:    addr,
			Prize:      big.NewInt(int64(100 * (i + 1))),
			Players:    2,
			RequestID:  uint64(i + 1),
			RandomWord: new(big.Int).Lsh(big.NewInt(3), 200),
			Payout:     models.PayoutPull,
			WinDate:    at.Add(time.Duration(i) * time.Minute),
		}))
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	all, err := repo.FindAll(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, uint64(2), all[0].Round)
	assert.Equal(t, uint64(1), all[1].Round)
	assert.Equal(t, "300", all[0].Prize.String())
	assert.Equal(t, new(big.Int).Lsh(big.NewInt(3), 200).String(), all[0].RandomWord.String())
	assert.Equal(t, models.PayoutPull, all[0].Payout)

	rest, err := repo.FindAll(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, uint64(0), rest[0].Round)

	mine, err := repo.FindByAddress(ctx, alice, 1, 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, uint64(2), mine[0].Round)
	assert.Equal(t, uint64(0), mine[1].Round)
}

func testEvents(t *testing.T, repo repositories.EventRepository) {
	ctx := context.Background()
	events := []models.Event{
		{ID: "e1", Type: models.EventEntered, Address: alice, Amount: big.NewInt(10), CreatedAt: at},
		{ID: "e2", Type: models.EventEntered, Address: bob, Amount: big.NewInt(10), CreatedAt: at.Add(time.Second)},
		{ID: "e3", Type: models.EventRandomnessRequested, Address: managerAddr, RequestID: 1, Value: 2, CreatedAt: at.Add(2 * time.Second)},
	}
	require.NoError(t, repo.CreateMany(ctx, events))
	require.NoError(t, repo.CreateMany(ctx, nil))

	all, err := repo.FindAll(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "e3", all[0].ID)
	assert.Equal(t, uint64(1), all[0].RequestID)
	assert.Equal(t, uint64(2), all[0].Value)
	assert.Equal(t, "e1", all[2].ID)
	assert.Equal(t, "10", all[2].Amount.String())

	entered, err := repo.FindByType(ctx, models.EventEntered, 1, 1)
	require.NoError(t, err)
	require.Len(t, entered, 1)
	assert.Equal(t, bob, entered[0].Address)
}

func testAccounts(t *testing.T, repo repositories.AccountRepository) {
	ctx := context.Background()
	account := &models.Account{Username: "alice", Password: "hash", Address: alice, CreatedAt: at}
	require.NoError(t, repo.Create(ctx, account))
	assert.ErrorIs(t, repo.Create(ctx, &models.Account{Username: "alice", Address: bob}), repositories.ErrDuplicate)
	assert.ErrorIs(t, repo.Create(ctx, &models.Account{Username: "other", Address: alice}), repositories.ErrDuplicate)

	got, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice, got.Address)
	assert.Equal(t, "hash", got.Password)

	got, err = repo.FindByAddress(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = repo.FindByAddress(ctx, bob)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
