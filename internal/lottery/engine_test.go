package lottery

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/bank"
	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	engineAddr  = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	managerAddr = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	coordAddr   = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	tokenAddr   = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	alice       = common.HexToAddress("0x0000000000000000000000000000000000000001")
	bob         = common.HexToAddress("0x0000000000000000000000000000000000000002")
	carol       = common.HexToAddress("0x0000000000000000000000000000000000000003")

	ticket   = big.NewInt(10_000_000_000_000_000) // 0.01 ether
	oneEther = big.NewInt(1_000_000_000_000_000_000)
	fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

type randomnessRequest struct {
	consumer common.Address
	keyHash  common.Hash
	subID    uint64
	gasLimit uint32
	numWords uint32
}

type fakeCoordinator struct {
	balance  *big.Int
	err      error
	next     uint64
	requests []randomnessRequest
}

func newFakeCoordinator() *fakeCoordinator {
	return &fakeCoordinator{balance: big.NewInt(1_000_000)}
}

func (c *fakeCoordinator) RequestRandomWords(_ context.Context, consumer common.Address, keyHash common.Hash, subID uint64, _ uint16, gasLimit, numWords uint32) (uint64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.next++
	c.requests = append(c.requests, randomnessRequest{consumer, keyHash, subID, gasLimit, numWords})
	return c.next, nil
}

func (c *fakeCoordinator) SubscriptionBalance(_ context.Context, _ uint64) (*big.Int, error) {
	return new(big.Int).Set(c.balance), nil
}

type nativeFixture struct {
	engine *Engine
	bank   *bank.Bank
	coord  *fakeCoordinator
}

func newNativeFixture(t *testing.T, payout models.PayoutMode) *nativeFixture {
	t.Helper()
	b := bank.New()
	for _, p := range []common.Address{alice, bob, carol} {
		require.NoError(t, b.Deposit(p, oneEther))
	}
	coord := newFakeCoordinator()
	policy := models.LotteryPolicy{
		Currency:  models.CurrencyNative,
		Entry:     models.EntryExact,
		Payout:    payout,
		Selection: models.SelectionModulo,
	}
	eng, err := New(Options{
		Address:        engineAddr,
		Manager:        managerAddr,
		Coordinator:    coordAddr,
		Policy:         policy,
		TicketPrice:    ticket,
		KeyHash:        common.HexToHash("0x01"),
		SubscriptionID: 1,
		Now:            func() time.Time { return fixedNow },
	}, NewNativeAdapter(engineAddr, b), coord)
	require.NoError(t, err)
	b.RegisterHook(engineAddr, eng.Receive)
	return &nativeFixture{engine: eng, bank: b, coord: coord}
}

// resolve runs a full round and returns the winner.
func (fx *nativeFixture) resolve(t *testing.T, word int64, players ...common.Address) common.Address {
	t.Helper()
	ctx := context.Background()
	for _, p := range players {
		require.NoError(t, fx.engine.Enter(ctx, p, ticket))
	}
	id, err := fx.engine.PickWinner(ctx, managerAddr)
	require.NoError(t, err)
	require.NoError(t, fx.engine.RawFulfillRandomWords(ctx, coordAddr, id, []*big.Int{big.NewInt(word)}))
	return fx.engine.RecentWinner(ctx)
}

func newTokenEngine(t *testing.T, policy models.LotteryPolicy) (*Engine, *token.Token, *fakeCoordinator) {
	t.Helper()
	tok := token.New(tokenAddr, "LINK", 18)
	for _, p := range []common.Address{alice, bob, carol} {
		require.True(t, tok.Mint(p, tok.Units(100)))
	}
	coord := newFakeCoordinator()
	eng, err := New(Options{
		Address:     engineAddr,
		Manager:     managerAddr,
		Coordinator: coordAddr,
		Policy:      policy,
		TicketPrice: tok.Units(1),
		Now:         func() time.Time { return fixedNow },
	}, NewTokenAdapter(engineAddr, tok), coord)
	require.NoError(t, err)
	return eng, tok, coord
}

func TestNewValidatesOptions(t *testing.T) {
	b := bank.New()
	native := NewNativeAdapter(engineAddr, b)
	policy, err := models.PolicyForVariant(models.VariantClassic)
	require.NoError(t, err)

	_, err = New(Options{Policy: policy}, native, newFakeCoordinator())
	assert.Error(t, err, "ticket price is required")

	tokenPolicy, err := models.PolicyForVariant(models.VariantERC20)
	require.NoError(t, err)
	_, err = New(Options{Policy: tokenPolicy, TicketPrice: ticket}, native, newFakeCoordinator())
	assert.Error(t, err, "currency mismatch")

	_, err = New(Options{Policy: policy, TicketPrice: ticket}, nil, newFakeCoordinator())
	assert.Error(t, err)

	eng, err := New(Options{Policy: policy, TicketPrice: ticket, Manager: managerAddr}, native, newFakeCoordinator())
	require.NoError(t, err)
	assert.Equal(t, DefaultCallbackGasLimit, eng.GasLimit(context.Background()))
	assert.Equal(t, models.RoundStateOpen, eng.State(context.Background()).State)
}

func TestCommitHookSeesOnlySuccessfulOperations(t *testing.T) {
	fx := newNativeFixture(t, models.PayoutPull)
	ctx := context.Background()

	var commits []Commit
	fx.engine.OnCommit(func(_ context.Context, c Commit) {
		commits = append(commits, c)
	})

	require.NoError(t, fx.engine.Enter(ctx, alice, ticket))
	require.ErrorIs(t, fx.engine.Enter(ctx, bob, big.NewInt(1)), ErrIncorrectAmount)
	require.Len(t, commits, 1)

	c := commits[0]
	require.Len(t, c.Events, 1)
	assert.Equal(t, models.EventEntered, c.Events[0].Type)
	assert.Equal(t, alice, c.Events[0].Address)
	assert.NotEmpty(t, c.Events[0].ID)
	assert.Equal(t, fixedNow, c.State.UpdatedAt)
	assert.Equal(t, []common.Address{alice}, c.State.Players)

	// the committed snapshot is a copy
	c.State.Players[0] = bob
	assert.Equal(t, []common.Address{alice}, fx.engine.GetPlayers(ctx))
}

func TestRestoreSnapshot(t *testing.T) {
	fx := newNativeFixture(t, models.PayoutPull)
	ctx := context.Background()
	require.NoError(t, fx.engine.Enter(ctx, alice, ticket))
	snapshot := fx.engine.State(ctx)

	other := newNativeFixture(t, models.PayoutPull)
	require.NoError(t, other.engine.Restore(snapshot))
	assert.Equal(t, []common.Address{alice}, other.engine.GetPlayers(ctx))
	assert.Equal(t, 0, ticket.Cmp(other.engine.TotalPlayerFunds(ctx)))

	foreign := snapshot.Clone()
	foreign.Manager = alice
	assert.Error(t, other.engine.Restore(foreign))
	assert.Error(t, other.engine.Restore(nil))
}
