package bank

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x01")
	bob   = common.HexToAddress("0x02")
)

func TestEscrowAndDeposit(t *testing.T) {
	b := New()
	assert.ErrorIs(t, b.Deposit(alice, big.NewInt(0)), ErrInvalidAmount)
	require.NoError(t, b.Deposit(alice, big.NewInt(100)))

	assert.ErrorIs(t, b.Escrow(context.Background(), alice, bob, big.NewInt(101)), ErrInsufficientBalance)
	require.NoError(t, b.Escrow(context.Background(), alice, bob, big.NewInt(40)))
	assert.Equal(t, int64(60), b.BalanceOf(alice).Int64())
	assert.Equal(t, int64(40), b.BalanceOf(bob).Int64())

	// callers get copies
	b.BalanceOf(alice).SetInt64(0)
	assert.Equal(t, int64(60), b.BalanceOf(alice).Int64())
}

func TestTransferRunsHook(t *testing.T) {
	b := New()
	require.NoError(t, b.Deposit(alice, big.NewInt(100)))

	var got *big.Int
	b.RegisterHook(bob, func(_ context.Context, from common.Address, amount *big.Int) error {
		assert.Equal(t, alice, from)
		got = amount
		// the value has already arrived when the hook runs
		assert.Equal(t, int64(30), b.BalanceOf(bob).Int64())
		return nil
	})

	require.NoError(t, b.Transfer(context.Background(), alice, bob, big.NewInt(30)))
	assert.Equal(t, int64(30), got.Int64())
	assert.Equal(t, int64(70), b.BalanceOf(alice).Int64())
}

func TestTransferRevertedByHook(t *testing.T) {
	b := New()
	require.NoError(t, b.Deposit(alice, big.NewInt(100)))
	require.NoError(t, b.Deposit(bob, big.NewInt(5)))
	refused := errors.New("refused")

	b.RegisterHook(bob, func(ctx context.Context, _ common.Address, _ *big.Int) error {
		// whatever the hook moved is undone as well
		require.NoError(t, b.Escrow(ctx, bob, alice, big.NewInt(5)))
		return refused
	})

	err := b.Transfer(context.Background(), alice, bob, big.NewInt(30))
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, int64(100), b.BalanceOf(alice).Int64())
	assert.Equal(t, int64(5), b.BalanceOf(bob).Int64())

	b.RemoveHook(bob)
	require.NoError(t, b.Transfer(context.Background(), alice, bob, big.NewInt(30)))
	assert.Equal(t, int64(35), b.BalanceOf(bob).Int64())
}

func TestRejectedTransferKeepsConcurrentActivity(t *testing.T) {
	b := New()
	carol := common.HexToAddress("0x03")
	require.NoError(t, b.Deposit(alice, big.NewInt(100)))
	require.NoError(t, b.Deposit(carol, big.NewInt(10)))

	entered := make(chan struct{})
	release := make(chan struct{})
	b.RegisterHook(bob, func(_ context.Context, _ common.Address, _ *big.Int) error {
		close(entered)
		<-release
		return errors.New("refused")
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.Transfer(context.Background(), alice, bob, big.NewInt(30))
	}()
	<-entered

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, b.Deposit(carol, big.NewInt(50)))
		assert.NoError(t, b.Escrow(context.Background(), carol, alice, big.NewInt(20)))
	}()
	wg.Wait()

	// the value in flight to bob cannot be spent by anyone else
	assert.ErrorIs(t, b.Escrow(context.Background(), bob, carol, big.NewInt(30)), ErrInsufficientBalance)

	close(release)
	assert.Error(t, <-errCh)

	assert.Equal(t, int64(40), b.BalanceOf(carol).Int64())
	assert.Equal(t, int64(120), b.BalanceOf(alice).Int64())
	assert.Equal(t, int64(0), b.BalanceOf(bob).Int64())

	// nothing stays held once the transfer is over
	b.RemoveHook(bob)
	require.NoError(t, b.Transfer(context.Background(), alice, bob, big.NewInt(30)))
	require.NoError(t, b.Escrow(context.Background(), bob, carol, big.NewInt(30)))
}

func TestNestedTransferUndoneWithOuter(t *testing.T) {
	b := New()
	carol := common.HexToAddress("0x03")
	require.NoError(t, b.Deposit(alice, big.NewInt(100)))

	b.RegisterHook(bob, func(ctx context.Context, _ common.Address, amount *big.Int) error {
		// forward what just arrived, then refuse
		require.NoError(t, b.Transfer(ctx, bob, carol, amount))
		return errors.New("refused")
	})

	err := b.Transfer(context.Background(), alice, bob, big.NewInt(25))
	assert.Error(t, err)
	assert.Equal(t, int64(100), b.BalanceOf(alice).Int64())
	assert.Equal(t, int64(0), b.BalanceOf(bob).Int64())
	assert.Equal(t, int64(0), b.BalanceOf(carol).Int64())
}
