package lottery

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ethereum/go-ethereum/common"
)

// NativeDecimals is the precision of the native currency.
const NativeDecimals uint8 = 18

// CurrencyAdapter moves the lottery currency in and out of the engine.
type CurrencyAdapter interface {
	Kind() models.Currency
	// Collect pulls an entry payment from a player into the engine.
	Collect(ctx context.Context, from common.Address, amount *big.Int) error
	// Pay sends value out of the engine. The recipient may re-enter the
	// engine while Pay runs.
	Pay(ctx context.Context, to common.Address, amount *big.Int) error
	// Holdings reports what the engine account currently owns.
	Holdings(ctx context.Context) (*big.Int, error)
	Decimals(ctx context.Context) (uint8, error)
}

// NativeLedger is the native value ledger the engine account lives in.
type NativeLedger interface {
	Escrow(ctx context.Context, from, to common.Address, amount *big.Int) error
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	BalanceOf(addr common.Address) *big.Int
}

// DecimalsReader is anything that reports token precision.
type DecimalsReader interface {
	Decimals(ctx context.Context) (uint8, error)
}

// FungibleToken is the subset of an ERC20 token the engine needs.
type FungibleToken interface {
	DecimalsReader
	Address() common.Address
	BalanceOf(ctx context.Context, who common.Address) (*big.Int, error)
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) (bool, error)
	TransferFrom(ctx context.Context, spender, from, to common.Address, amount *big.Int) (bool, error)
}

type nativeAdapter struct {
	engine common.Address
	ledger NativeLedger
}

// NewNativeAdapter handles value attached to calls for the engine account.
func NewNativeAdapter(engine common.Address, ledger NativeLedger) CurrencyAdapter {
	return &nativeAdapter{engine: engine, ledger: ledger}
}

func (a *nativeAdapter) Kind() models.Currency { return models.CurrencyNative }

func (a *nativeAdapter) Collect(ctx context.Context, from common.Address, amount *big.Int) error {
	return a.ledger.Escrow(ctx, from, a.engine, amount)
}

func (a *nativeAdapter) Pay(ctx context.Context, to common.Address, amount *big.Int) error {
	if err := a.ledger.Transfer(ctx, a.engine, to, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return nil
}

func (a *nativeAdapter) Holdings(_ context.Context) (*big.Int, error) {
	return a.ledger.BalanceOf(a.engine), nil
}

func (a *nativeAdapter) Decimals(_ context.Context) (uint8, error) { return NativeDecimals, nil }

type tokenAdapter struct {
	engine common.Address
	token  FungibleToken
}

// NewTokenAdapter pulls entries with transferFrom, the engine acting as
// spender, and pays with transfer.
func NewTokenAdapter(engine common.Address, token FungibleToken) CurrencyAdapter {
	return &tokenAdapter{engine: engine, token: token}
}

func (a *tokenAdapter) Kind() models.Currency { return models.CurrencyToken }

func (a *tokenAdapter) Collect(ctx context.Context, from common.Address, amount *big.Int) error {
	ok, err := a.token.TransferFrom(ctx, a.engine, from, a.engine, amount)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenTransferFailed, err)
	}
	if !ok {
		return ErrTokenTransferFailed
	}
	return nil
}

func (a *tokenAdapter) Pay(ctx context.Context, to common.Address, amount *big.Int) error {
	ok, err := a.token.Transfer(ctx, a.engine, to, amount)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if !ok {
		return ErrTransferFailed
	}
	return nil
}

func (a *tokenAdapter) Holdings(ctx context.Context) (*big.Int, error) {
	return a.token.BalanceOf(ctx, a.engine)
}

func (a *tokenAdapter) Decimals(ctx context.Context) (uint8, error) {
	return a.token.Decimals(ctx)
}
