// Package bank keeps native-value balances for the accounts that take part
// in a lottery. It stands in for the execution environment's native
// currency: value can be attached to a call (Escrow) or sent to an account
// (Transfer), in which case the recipient's receive hook runs and may
// reject the transfer.
package bank

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// ReceiveHook runs after value reached an account through Transfer.
// Returning an error reverts the transfer and every move the hook made
// through the bank with the context it was given.
type ReceiveHook func(ctx context.Context, from common.Address, amount *big.Int) error

type Bank struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
	hooks    map[common.Address]ReceiveHook
	// value credited by transfers whose hooks are still running; only
	// moves inside the same outermost transfer may spend it
	held     map[common.Address]*big.Int
}

func New() *Bank {
	return &Bank{
		balances: make(map[common.Address]*big.Int),
		hooks:    make(map[common.Address]ReceiveHook),
		held:     make(map[common.Address]*big.Int),
	}
}

type entry struct {
	from, to common.Address
	amount   *big.Int
}

// journal records the moves of one Transfer and of everything its hook
// did, so a rejection undoes exactly those moves.
type journal struct {
	root    *journal
	entries []entry
	held    map[common.Address]*big.Int // root only
}

type journalKey struct{}

func journalFrom(ctx context.Context) *journal {
	if ctx == nil {
		return nil
	}
	j, _ := ctx.Value(journalKey{}).(*journal)
	return j
}

// RegisterHook installs the receive hook of an account, replacing any
// previous one.
func (b *Bank) RegisterHook(addr common.Address, hook ReceiveHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[addr] = hook
}

func (b *Bank) RemoveHook(addr common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.hooks, addr)
}

// Deposit mints value to an account. Deposits are never reverted.
func (b *Bank) Deposit(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	credit(b.balances, to, amount)
	return nil
}

func (b *Bank) BalanceOf(addr common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Escrow moves value attached to a call. No hook runs. Inside a receive
// hook the move is undone if the surrounding transfer is rejected.
func (b *Bank) Escrow(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.move(journalFrom(ctx), from, to, amount)
}

// Transfer sends value and then runs the recipient's hook. The hook may
// call back into whatever sent the value. If it fails, the transfer and
// the moves made under the hook's context are undone; other accounts'
// concurrent activity is left alone.
func (b *Bank) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	parent := journalFrom(ctx)
	j := &journal{}
	if parent != nil {
		j.root = parent.root
	} else {
		j.root = j
		j.held = make(map[common.Address]*big.Int)
	}

	b.mu.Lock()
	if err := b.move(j, from, to, amount); err != nil {
		b.mu.Unlock()
		return err
	}
	hook := b.hooks[to]
	b.mu.Unlock()

	var hookErr error
	if hook != nil {
		hookErr = hook(context.WithValue(ctx, journalKey{}, j), from, new(big.Int).Set(amount))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if hookErr != nil {
		b.revert(j)
	} else if parent != nil {
		parent.entries = append(parent.entries, j.entries...)
	}
	if parent == nil {
		for addr, amt := range j.held {
			debit(b.held, addr, amt)
		}
	}
	if hookErr != nil {
		return fmt.Errorf("transfer rejected by %s: %w", to.Hex(), hookErr)
	}
	return nil
}

// move debits from and credits to. Value held for an in-flight transfer
// can only be spent by moves belonging to the same outermost transfer.
func (b *Bank) move(j *journal, from, to common.Address, amount *big.Int) error {
	spendable := new(big.Int)
	if bal, ok := b.balances[from]; ok {
		spendable.Set(bal)
	}
	if held, ok := b.held[from]; ok {
		spendable.Sub(spendable, held)
	}
	if j != nil {
		if own, ok := j.root.held[from]; ok {
			spendable.Add(spendable, own)
		}
	}
	if spendable.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, from.Hex())
	}
	debit(b.balances, from, amount)
	credit(b.balances, to, amount)
	if j != nil {
		j.entries = append(j.entries, entry{from: from, to: to, amount: new(big.Int).Set(amount)})
		credit(j.root.held, to, amount)
		credit(b.held, to, amount)
	}
	return nil
}

// revert undoes the journal's moves newest first. The credited value is
// held until then, so the recipients still own it.
func (b *Bank) revert(j *journal) {
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		debit(b.balances, e.to, e.amount)
		credit(b.balances, e.from, e.amount)
		debit(j.root.held, e.to, e.amount)
		debit(b.held, e.to, e.amount)
	}
	j.entries = nil
}

func credit(m map[common.Address]*big.Int, addr common.Address, amount *big.Int) {
	bal, ok := m[addr]
	if !ok {
		bal = new(big.Int)
		m[addr] = bal
	}
	bal.Add(bal, amount)
}

func debit(m map[common.Address]*big.Int, addr common.Address, amount *big.Int) {
	bal, ok := m[addr]
	if !ok {
		bal = new(big.Int)
		m[addr] = bal
	}
	bal.Sub(bal, amount)
	if bal.Sign() == 0 {
		delete(m, addr)
	}
}
