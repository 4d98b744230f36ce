// Package token is an in-process fungible token with ERC20 semantics:
// failed transfers report false instead of an error.
package token

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type Token struct {
	address  common.Address
	symbol   string
	decimals uint8

	mu         sync.Mutex
	supply     *big.Int
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

func New(address common.Address, symbol string, decimals uint8) *Token {
	return &Token{
		address:    address,
		symbol:     symbol,
		decimals:   decimals,
		supply:     new(big.Int),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (t *Token) Address() common.Address { return t.address }

func (t *Token) Symbol() string { return t.symbol }

func (t *Token) Decimals(_ context.Context) (uint8, error) { return t.decimals, nil }

// Units scales a whole-token amount by the token decimals.
func (t *Token) Units(whole int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(t.decimals)), nil)
	return scale.Mul(scale, big.NewInt(whole))
}

func (t *Token) TotalSupply() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.supply)
}

func (t *Token) Mint(to common.Address, amount *big.Int) bool {
	if amount == nil || amount.Sign() <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.supply.Add(t.supply, amount)
	t.balance(to).Add(t.balance(to), amount)
	return true
}

func (t *Token) BalanceOf(_ context.Context, who common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balance(who)), nil
}

func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.allowance(owner, spender))
}

func (t *Token) Approve(owner, spender common.Address, amount *big.Int) bool {
	if amount == nil || amount.Sign() < 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.allowances[owner]; !ok {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Set(amount)
	return true
}

// Transfer moves amount from the caller to a recipient.
func (t *Token) Transfer(_ context.Context, from, to common.Address, amount *big.Int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount), nil
}

// TransferFrom moves amount on behalf of owner, spending the spender's
// allowance.
func (t *Token) TransferFrom(_ context.Context, spender, from, to common.Address, amount *big.Int) (bool, error) {
	if amount == nil || amount.Sign() < 0 {
		return false, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	allowed := t.allowance(from, spender)
	if allowed.Cmp(amount) < 0 {
		return false, nil
	}
	if !t.move(from, to, amount) {
		return false, nil
	}
	allowed.Sub(allowed, amount)
	return true, nil
}

func (t *Token) move(from, to common.Address, amount *big.Int) bool {
	if amount == nil || amount.Sign() < 0 {
		return false
	}
	src := t.balance(from)
	if src.Cmp(amount) < 0 {
		return false
	}
	src.Sub(src, amount)
	dst := t.balance(to)
	dst.Add(dst, amount)
	return true
}

func (t *Token) balance(who common.Address) *big.Int {
	bal, ok := t.balances[who]
	if !ok {
		bal = new(big.Int)
		t.balances[who] = bal
	}
	return bal
}

func (t *Token) allowance(owner, spender common.Address) *big.Int {
	byOwner, ok := t.allowances[owner]
	if !ok {
		byOwner = make(map[common.Address]*big.Int)
		t.allowances[owner] = byOwner
	}
	a, ok := byOwner[spender]
	if !ok {
		a = new(big.Int)
		byOwner[spender] = a
	}
	return a
}
