package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ArowuTest/bridgetunes-raffle/internal/bank"
	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/token"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

type walletService struct {
	bank      *bank.Bank
	token     *token.Token
	faucetCap *big.Int
}

// NewWalletService serves the native bank and the token. faucetCap bounds
// a single faucet deposit or mint; nil means no bound.
func NewWalletService(b *bank.Bank, t *token.Token, faucetCap *big.Int) WalletService {
	return &walletService{bank: b, token: t, faucetCap: faucetCap}
}

func (s *walletService) checkCap(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if s.faucetCap != nil && amount.Cmp(s.faucetCap) > 0 {
		return fmt.Errorf("%w: %s", ErrFaucetLimit, s.faucetCap)
	}
	return nil
}

// Faucet deposits native value out of thin air
func (s *walletService) Faucet(_ context.Context, to common.Address, amount *big.Int) error {
	if err := s.checkCap(amount); err != nil {
		return err
	}
	if err := s.bank.Deposit(to, amount); err != nil {
		return fmt.Errorf("faucet: %w", err)
	}
	log.WithFields(log.Fields{"to": to.Hex(), "amount": amount.String()}).Info("faucet deposit")
	return nil
}

func (s *walletService) Balance(ctx context.Context, who common.Address) (*models.Balance, error) {
	tokens, err := s.token.BalanceOf(ctx, who)
	if err != nil {
		return nil, err
	}
	return &models.Balance{
		Address:     who,
		Native:      s.bank.BalanceOf(who),
		Token:       tokens,
		TokenSymbol: s.token.Symbol(),
	}, nil
}

// Transfer sends native value. The recipient's receive hook runs, so
// sending to the lottery account is rejected.
func (s *walletService) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := s.bank.Transfer(ctx, from, to, amount); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	return nil
}

func (s *walletService) MintTokens(_ context.Context, to common.Address, amount *big.Int) error {
	if err := s.checkCap(amount); err != nil {
		return err
	}
	if !s.token.Mint(to, amount) {
		return ErrTokenTransfer
	}
	log.WithFields(log.Fields{
		"to":     to.Hex(),
		"amount": amount.String(),
		"symbol": s.token.Symbol(),
	}).Info("tokens minted")
	return nil
}

func (s *walletService) TransferTokens(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	ok, err := s.token.Transfer(ctx, from, to, amount)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenTransfer, err)
	}
	if !ok {
		return ErrTokenTransfer
	}
	return nil
}

func (s *walletService) ApproveTokens(_ context.Context, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if !s.token.Approve(owner, spender, amount) {
		return ErrTokenTransfer
	}
	return nil
}

func (s *walletService) Allowance(_ context.Context, owner, spender common.Address) *big.Int {
	return s.token.Allowance(owner, spender)
}

func (s *walletService) TokenDecimals(ctx context.Context) (uint8, error) {
	return s.token.Decimals(ctx)
}
