package services

import (
	"context"
	"errors"
	"math/big"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/vrf"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrUnknownToken       = errors.New("unknown token")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrTokenTransfer      = errors.New("token transfer failed")
	ErrFaucetLimit        = errors.New("faucet amount above limit")
)

// LotteryService defines the interface for lottery operations
type LotteryService interface {
	// Enter buys one entry for player with payment in base units
	Enter(ctx context.Context, player common.Address, payment *big.Int) error

	// PickWinner closes the round and returns the randomness request id
	PickWinner(ctx context.Context, caller common.Address) (uint64, error)

	// WithdrawPrize pays the caller's ledger entry out
	WithdrawPrize(ctx context.Context, caller common.Address) (*big.Int, error)

	SetGasLimit(ctx context.Context, caller common.Address, limit uint32) error
	SetLotteryTicket(ctx context.Context, caller common.Address, amount *big.Int) error

	GetState(ctx context.Context) *models.LotteryState
	GetPlayers(ctx context.Context) []common.Address
	Manager() common.Address
	RecentWinner(ctx context.Context) common.Address
	LotteryTicket(ctx context.Context) *big.Int
	TotalPlayerFunds(ctx context.Context) *big.Int
	PendingWithdrawals(ctx context.Context, who common.Address) *big.Int
	Holdings(ctx context.Context) (*big.Int, error)
	Policy() models.LotteryPolicy

	// GetDecimals reads the precision of a known token. A nil token means
	// the lottery currency.
	GetDecimals(ctx context.Context, token *common.Address) (uint8, error)

	// GetWinners lists resolved rounds, newest first, with the total count
	GetWinners(ctx context.Context, page, limit int) ([]*models.Winner, int64, error)
	GetWinnersByAddress(ctx context.Context, address common.Address, page, limit int) ([]*models.Winner, error)

	// GetEvents lists the audit log, newest first. An empty type lists all.
	GetEvents(ctx context.Context, eventType models.EventType, page, limit int) ([]*models.Event, error)
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
}

// WalletService moves native value and tokens between accounts
type WalletService interface {
	Faucet(ctx context.Context, to common.Address, amount *big.Int) error
	Balance(ctx context.Context, who common.Address) (*models.Balance, error)
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	MintTokens(ctx context.Context, to common.Address, amount *big.Int) error
	TransferTokens(ctx context.Context, from, to common.Address, amount *big.Int) error
	ApproveTokens(ctx context.Context, owner, spender common.Address, amount *big.Int) error
	Allowance(ctx context.Context, owner, spender common.Address) *big.Int
	TokenDecimals(ctx context.Context) (uint8, error)
}

// CoordinatorService manages randomness subscriptions and requests
type CoordinatorService interface {
	KeyHash() common.Hash
	SubscriptionID() uint64
	GetSubscription(ctx context.Context, id uint64) (vrf.Subscription, error)
	CreateSubscription(ctx context.Context, owner common.Address) uint64
	FundSubscription(ctx context.Context, id uint64, amount *big.Int) error
	AddConsumer(ctx context.Context, caller common.Address, id uint64, consumer common.Address) error
	RemoveConsumer(ctx context.Context, caller common.Address, id uint64, consumer common.Address) error
	PendingRequests(ctx context.Context) []vrf.Request

	// Fulfill answers one pending request with the local oracle
	Fulfill(ctx context.Context, requestID uint64) (*vrf.Fulfillment, error)

	// FulfillReady answers every request that has waited long enough
	FulfillReady(ctx context.Context) ([]*vrf.Fulfillment, error)
}
