package repositories

import (
	"context"
	"errors"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// StateRepository keeps the latest engine snapshot of each lottery
type StateRepository interface {
	Load(ctx context.Context, lottery common.Address) (*models.LotteryState, error)
	Save(ctx context.Context, state *models.LotteryState) error
}

// WinnerRepository defines the interface for winner data operations.
// Listings are newest first.
type WinnerRepository interface {
	Create(ctx context.Context, winner *models.Winner) error
	FindAll(ctx context.Context, page, limit int) ([]*models.Winner, error)
	FindByAddress(ctx context.Context, address common.Address, page, limit int) ([]*models.Winner, error)
	Count(ctx context.Context) (int64, error)
}

// EventRepository is the append-only audit log
type EventRepository interface {
	CreateMany(ctx context.Context, events []models.Event) error
	FindAll(ctx context.Context, page, limit int) ([]*models.Event, error)
	FindByType(ctx context.Context, eventType models.EventType, page, limit int) ([]*models.Event, error)
}

// AccountRepository defines the interface for login accounts
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindByAddress(ctx context.Context, address common.Address) (*models.Account, error)
}

// Repositories groups one storage backend
type Repositories struct {
	State    StateRepository
	Winners  WinnerRepository
	Events   EventRepository
	Accounts AccountRepository
}

// Offset turns a 1-based page into the number of records to skip
func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
