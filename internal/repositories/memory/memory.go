// Package memory holds repositories that live only as long as the process.
// They back tests and the memory storage driver.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"github.com/ethereum/go-ethereum/common"
)

func New() repositories.Repositories {
	return repositories.Repositories{
		State:    NewStateRepository(),
		Winners:  NewWinnerRepository(),
		Events:   NewEventRepository(),
		Accounts: NewAccountRepository(),
	}
}

type StateRepository struct {
	mu     sync.RWMutex
	states map[common.Address]*models.LotteryState
}

func NewStateRepository() *StateRepository {
	return &StateRepository{states: make(map[common.Address]*models.LotteryState)}
}

func (r *StateRepository) Load(_ context.Context, lottery common.Address) (*models.LotteryState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[lottery]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return s.Clone(), nil
}

func (r *StateRepository) Save(_ context.Context, state *models.LotteryState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.Address] = state.Clone()
	return nil
}

type WinnerRepository struct {
	mu      sync.RWMutex
	winners []*models.Winner
}

func NewWinnerRepository() *WinnerRepository {
	return &WinnerRepository{}
}

func (r *WinnerRepository) Create(_ context.Context, winner *models.Winner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := *winner
	r.winners = append(r.winners, &w)
	return nil
}

func (r *WinnerRepository) FindAll(_ context.Context, page, limit int) ([]*models.Winner, error) {
	return r.find(func(*models.Winner) bool { return true }, page, limit), nil
}

func (r *WinnerRepository) FindByAddress(_ context.Context, address common.Address, page, limit int) ([]*models.Winner, error) {
	return r.find(func(w *models.Winner) bool { return w.Address == address }, page, limit), nil
}

func (r *WinnerRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.winners)), nil
}

func (r *WinnerRepository) find(match func(*models.Winner) bool, page, limit int) []*models.Winner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Winner
	for i := len(r.winners) - 1; i >= 0; i-- {
		if match(r.winners[i]) {
			w := *r.winners[i]
			out = append(out, &w)
		}
	}
	return paginate(out, page, limit)
}

type EventRepository struct {
	mu     sync.RWMutex
	events []*models.Event
}

func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

func (r *EventRepository) CreateMany(_ context.Context, events []models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range events {
		ev := events[i]
		r.events = append(r.events, &ev)
	}
	return nil
}

func (r *EventRepository) FindAll(_ context.Context, page, limit int) ([]*models.Event, error) {
	return r.find(func(*models.Event) bool { return true }, page, limit), nil
}

func (r *EventRepository) FindByType(_ context.Context, eventType models.EventType, page, limit int) ([]*models.Event, error) {
	return r.find(func(ev *models.Event) bool { return ev.Type == eventType }, page, limit), nil
}

func (r *EventRepository) find(match func(*models.Event) bool, page, limit int) []*models.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Event
	for i := len(r.events) - 1; i >= 0; i-- {
		if match(r.events[i]) {
			ev := *r.events[i]
			out = append(out, &ev)
		}
	}
	return paginate(out, page, limit)
}

type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]*models.Account)}
}

func (r *AccountRepository) Create(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(account.Username)
	if _, ok := r.accounts[key]; ok {
		return repositories.ErrDuplicate
	}
	for _, a := range r.accounts {
		if a.Address == account.Address {
			return repositories.ErrDuplicate
		}
	}
	a := *account
	r.accounts[key] = &a
	return nil
}

func (r *AccountRepository) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[strings.ToLower(username)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (r *AccountRepository) FindByAddress(_ context.Context, address common.Address) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.Address == address {
			out := *a
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func paginate[T any](items []T, page, limit int) []T {
	start := repositories.Offset(page, limit)
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
