// Package lottery implements the raffle engine: players buy entries into a
// shared pool, the manager asks an external coordinator for randomness and
// the coordinator's callback resolves the round. Prizes are credited to a
// pull-payment ledger.
//
// Every mutating operation is all-or-nothing. Top-level calls are
// serialized by the engine mutex. Calls made from inside a transfer hook
// while an operation is in flight reuse the caller's context and run as
// nested frames: they see the in-flight state and are undone together
// with it.
package lottery

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

const (
	DefaultConfirmations    uint16 = 3
	DefaultCallbackGasLimit uint32 = 100000
	DefaultNumWords         uint32 = 1
	minPlayers                     = 2
)

// Options configures an engine. Address, Manager and Coordinator are fixed
// for the lifetime of the engine.
type Options struct {
	Address     common.Address
	Manager     common.Address
	Coordinator common.Address
	Policy      models.LotteryPolicy

	TicketPrice   *big.Int
	MinimumAmount *big.Int

	KeyHash                common.Hash
	SubscriptionID         uint64
	Confirmations          uint16
	CallbackGasLimit       uint32
	NumWords               uint32
	MinSubscriptionBalance *big.Int

	Now func() time.Time
}

// Commit is what a top-level operation changed.
type Commit struct {
	State   *models.LotteryState
	Events  []models.Event
	Winners []models.Winner
}

// CommitHook runs after every committed top-level operation, with the
// engine still locked. It must not call back into the engine.
type CommitHook func(ctx context.Context, c Commit)

// Engine runs one lottery. Mutating calls are serialized and all-or-nothing.
type Engine struct {
	opts        Options
	currency    CurrencyAdapter
	coordinator RandomnessCoordinator
	onCommit    CommitHook

	mu    sync.Mutex
	state *models.LotteryState
}

type frame struct {
	engine  *Engine
	events  []models.Event
	winners []models.Winner
}

type frameKey struct{}

// New builds an engine with a fresh open round.
func New(opts Options, currency CurrencyAdapter, coordinator RandomnessCoordinator) (*Engine, error) {
	if currency == nil {
		return nil, errors.New("currency adapter is required")
	}
	if coordinator == nil {
		return nil, errors.New("randomness coordinator is required")
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}
	if opts.Policy.Currency != currency.Kind() {
		return nil, fmt.Errorf("policy currency %q does not match adapter %q", opts.Policy.Currency, currency.Kind())
	}
	if opts.TicketPrice == nil || opts.TicketPrice.Sign() <= 0 {
		return nil, errors.New("ticket price must be positive")
	}
	if opts.MinimumAmount == nil {
		opts.MinimumAmount = new(big.Int).Set(opts.TicketPrice)
	}
	if opts.Confirmations == 0 {
		opts.Confirmations = DefaultConfirmations
	}
	if opts.CallbackGasLimit == 0 {
		opts.CallbackGasLimit = DefaultCallbackGasLimit
	}
	if opts.NumWords == 0 {
		opts.NumWords = DefaultNumWords
	}
	if opts.MinSubscriptionBalance == nil {
		opts.MinSubscriptionBalance = big.NewInt(1)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		opts:        opts,
		currency:    currency,
		coordinator: coordinator,
		state:       models.NewLotteryState(opts.Address, opts.Manager, opts.TicketPrice, opts.MinimumAmount, opts.CallbackGasLimit),
	}, nil
}

// OnCommit installs the commit hook.
func (e *Engine) OnCommit(hook CommitHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onCommit = hook
}

// Restore replaces the engine state with a persisted snapshot.
func (e *Engine) Restore(s *models.LotteryState) error {
	if s == nil {
		return errors.New("nil state")
	}
	if s.Address != e.opts.Address || s.Manager != e.opts.Manager {
		return fmt.Errorf("snapshot belongs to lottery %s managed by %s", s.Address.Hex(), s.Manager.Hex())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s.Clone()
	return nil
}

// Address is the engine account that holds the pool.
func (e *Engine) Address() common.Address { return e.opts.Address }

// Policy is the currency, entry, payout and selection policy in force.
func (e *Engine) Policy() models.LotteryPolicy { return e.opts.Policy }

// exec runs fn as one all-or-nothing operation. On any error the state is
// put back to what it was when fn started.
func (e *Engine) exec(ctx context.Context, fn func(ctx context.Context, f *frame) error) error {
	if parent := e.frameOf(ctx); parent != nil {
		child := &frame{engine: e}
		checkpoint := e.state.Clone()
		if err := fn(context.WithValue(ctx, frameKey{}, child), child); err != nil {
			*e.state = *checkpoint
			return err
		}
		parent.events = append(parent.events, child.events...)
		parent.winners = append(parent.winners, child.winners...)
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	f := &frame{engine: e}
	checkpoint := e.state.Clone()
	if err := fn(context.WithValue(ctx, frameKey{}, f), f); err != nil {
		*e.state = *checkpoint
		return err
	}
	e.state.UpdatedAt = e.opts.Now()
	if e.onCommit != nil {
		e.onCommit(ctx, Commit{State: e.state.Clone(), Events: f.events, Winners: f.winners})
	}
	return nil
}

// interact runs an outward call. If it fails, whatever nested frames did
// during the call is undone, the caller's own effects are kept.
func (e *Engine) interact(ctx context.Context, f *frame, call func(ctx context.Context) error) error {
	checkpoint := e.state.Clone()
	events, winners := len(f.events), len(f.winners)
	if err := call(ctx); err != nil {
		*e.state = *checkpoint
		f.events = f.events[:events]
		f.winners = f.winners[:winners]
		return err
	}
	return nil
}

func (e *Engine) frameOf(ctx context.Context) *frame {
	if f, ok := ctx.Value(frameKey{}).(*frame); ok && f.engine == e {
		return f
	}
	return nil
}

// read locks the engine for a view unless called from inside an operation.
func (e *Engine) read(ctx context.Context) func() {
	if e.frameOf(ctx) != nil {
		return func() {}
	}
	e.mu.Lock()
	return e.mu.Unlock
}

func (f *frame) emit(now time.Time, ev models.Event) {
	ev.ID = uuid.NewString()
	ev.CreatedAt = now
	f.events = append(f.events, ev)
}
