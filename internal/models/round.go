package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RoundState represents the state of the lottery round
type RoundState string

const (
	RoundStateOpen               RoundState = "OPEN"
	RoundStateAwaitingRandomness RoundState = "AWAITING_RANDOMNESS"
	RoundStateLocked             RoundState = "LOCKED"
)

// LotteryState is the full persisted state of one lottery instance.
// It is the engine snapshot written after every committed operation.
type LotteryState struct {
	Address          common.Address              `json:"address"`
	Manager          common.Address              `json:"manager"`
	Round            uint64                      `json:"round"`
	State            RoundState                  `json:"state"`
	TicketPrice      *big.Int                    `json:"ticketPrice"`
	MinimumAmount    *big.Int                    `json:"minimumAmount"`
	CallbackGasLimit uint32                      `json:"callbackGasLimit"`
	Players          []common.Address            `json:"players"`
	TotalPool        *big.Int                    `json:"totalPool"`
	PendingRequestID uint64                      `json:"pendingRequestId,omitempty"`
	HasPending       bool                        `json:"hasPending"`
	RecentWinner     common.Address              `json:"recentWinner"`
	Pending          map[common.Address]*big.Int `json:"pendingWithdrawals"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

// NewLotteryState creates an open round with an empty pool
func NewLotteryState(address, manager common.Address, ticketPrice, minimumAmount *big.Int, gasLimit uint32) *LotteryState {
	return &LotteryState{
		Address:          address,
		Manager:          manager,
		State:            RoundStateOpen,
		TicketPrice:      new(big.Int).Set(ticketPrice),
		MinimumAmount:    new(big.Int).Set(minimumAmount),
		CallbackGasLimit: gasLimit,
		Players:          []common.Address{},
		TotalPool:        new(big.Int),
		Pending:          make(map[common.Address]*big.Int),
	}
}

// Clone returns a deep copy so callers can never alias engine state
func (s *LotteryState) Clone() *LotteryState {
	c := *s
	c.TicketPrice = copyInt(s.TicketPrice)
	c.MinimumAmount = copyInt(s.MinimumAmount)
	c.TotalPool = copyInt(s.TotalPool)
	c.Players = append(make([]common.Address, 0, len(s.Players)), s.Players...)
	c.Pending = make(map[common.Address]*big.Int, len(s.Pending))
	for addr, amount := range s.Pending {
		c.Pending[addr] = copyInt(amount)
	}
	return &c
}

// TotalPending sums every ledger entry
func (s *LotteryState) TotalPending() *big.Int {
	total := new(big.Int)
	for _, amount := range s.Pending {
		total.Add(total, amount)
	}
	return total
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
