package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PayoutMode tells how a resolved prize leaves the engine
type PayoutMode string

const (
	PayoutImmediate PayoutMode = "IMMEDIATE"
	PayoutPull      PayoutMode = "PULL"
	PayoutLocked    PayoutMode = "LOCKED"
)

// Winner represents the resolution of one round
type Winner struct {
	Round      uint64         `json:"round"`
	Address    common.Address `json:"address"`
	Prize      *big.Int       `json:"prize"`
	Players    int            `json:"players"`
	RequestID  uint64         `json:"requestId"`
	RandomWord *big.Int       `json:"randomWord"`
	Payout     PayoutMode     `json:"payout"`
	PaidOut    bool           `json:"paidOut"` // true when the prize left the engine during resolution
	WinDate    time.Time      `json:"winDate"`
}
