package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type EventType string

const (
	EventEntered             EventType = "ENTERED"
	EventRandomnessRequested EventType = "RANDOMNESS_REQUESTED"
	EventWinnerPicked        EventType = "WINNER_PICKED"
	EventPrizePaid           EventType = "PRIZE_PAID"
	EventPayoutFailed        EventType = "PAYOUT_FAILED"
	EventPrizeWithdrawn      EventType = "PRIZE_WITHDRAWN"
	EventGasLimitChanged     EventType = "GAS_LIMIT_CHANGED"
	EventTicketPriceChanged  EventType = "TICKET_PRICE_CHANGED"
)

// Event is one entry of the lottery audit log
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Round     uint64         `json:"round"`
	Address   common.Address `json:"address"`
	Amount    *big.Int       `json:"amount,omitempty"`
	RequestID uint64         `json:"requestId,omitempty"`
	Value     uint64         `json:"value,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
