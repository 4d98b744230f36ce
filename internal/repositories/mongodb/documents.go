package mongodb

import (
	"math/big"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/utils"
	"github.com/ethereum/go-ethereum/common"
)

// Documents keep addresses as hex strings and amounts as decimal strings
// so values above 2^63 survive the round trip.

type stateDocument struct {
	Address          string            `bson:"_id"`
	Manager          string            `bson:"manager"`
	Round            int64             `bson:"round"`
	State            string            `bson:"state"`
	TicketPrice      string            `bson:"ticketPrice"`
	MinimumAmount    string            `bson:"minimumAmount"`
	CallbackGasLimit int64             `bson:"callbackGasLimit"`
	Players          []string          `bson:"players"`
	TotalPool        string            `bson:"totalPool"`
	PendingRequestID int64             `bson:"pendingRequestId"`
	HasPending       bool              `bson:"hasPending"`
	RecentWinner     string            `bson:"recentWinner"`
	Pending          map[string]string `bson:"pendingWithdrawals"`
	UpdatedAt        time.Time         `bson:"updatedAt"`
}

type winnerDocument struct {
	Round      int64     `bson:"round"`
	Address    string    `bson:"address"`
	Prize      string    `bson:"prize"`
	Players    int       `bson:"players"`
	RequestID  int64     `bson:"requestId"`
	RandomWord string    `bson:"randomWord"`
	Payout     string    `bson:"payout"`
	PaidOut    bool      `bson:"paidOut"`
	WinDate    time.Time `bson:"winDate"`
}

type eventDocument struct {
	ID        string    `bson:"_id"`
	Type      string    `bson:"type"`
	Round     int64     `bson:"round"`
	Address   string    `bson:"address"`
	Amount    string    `bson:"amount,omitempty"`
	RequestID int64     `bson:"requestId,omitempty"`
	Value     int64     `bson:"value,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

type accountDocument struct {
	ID        string    `bson:"_id"` // lower-cased username
	Username  string    `bson:"username"`
	Password  string    `bson:"password"`
	Address   string    `bson:"address"`
	CreatedAt time.Time `bson:"createdAt"`
}

func newStateDocument(s *models.LotteryState) *stateDocument {
	doc := &stateDocument{
		Address:          s.Address.Hex(),
		Manager:          s.Manager.Hex(),
		Round:            int64(s.Round),
		State:            string(s.State),
		TicketPrice:      s.TicketPrice.String(),
		MinimumAmount:    s.MinimumAmount.String(),
		CallbackGasLimit: int64(s.CallbackGasLimit),
		Players:          make([]string, 0, len(s.Players)),
		TotalPool:        s.TotalPool.String(),
		PendingRequestID: int64(s.PendingRequestID),
		HasPending:       s.HasPending,
		RecentWinner:     s.RecentWinner.Hex(),
		Pending:          make(map[string]string, len(s.Pending)),
		UpdatedAt:        s.UpdatedAt,
	}
	for _, p := range s.Players {
		doc.Players = append(doc.Players, p.Hex())
	}
	for addr, owed := range s.Pending {
		doc.Pending[addr.Hex()] = owed.String()
	}
	return doc
}

func (d *stateDocument) model() (*models.LotteryState, error) {
	s := &models.LotteryState{
		Address:          common.HexToAddress(d.Address),
		Manager:          common.HexToAddress(d.Manager),
		Round:            uint64(d.Round),
		State:            models.RoundState(d.State),
		CallbackGasLimit: uint32(d.CallbackGasLimit),
		Players:          make([]common.Address, 0, len(d.Players)),
		PendingRequestID: uint64(d.PendingRequestID),
		HasPending:       d.HasPending,
		RecentWinner:     common.HexToAddress(d.RecentWinner),
		Pending:          make(map[common.Address]*big.Int, len(d.Pending)),
		UpdatedAt:        d.UpdatedAt,
	}
	var err error
	if s.TicketPrice, err = utils.ParseBaseUnits(d.TicketPrice); err != nil {
		return nil, err
	}
	if s.MinimumAmount, err = utils.ParseBaseUnits(d.MinimumAmount); err != nil {
		return nil, err
	}
	if s.TotalPool, err = utils.ParseBaseUnits(d.TotalPool); err != nil {
		return nil, err
	}
	for _, p := range d.Players {
		s.Players = append(s.Players, common.HexToAddress(p))
	}
	for addr, owed := range d.Pending {
		v, err := utils.ParseBaseUnits(owed)
		if err != nil {
			return nil, err
		}
		s.Pending[common.HexToAddress(addr)] = v
	}
	return s, nil
}

func newWinnerDocument(w *models.Winner) *winnerDocument {
	doc := &winnerDocument{
		Round:     int64(w.Round),
		Address:   w.Address.Hex(),
		Prize:     w.Prize.String(),
		Players:   w.Players,
		RequestID: int64(w.RequestID),
		Payout:    string(w.Payout),
		PaidOut:   w.PaidOut,
		WinDate:   w.WinDate,
	}
	if w.RandomWord != nil {
		doc.RandomWord = w.RandomWord.String()
	}
	return doc
}

func (d *winnerDocument) model() (*models.Winner, error) {
	prize, err := utils.ParseBaseUnits(d.Prize)
	if err != nil {
		return nil, err
	}
	word, err := utils.ParseBaseUnits(d.RandomWord)
	if err != nil {
		return nil, err
	}
	return &models.Winner{
		Round:      uint64(d.Round),
		Address:    common.HexToAddress(d.Address),
		Prize:      prize,
		Players:    d.Players,
		RequestID:  uint64(d.RequestID),
		RandomWord: word,
		Payout:     models.PayoutMode(d.Payout),
		PaidOut:    d.PaidOut,
		WinDate:    d.WinDate,
	}, nil
}

func newEventDocument(ev *models.Event) *eventDocument {
	doc := &eventDocument{
		ID:        ev.ID,
		Type:      string(ev.Type),
		Round:     int64(ev.Round),
		Address:   ev.Address.Hex(),
		RequestID: int64(ev.RequestID),
		Value:     int64(ev.Value),
		CreatedAt: ev.CreatedAt,
	}
	if ev.Amount != nil {
		doc.Amount = ev.Amount.String()
	}
	return doc
}

func (d *eventDocument) model() (*models.Event, error) {
	ev := &models.Event{
		ID:        d.ID,
		Type:      models.EventType(d.Type),
		Round:     uint64(d.Round),
		Address:   common.HexToAddress(d.Address),
		RequestID: uint64(d.RequestID),
		Value:     uint64(d.Value),
		CreatedAt: d.CreatedAt,
	}
	if d.Amount != "" {
		v, err := utils.ParseBaseUnits(d.Amount)
		if err != nil {
			return nil, err
		}
		ev.Amount = v
	}
	return ev, nil
}
