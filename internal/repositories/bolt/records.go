package bolt

import (
	"math/big"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/utils"
	"github.com/ethereum/go-ethereum/common"
)

// Records are protobuf encoded. Amounts are decimal strings and
// addresses are hex.

type pendingRecord struct {
	Address string
	Amount  string
}

type stateRecord struct {
	Address          string
	Manager          string
	Round            uint64
	State            string
	TicketPrice      string
	MinimumAmount    string
	CallbackGasLimit uint32
	Players          []string
	TotalPool        string
	PendingRequestID uint64
	HasPending       bool
	RecentWinner     string
	Pending          []pendingRecord
	UpdatedAt        time.Time
}

type winnerRecord struct {
	Round      uint64
	Address    string
	Prize      string
	Players    uint64
	RequestID  uint64
	RandomWord string
	Payout     string
	PaidOut    bool
	WinDate    time.Time
}

type eventRecord struct {
	ID        string
	Type      string
	Round     uint64
	Address   string
	Amount    string
	RequestID uint64
	Value     uint64
	CreatedAt time.Time
}

type accountRecord struct {
	Username  string
	Password  string
	Address   string
	CreatedAt time.Time
}

func toStateRecord(s *models.LotteryState) *stateRecord {
	r := &stateRecord{
		Address:          s.Address.Hex(),
		Manager:          s.Manager.Hex(),
		Round:            s.Round,
		State:            string(s.State),
		TicketPrice:      amount(s.TicketPrice),
		MinimumAmount:    amount(s.MinimumAmount),
		CallbackGasLimit: s.CallbackGasLimit,
		TotalPool:        amount(s.TotalPool),
		PendingRequestID: s.PendingRequestID,
		HasPending:       s.HasPending,
		RecentWinner:     s.RecentWinner.Hex(),
		UpdatedAt:        s.UpdatedAt,
	}
	for _, p := range s.Players {
		r.Players = append(r.Players, p.Hex())
	}
	for addr, owed := range s.Pending {
		r.Pending = append(r.Pending, pendingRecord{Address: addr.Hex(), Amount: owed.String()})
	}
	return r
}

func (r *stateRecord) model() (*models.LotteryState, error) {
	s := &models.LotteryState{
		Address:          common.HexToAddress(r.Address),
		Manager:          common.HexToAddress(r.Manager),
		Round:            r.Round,
		State:            models.RoundState(r.State),
		CallbackGasLimit: r.CallbackGasLimit,
		Players:          make([]common.Address, 0, len(r.Players)),
		PendingRequestID: r.PendingRequestID,
		HasPending:       r.HasPending,
		RecentWinner:     common.HexToAddress(r.RecentWinner),
		Pending:          make(map[common.Address]*big.Int, len(r.Pending)),
		UpdatedAt:        r.UpdatedAt,
	}
	var err error
	if s.TicketPrice, err = utils.ParseBaseUnits(r.TicketPrice); err != nil {
		return nil, err
	}
	if s.MinimumAmount, err = utils.ParseBaseUnits(r.MinimumAmount); err != nil {
		return nil, err
	}
	if s.TotalPool, err = utils.ParseBaseUnits(r.TotalPool); err != nil {
		return nil, err
	}
	for _, p := range r.Players {
		s.Players = append(s.Players, common.HexToAddress(p))
	}
	for _, p := range r.Pending {
		owed, err := utils.ParseBaseUnits(p.Amount)
		if err != nil {
			return nil, err
		}
		s.Pending[common.HexToAddress(p.Address)] = owed
	}
	return s, nil
}

func toWinnerRecord(w *models.Winner) *winnerRecord {
	return &winnerRecord{
		Round:      w.Round,
		Address:    w.Address.Hex(),
		Prize:      amount(w.Prize),
		Players:    uint64(w.Players),
		RequestID:  w.RequestID,
		RandomWord: amount(w.RandomWord),
		Payout:     string(w.Payout),
		PaidOut:    w.PaidOut,
		WinDate:    w.WinDate,
	}
}

func (r *winnerRecord) model() (*models.Winner, error) {
	prize, err := utils.ParseBaseUnits(r.Prize)
	if err != nil {
		return nil, err
	}
	word, err := utils.ParseBaseUnits(r.RandomWord)
	if err != nil {
		return nil, err
	}
	return &models.Winner{
		Round:      r.Round,
		Address:    common.HexToAddress(r.Address),
		Prize:      prize,
		Players:    int(r.Players),
		RequestID:  r.RequestID,
		RandomWord: word,
		Payout:     models.PayoutMode(r.Payout),
		PaidOut:    r.PaidOut,
		WinDate:    r.WinDate,
	}, nil
}

func toEventRecord(ev *models.Event) *eventRecord {
	r := &eventRecord{
		ID:        ev.ID,
		Type:      string(ev.Type),
		Round:     ev.Round,
		Address:   ev.Address.Hex(),
		RequestID: ev.RequestID,
		Value:     ev.Value,
		CreatedAt: ev.CreatedAt,
	}
	if ev.Amount != nil {
		r.Amount = ev.Amount.String()
	}
	return r
}

func (r *eventRecord) model() (*models.Event, error) {
	ev := &models.Event{
		ID:        r.ID,
		Type:      models.EventType(r.Type),
		Round:     r.Round,
		Address:   common.HexToAddress(r.Address),
		RequestID: r.RequestID,
		Value:     r.Value,
		CreatedAt: r.CreatedAt,
	}
	if r.Amount != "" {
		v, err := utils.ParseBaseUnits(r.Amount)
		if err != nil {
			return nil, err
		}
		ev.Amount = v
	}
	return ev, nil
}

func toAccountRecord(a *models.Account) *accountRecord {
	return &accountRecord{
		Username:  a.Username,
		Password:  a.Password,
		Address:   a.Address.Hex(),
		CreatedAt: a.CreatedAt,
	}
}

func (r *accountRecord) model() *models.Account {
	return &models.Account{
		Username:  r.Username,
		Password:  r.Password,
		Address:   common.HexToAddress(r.Address),
		CreatedAt: r.CreatedAt,
	}
}

func amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
