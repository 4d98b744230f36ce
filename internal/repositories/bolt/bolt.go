// Package bolt stores the lottery in a single bbolt file for single node
// deployments.
package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/protobuf"
	bolt "go.etcd.io/bbolt"
)

var (
	stateBucket     = []byte("state")
	winnerBucket    = []byte("winners")
	eventBucket     = []byte("events")
	accountBucket   = []byte("accounts")
	addressesBucket = []byte("account_addresses")
)

type Store struct {
	db *bolt.DB
}

// Open opens or creates the database file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{stateBucket, winnerBucket, eventBucket, accountBucket, addressesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Repositories() repositories.Repositories {
	return repositories.Repositories{
		State:    &StateRepository{db: s.db},
		Winners:  &WinnerRepository{db: s.db},
		Events:   &EventRepository{db: s.db},
		Accounts: &AccountRepository{db: s.db},
	}
}

type StateRepository struct {
	db *bolt.DB
}

func (r *StateRepository) Load(_ context.Context, lottery common.Address) (*models.LotteryState, error) {
	var rec stateRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		buf := tx.Bucket(stateBucket).Get(lottery.Bytes())
		if buf == nil {
			return repositories.ErrNotFound
		}
		return protobuf.Decode(buf, &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec.model()
}

func (r *StateRepository) Save(_ context.Context, state *models.LotteryState) error {
	buf, err := protobuf.Encode(toStateRecord(state))
	if err != nil {
		return fmt.Errorf("couldn't encode state: %w", err)
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Put(state.Address.Bytes(), buf)
	})
}

type WinnerRepository struct {
	db *bolt.DB
}

func (r *WinnerRepository) Create(_ context.Context, winner *models.Winner) error {
	buf, err := protobuf.Encode(toWinnerRecord(winner))
	if err != nil {
		return fmt.Errorf("couldn't encode winner: %w", err)
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return appendRecord(tx.Bucket(winnerBucket), buf)
	})
}

func (r *WinnerRepository) FindAll(_ context.Context, page, limit int) ([]*models.Winner, error) {
	return r.find(func(*winnerRecord) bool { return true }, page, limit)
}

func (r *WinnerRepository) FindByAddress(_ context.Context, address common.Address, page, limit int) ([]*models.Winner, error) {
	want := address.Hex()
	return r.find(func(rec *winnerRecord) bool { return rec.Address == want }, page, limit)
}

func (r *WinnerRepository) Count(_ context.Context) (int64, error) {
	var n int
	err := r.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(winnerBucket).Stats().KeyN
		return nil
	})
	return int64(n), err
}

func (r *WinnerRepository) find(match func(*winnerRecord) bool, page, limit int) ([]*models.Winner, error) {
	var winners []*models.Winner
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		winners, err = newestFirst(tx.Bucket(winnerBucket), page, limit, match, (*winnerRecord).model)
		return err
	})
	return winners, err
}

type EventRepository struct {
	db *bolt.DB
}

func (r *EventRepository) CreateMany(_ context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	bufs := make([][]byte, 0, len(events))
	for i := range events {
		buf, err := protobuf.Encode(toEventRecord(&events[i]))
		if err != nil {
			return fmt.Errorf("couldn't encode event: %w", err)
		}
		bufs = append(bufs, buf)
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(eventBucket)
		for _, buf := range bufs {
			if err := appendRecord(b, buf); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *EventRepository) FindAll(_ context.Context, page, limit int) ([]*models.Event, error) {
	return r.find(func(*eventRecord) bool { return true }, page, limit)
}

func (r *EventRepository) FindByType(_ context.Context, eventType models.EventType, page, limit int) ([]*models.Event, error) {
	return r.find(func(rec *eventRecord) bool { return rec.Type == string(eventType) }, page, limit)
}

func (r *EventRepository) find(match func(*eventRecord) bool, page, limit int) ([]*models.Event, error) {
	var events []*models.Event
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		events, err = newestFirst(tx.Bucket(eventBucket), page, limit, match, (*eventRecord).model)
		return err
	})
	return events, err
}

type AccountRepository struct {
	db *bolt.DB
}

func (r *AccountRepository) Create(_ context.Context, account *models.Account) error {
	buf, err := protobuf.Encode(toAccountRecord(account))
	if err != nil {
		return fmt.Errorf("couldn't encode account: %w", err)
	}
	key := []byte(strings.ToLower(account.Username))
	return r.db.Update(func(tx *bolt.Tx) error {
		accounts, addresses := tx.Bucket(accountBucket), tx.Bucket(addressesBucket)
		if accounts.Get(key) != nil || addresses.Get(account.Address.Bytes()) != nil {
			return repositories.ErrDuplicate
		}
		if err := accounts.Put(key, buf); err != nil {
			return err
		}
		return addresses.Put(account.Address.Bytes(), key)
	})
}

func (r *AccountRepository) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	return r.load(func(tx *bolt.Tx) []byte {
		return tx.Bucket(accountBucket).Get([]byte(strings.ToLower(username)))
	})
}

func (r *AccountRepository) FindByAddress(_ context.Context, address common.Address) (*models.Account, error) {
	return r.load(func(tx *bolt.Tx) []byte {
		key := tx.Bucket(addressesBucket).Get(address.Bytes())
		if key == nil {
			return nil
		}
		return tx.Bucket(accountBucket).Get(key)
	})
}

func (r *AccountRepository) load(get func(tx *bolt.Tx) []byte) (*models.Account, error) {
	var rec accountRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		buf := get(tx)
		if buf == nil {
			return repositories.ErrNotFound
		}
		return protobuf.Decode(buf, &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec.model(), nil
}

func appendRecord(b *bolt.Bucket, buf []byte) error {
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)
	return b.Put(key[:], buf)
}

// newestFirst decodes the records of b from the last key backwards and
// returns one page of those that match.
func newestFirst[R, M any](b *bolt.Bucket, page, limit int, match func(*R) bool, model func(*R) (M, error)) ([]M, error) {
	out := []M{}
	skip := repositories.Offset(page, limit)
	c := b.Cursor()
	for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
		rec := new(R)
		if err := protobuf.Decode(v, rec); err != nil {
			return nil, err
		}
		if !match(rec) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		m, err := model(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
