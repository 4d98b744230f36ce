// Package vrf is a local verifiable randomness service. Consumers open
// requests against a subscription; an oracle answers each request with a
// BLS signature over the request seed, the coordinator checks the
// signature, derives the random words from it and calls the consumer back
// exactly once.
package vrf

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/sign/bls"
)

const (
	DefaultMaxGasLimit      uint32 = 2_500_000
	DefaultMaxNumWords      uint32 = 500
	DefaultMaxConfirmations uint16 = 200
)

var (
	ErrUnknownSubscription = errors.New("unknown subscription")
	ErrNotOwner            = errors.New("only the subscription owner can do this")
	ErrInvalidConsumer     = errors.New("consumer is not registered on the subscription")
	ErrUnknownKeyHash      = errors.New("unknown proving key")
	ErrInvalidRequest      = errors.New("invalid randomness request")
	ErrUnknownRequest      = errors.New("no pending request with this id")
	ErrInvalidProof        = errors.New("invalid randomness proof")
	ErrInsufficientBalance = errors.New("insufficient subscription balance")
	ErrNoCallback          = errors.New("no callback bound for consumer")
)

// Consumer receives fulfilled random words.
type Consumer interface {
	RawFulfillRandomWords(ctx context.Context, caller common.Address, requestID uint64, words []*big.Int) error
}

// Config sets the coordinator limits. Address is the caller identity
// consumers see on callbacks and FeePerRequest is charged to the
// subscription on fulfillment.
type Config struct {
	Address          common.Address
	MaxGasLimit      uint32
	MaxNumWords      uint32
	MaxConfirmations uint16
	FeePerRequest    *big.Int
	Now              func() time.Time
}

type Subscription struct {
	ID        uint64           `json:"id"`
	Owner     common.Address   `json:"owner"`
	Balance   *big.Int         `json:"balance"`
	Consumers []common.Address `json:"consumers"`
	Requests  uint64           `json:"requests"`
}

type Request struct {
	ID               uint64         `json:"id"`
	Consumer         common.Address `json:"consumer"`
	SubID            uint64         `json:"subId"`
	KeyHash          common.Hash    `json:"keyHash"`
	Confirmations    uint16         `json:"confirmations"`
	CallbackGasLimit uint32         `json:"callbackGasLimit"`
	NumWords         uint32         `json:"numWords"`
	Seed             common.Hash    `json:"seed"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// Fulfillment is the outcome of delivering one request.
type Fulfillment struct {
	RequestID   uint64         `json:"requestId"`
	Consumer    common.Address `json:"consumer"`
	Words       []*big.Int     `json:"words"`
	Payment     *big.Int       `json:"payment"`
	Success     bool           `json:"success"`
	Error       string         `json:"error,omitempty"`
	FulfilledAt time.Time      `json:"fulfilledAt"`
}

type Coordinator struct {
	cfg Config

	mu        sync.Mutex
	keys      map[common.Hash]kyber.Point
	subs      map[uint64]*Subscription
	callbacks map[common.Address]Consumer
	requests  map[uint64]*Request
	nonces    map[common.Address]uint64
	lastSub   uint64
	lastReq   uint64
}

func NewCoordinator(cfg Config) *Coordinator {
	if cfg.MaxGasLimit == 0 {
		cfg.MaxGasLimit = DefaultMaxGasLimit
	}
	if cfg.MaxNumWords == 0 {
		cfg.MaxNumWords = DefaultMaxNumWords
	}
	if cfg.MaxConfirmations == 0 {
		cfg.MaxConfirmations = DefaultMaxConfirmations
	}
	if cfg.FeePerRequest == nil {
		cfg.FeePerRequest = new(big.Int)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Coordinator{
		cfg:       cfg,
		keys:      make(map[common.Hash]kyber.Point),
		subs:      make(map[uint64]*Subscription),
		callbacks: make(map[common.Address]Consumer),
		requests:  make(map[uint64]*Request),
		nonces:    make(map[common.Address]uint64),
	}
}

func (c *Coordinator) Address() common.Address { return c.cfg.Address }

// RegisterProvingKey accepts a marshalled BLS public key and returns its
// key hash.
func (c *Coordinator) RegisterProvingKey(publicKey []byte) (common.Hash, error) {
	point, err := unmarshalKey(publicKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	hash := KeyHash(publicKey)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[hash] = point
	return hash, nil
}

// BindConsumer routes callbacks for addr to consumer.
func (c *Coordinator) BindConsumer(addr common.Address, consumer Consumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks[addr] = consumer
}

func (c *Coordinator) CreateSubscription(owner common.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSub++
	c.subs[c.lastSub] = &Subscription{ID: c.lastSub, Owner: owner, Balance: new(big.Int)}
	return c.lastSub
}

func (c *Coordinator) FundSubscription(subID uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: funding must be positive", ErrInvalidRequest)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[subID]
	if !ok {
		return ErrUnknownSubscription
	}
	sub.Balance.Add(sub.Balance, amount)
	return nil
}

func (c *Coordinator) AddConsumer(caller common.Address, subID uint64, consumer common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, err := c.ownedSub(caller, subID)
	if err != nil {
		return err
	}
	for _, existing := range sub.Consumers {
		if existing == consumer {
			return nil
		}
	}
	sub.Consumers = append(sub.Consumers, consumer)
	return nil
}

func (c *Coordinator) RemoveConsumer(caller common.Address, subID uint64, consumer common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, err := c.ownedSub(caller, subID)
	if err != nil {
		return err
	}
	for i, existing := range sub.Consumers {
		if existing == consumer {
			sub.Consumers = append(sub.Consumers[:i], sub.Consumers[i+1:]...)
			return nil
		}
	}
	return ErrInvalidConsumer
}

func (c *Coordinator) GetSubscription(_ context.Context, subID uint64) (Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[subID]
	if !ok {
		return Subscription{}, ErrUnknownSubscription
	}
	return Subscription{
		ID:        sub.ID,
		Owner:     sub.Owner,
		Balance:   new(big.Int).Set(sub.Balance),
		Consumers: append([]common.Address(nil), sub.Consumers...),
		Requests:  sub.Requests,
	}, nil
}

// SubscriptionBalance is what fulfillments can still be paid from.
func (c *Coordinator) SubscriptionBalance(ctx context.Context, subID uint64) (*big.Int, error) {
	sub, err := c.GetSubscription(ctx, subID)
	if err != nil {
		return nil, err
	}
	return sub.Balance, nil
}

// RequestRandomWords opens a request on behalf of consumer. Ids start at 1.
func (c *Coordinator) RequestRandomWords(_ context.Context, consumer common.Address, keyHash common.Hash, subID uint64, confirmations uint16, callbackGasLimit, numWords uint32) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, err := c.checkRequest(consumer, keyHash, subID, confirmations, callbackGasLimit, numWords)
	if err != nil {
		return 0, err
	}
	c.lastReq++
	c.open(sub, c.lastReq, consumer, keyHash, confirmations, callbackGasLimit, numWords)
	return c.lastReq, nil
}

// Reopen registers again a request its consumer is still waiting for,
// under the id the consumer knows. Used after a restart lost the pending
// set. The reopened request gets a fresh seed.
func (c *Coordinator) Reopen(id uint64, consumer common.Address, keyHash common.Hash, subID uint64, confirmations uint16, callbackGasLimit, numWords uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.requests[id]; ok || id == 0 {
		return fmt.Errorf("%w: request %d cannot be reopened", ErrInvalidRequest, id)
	}
	sub, err := c.checkRequest(consumer, keyHash, subID, confirmations, callbackGasLimit, numWords)
	if err != nil {
		return err
	}
	if id > c.lastReq {
		c.lastReq = id
	}
	c.open(sub, id, consumer, keyHash, confirmations, callbackGasLimit, numWords)
	return nil
}

func (c *Coordinator) checkRequest(consumer common.Address, keyHash common.Hash, subID uint64, confirmations uint16, callbackGasLimit, numWords uint32) (*Subscription, error) {
	sub, ok := c.subs[subID]
	if !ok {
		return nil, ErrUnknownSubscription
	}
	if !contains(sub.Consumers, consumer) {
		return nil, ErrInvalidConsumer
	}
	if _, ok := c.keys[keyHash]; !ok {
		return nil, ErrUnknownKeyHash
	}
	switch {
	case confirmations == 0 || confirmations > c.cfg.MaxConfirmations:
		return nil, fmt.Errorf("%w: confirmations %d out of range", ErrInvalidRequest, confirmations)
	case callbackGasLimit > c.cfg.MaxGasLimit:
		return nil, fmt.Errorf("%w: gas limit %d above %d", ErrInvalidRequest, callbackGasLimit, c.cfg.MaxGasLimit)
	case numWords == 0 || numWords > c.cfg.MaxNumWords:
		return nil, fmt.Errorf("%w: %d words requested", ErrInvalidRequest, numWords)
	}
	return sub, nil
}

func (c *Coordinator) open(sub *Subscription, id uint64, consumer common.Address, keyHash common.Hash, confirmations uint16, callbackGasLimit, numWords uint32) {
	c.nonces[consumer]++
	sub.Requests++
	c.requests[id] = &Request{
		ID:               id,
		Consumer:         consumer,
		SubID:            sub.ID,
		KeyHash:          keyHash,
		Confirmations:    confirmations,
		CallbackGasLimit: callbackGasLimit,
		NumWords:         numWords,
		Seed:             requestSeed(keyHash, consumer, sub.ID, c.nonces[consumer]),
		CreatedAt:        c.cfg.Now(),
	}
}

// PendingRequests lists open requests, oldest first.
func (c *Coordinator) PendingRequests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Request, 0, len(c.requests))
	for _, req := range c.requests {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FulfillRandomWords verifies proof, charges the subscription and delivers
// the words. The request is consumed once the proof checks out and the fee
// is paid; a failing consumer does not get a second delivery.
func (c *Coordinator) FulfillRandomWords(ctx context.Context, proof Proof) (*Fulfillment, error) {
	c.mu.Lock()
	req, ok := c.requests[proof.RequestID]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrUnknownRequest, proof.RequestID)
	}
	key, ok := c.keys[req.KeyHash]
	if !ok || KeyHash(proof.PublicKey) != req.KeyHash {
		c.mu.Unlock()
		return nil, ErrUnknownKeyHash
	}
	if err := bls.Verify(suite, key, req.Seed.Bytes(), proof.Signature); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	sub := c.subs[req.SubID]
	fee := new(big.Int).Set(c.cfg.FeePerRequest)
	if sub.Balance.Cmp(fee) < 0 {
		c.mu.Unlock()
		return nil, ErrInsufficientBalance
	}
	sub.Balance.Sub(sub.Balance, fee)
	delete(c.requests, req.ID)
	consumer := c.callbacks[req.Consumer]
	c.mu.Unlock()

	result := &Fulfillment{
		RequestID:   req.ID,
		Consumer:    req.Consumer,
		Words:       deriveWords(proof.Signature, req.NumWords),
		Payment:     fee,
		FulfilledAt: c.cfg.Now(),
	}
	var err error
	if consumer == nil {
		err = ErrNoCallback
	} else {
		err = consumer.RawFulfillRandomWords(ctx, c.cfg.Address, req.ID, result.Words)
	}
	if err != nil {
		result.Error = err.Error()
	} else {
		result.Success = true
	}
	return result, nil
}

func (c *Coordinator) ownedSub(caller common.Address, subID uint64) (*Subscription, error) {
	sub, ok := c.subs[subID]
	if !ok {
		return nil, ErrUnknownSubscription
	}
	if sub.Owner != caller {
		return nil, ErrNotOwner
	}
	return sub, nil
}

func requestSeed(keyHash common.Hash, consumer common.Address, subID, nonce uint64) common.Hash {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], subID)
	binary.BigEndian.PutUint64(buf[8:], nonce)
	return crypto.Keccak256Hash(keyHash.Bytes(), consumer.Bytes(), buf[:])
}

func deriveWords(signature []byte, n uint32) []*big.Int {
	words := make([]*big.Int, n)
	var idx [4]byte
	for i := range words {
		binary.BigEndian.PutUint32(idx[:], uint32(i))
		words[i] = new(big.Int).SetBytes(crypto.Keccak256(signature, idx[:]))
	}
	return words
}

func contains(addrs []common.Address, addr common.Address) bool {
	for _, a := range addrs {
		if a == addr {
			return true
		}
	}
	return false
}
