// Package app assembles the lottery engine and the local services it
// depends on from configuration.
package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ArowuTest/bridgetunes-raffle/internal/bank"
	"github.com/ArowuTest/bridgetunes-raffle/internal/config"
	"github.com/ArowuTest/bridgetunes-raffle/internal/lottery"
	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/scheduler"
	"github.com/ArowuTest/bridgetunes-raffle/internal/token"
	"github.com/ArowuTest/bridgetunes-raffle/internal/utils"
	"github.com/ArowuTest/bridgetunes-raffle/internal/vrf"
	"github.com/ethereum/go-ethereum/common"
)

// Stack is one lottery with its currency ledgers and randomness source
type Stack struct {
	Bank           *bank.Bank
	Token          *token.Token
	Oracle         *vrf.Oracle
	Coordinator    *vrf.Coordinator
	Engine         *lottery.Engine
	Fulfiller      *scheduler.Fulfiller
	SubscriptionID uint64
	KeyHash        common.Hash

	confirmations uint16
	numWords      uint32
}

// Build wires the stack. The manager owns a fresh coordinator subscription
// funded with the configured initial funding, and the lottery is its only
// consumer.
func Build(cfg *config.Config) (*Stack, error) {
	policy, err := cfg.Lottery.Policy()
	if err != nil {
		return nil, err
	}
	lotteryAddr := common.HexToAddress(cfg.Lottery.Address)
	manager := common.HexToAddress(cfg.Lottery.Manager)
	coordAddr := common.HexToAddress(cfg.Coordinator.Address)

	fee, err := utils.ParseBaseUnits(cfg.Coordinator.FeePerRequest)
	if err != nil {
		return nil, fmt.Errorf("fee per request: %w", err)
	}
	minBalance, err := utils.ParseBaseUnits(cfg.Coordinator.MinSubscriptionBalance)
	if err != nil {
		return nil, fmt.Errorf("minimum subscription balance: %w", err)
	}
	// a round must never be started on a subscription that cannot pay
	// for its fulfillment
	if minBalance.Cmp(fee) < 0 {
		minBalance = new(big.Int).Set(fee)
	}
	funding, err := utils.ParseBaseUnits(cfg.Coordinator.InitialFunding)
	if err != nil {
		return nil, fmt.Errorf("initial funding: %w", err)
	}

	var seed []byte
	if cfg.Coordinator.KeySeed != "" {
		seed = []byte(cfg.Coordinator.KeySeed)
	}
	oracle, err := vrf.NewOracle(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle: %w", err)
	}

	coord := vrf.NewCoordinator(vrf.Config{
		Address:       coordAddr,
		MaxGasLimit:   cfg.Coordinator.MaxGasLimit,
		FeePerRequest: fee,
	})
	keyHash, err := coord.RegisterProvingKey(oracle.PublicKey())
	if err != nil {
		return nil, err
	}
	subID := coord.CreateSubscription(manager)
	if funding.Sign() > 0 {
		if err := coord.FundSubscription(subID, funding); err != nil {
			return nil, err
		}
	}
	if err := coord.AddConsumer(manager, subID, lotteryAddr); err != nil {
		return nil, err
	}

	b := bank.New()
	tok := token.New(common.HexToAddress(cfg.Lottery.TokenAddress), cfg.Lottery.TokenSymbol, cfg.Lottery.TokenDecimals)
	var currency lottery.CurrencyAdapter
	switch policy.Currency {
	case models.CurrencyToken:
		currency = lottery.NewTokenAdapter(lotteryAddr, tok)
	default:
		currency = lottery.NewNativeAdapter(lotteryAddr, b)
	}

	decimals := cfg.Lottery.Decimals()
	ticket, err := utils.ParseAmount(cfg.Lottery.Ticket(), decimals)
	if err != nil {
		return nil, fmt.Errorf("ticket price: %w", err)
	}
	var minimum *big.Int
	if cfg.Lottery.MinimumAmount != "" {
		if minimum, err = utils.ParseAmount(cfg.Lottery.MinimumAmount, decimals); err != nil {
			return nil, fmt.Errorf("minimum amount: %w", err)
		}
	}

	engine, err := lottery.New(lottery.Options{
		Address:                lotteryAddr,
		Manager:                manager,
		Coordinator:            coordAddr,
		Policy:                 policy,
		TicketPrice:            ticket,
		MinimumAmount:          minimum,
		KeyHash:                keyHash,
		SubscriptionID:         subID,
		Confirmations:          cfg.Coordinator.Confirmations,
		CallbackGasLimit:       cfg.Coordinator.CallbackGasLimit,
		NumWords:               cfg.Coordinator.NumWords,
		MinSubscriptionBalance: minBalance,
	}, currency, coord)
	if err != nil {
		return nil, fmt.Errorf("failed to create lottery engine: %w", err)
	}
	b.RegisterHook(lotteryAddr, engine.Receive)
	coord.BindConsumer(lotteryAddr, engine)

	return &Stack{
		Bank:           b,
		Token:          tok,
		Oracle:         oracle,
		Coordinator:    coord,
		Engine:         engine,
		Fulfiller:      scheduler.NewFulfiller(coord, oracle, cfg.Coordinator.PollInterval, cfg.Coordinator.BlockTime),
		SubscriptionID: subID,
		KeyHash:        keyHash,
		confirmations:  cfg.Coordinator.Confirmations,
		numWords:       cfg.Coordinator.NumWords,
	}, nil
}

// ReopenPending hands the coordinator the request a restored round is
// waiting for. It reports whether there was one.
func (s *Stack) ReopenPending(ctx context.Context) (bool, error) {
	state := s.Engine.State(ctx)
	if !state.HasPending {
		return false, nil
	}
	confirmations, numWords := s.confirmations, s.numWords
	if confirmations == 0 {
		confirmations = lottery.DefaultConfirmations
	}
	if numWords == 0 {
		numWords = lottery.DefaultNumWords
	}
	err := s.Coordinator.Reopen(state.PendingRequestID, state.Address, s.KeyHash, s.SubscriptionID,
		confirmations, state.CallbackGasLimit, numWords)
	if err != nil {
		return false, fmt.Errorf("failed to reopen request %d: %w", state.PendingRequestID, err)
	}
	return true, nil
}

// Tokens lists the tokens the lottery can report decimals for
func (s *Stack) Tokens() map[common.Address]lottery.DecimalsReader {
	return map[common.Address]lottery.DecimalsReader{s.Token.Address(): s.Token}
}
