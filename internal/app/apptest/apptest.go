// Package apptest builds small lottery stacks for tests.
package apptest

import (
	"math/big"
	"testing"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/app"
	"github.com/ArowuTest/bridgetunes-raffle/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	Lottery     = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	Manager     = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	Coordinator = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	Token       = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	Alice       = common.HexToAddress("0x0000000000000000000000000000000000000001")
	Bob         = common.HexToAddress("0x0000000000000000000000000000000000000002")

	// Ticket is the default native ticket, 0.01 ether
	Ticket   = big.NewInt(10_000_000_000_000_000)
	OneEther = big.NewInt(1_000_000_000_000_000_000)
)

// Config returns a valid configuration for variant with a deterministic
// oracle key and no confirmation delay.
func Config(variant string) *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Driver: config.DriverMemory},
		JWT:     config.JWTConfig{Secret: "test-secret", ExpiresIn: 3600},
		Lottery: config.LotteryConfig{
			Variant:       variant,
			Address:       Lottery.Hex(),
			Manager:       Manager.Hex(),
			TokenAddress:  Token.Hex(),
			TokenSymbol:   "LINK",
			TokenDecimals: 18,
		},
		Coordinator: config.CoordinatorConfig{
			Address:                Coordinator.Hex(),
			KeySeed:                "apptest",
			InitialFunding:         OneEther.String(),
			Confirmations:          3,
			CallbackGasLimit:       100000,
			NumWords:               1,
			MinSubscriptionBalance: "1",
			FeePerRequest:          "0",
			PollInterval:           time.Second,
		},
		LogLevel: "error",
	}
}

// Build wires a stack for variant and funds Alice and Bob with one ether
// and one hundred tokens each.
func Build(t *testing.T, variant string) *app.Stack {
	t.Helper()
	cfg := Config(variant)
	require.NoError(t, cfg.Validate())
	return BuildWith(t, cfg)
}

// BuildWith is Build for a caller supplied configuration. The
// configuration is not validated.
func BuildWith(t *testing.T, cfg *config.Config) *app.Stack {
	t.Helper()
	stack, err := app.Build(cfg)
	require.NoError(t, err)
	for _, p := range []common.Address{Alice, Bob} {
		require.NoError(t, stack.Bank.Deposit(p, OneEther))
		require.True(t, stack.Token.Mint(p, stack.Token.Units(100)))
	}
	return stack
}
