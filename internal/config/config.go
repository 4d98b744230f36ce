package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/lottery"
	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMemory  = "memory"
	DriverBolt    = "bolt"
	DriverMongoDB = "mongodb"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	JWT         JWTConfig
	Lottery     LotteryConfig
	Coordinator CoordinatorConfig
	LogLevel    string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
	Mode         string // gin mode
}

// StorageConfig selects where lottery history and snapshots live
type StorageConfig struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	BoltPath      string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// LotteryConfig describes the lottery instance served by this process.
// Empty policy fields fall back to the defaults of Variant. Amounts are
// decimal strings in whole units of the lottery currency.
type LotteryConfig struct {
	Variant       string
	Address       string
	Manager       string
	Currency      string
	Entry         string
	Payout        string
	Selection     string
	TicketPrice   string
	MinimumAmount string
	TokenAddress  string
	TokenSymbol   string
	TokenDecimals uint8
	FaucetLimit   string // base units, empty for no limit
}

// CoordinatorConfig holds the randomness coordinator settings. Balances and
// fees are integers in base units.
type CoordinatorConfig struct {
	Address                string
	KeySeed                string
	InitialFunding         string
	Confirmations          uint16
	CallbackGasLimit       uint32
	MaxGasLimit            uint32
	NumWords               uint32
	MinSubscriptionBalance string
	FeePerRequest          string
	BlockTime              time.Duration
	AutoFulfill            bool
	PollInterval           time.Duration
}

// Load loads configuration from an optional .env file, environment
// variables and config files. path is searched for config.yaml before the
// default locations.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults sets default values for configuration. Every key needs a
// default so that AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	v.SetDefault("Server.Mode", "release")

	v.SetDefault("Storage.Driver", DriverMemory)
	v.SetDefault("Storage.MongoURI", "mongodb://localhost:27017")
	v.SetDefault("Storage.MongoDatabase", "bridgetunes-raffle")
	v.SetDefault("Storage.BoltPath", "raffle.db")

	v.SetDefault("JWT.Secret", "")
	v.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours

	v.SetDefault("Lottery.Variant", string(models.VariantClassic))
	v.SetDefault("Lottery.Address", "0x00000000000000000000000000000000000107e1")
	v.SetDefault("Lottery.Manager", "")
	v.SetDefault("Lottery.Currency", "")
	v.SetDefault("Lottery.Entry", "")
	v.SetDefault("Lottery.Payout", "")
	v.SetDefault("Lottery.Selection", "")
	v.SetDefault("Lottery.TicketPrice", "")
	v.SetDefault("Lottery.MinimumAmount", "")
	v.SetDefault("Lottery.TokenAddress", "0x000000000000000000000000000000000000711c")
	v.SetDefault("Lottery.TokenSymbol", "LINK")
	v.SetDefault("Lottery.TokenDecimals", 18)
	v.SetDefault("Lottery.FaucetLimit", "100000000000000000000")

	v.SetDefault("Coordinator.Address", "0x0000000000000000000000000000000000000c0d")
	v.SetDefault("Coordinator.KeySeed", "")
	v.SetDefault("Coordinator.InitialFunding", "1000000000000000000")
	v.SetDefault("Coordinator.Confirmations", 3)
	v.SetDefault("Coordinator.CallbackGasLimit", 100000)
	v.SetDefault("Coordinator.MaxGasLimit", 2500000)
	v.SetDefault("Coordinator.NumWords", 1)
	v.SetDefault("Coordinator.MinSubscriptionBalance", "1")
	v.SetDefault("Coordinator.FeePerRequest", "0")
	v.SetDefault("Coordinator.BlockTime", "2s")
	v.SetDefault("Coordinator.AutoFulfill", true)
	v.SetDefault("Coordinator.PollInterval", "5s")

	v.SetDefault("LogLevel", "info")
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverBolt, DriverMongoDB:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT secret is required")
	}
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("JWT expiry must be positive")
	}
	for name, addr := range map[string]string{
		"lottery address":     c.Lottery.Address,
		"lottery manager":     c.Lottery.Manager,
		"coordinator address": c.Coordinator.Address,
	} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%s %q is not a hex address", name, addr)
		}
	}
	policy, err := c.Lottery.Policy()
	if err != nil {
		return err
	}
	if policy.Currency == models.CurrencyToken && !common.IsHexAddress(c.Lottery.TokenAddress) {
		return fmt.Errorf("token address %q is not a hex address", c.Lottery.TokenAddress)
	}
	price, err := utils.ParseAmount(c.Lottery.Ticket(), c.Lottery.Decimals())
	if err != nil {
		return fmt.Errorf("ticket price: %w", err)
	}
	if price.Sign() <= 0 {
		return errors.New("ticket price must be positive")
	}
	if c.Lottery.MinimumAmount != "" {
		if _, err := utils.ParseAmount(c.Lottery.MinimumAmount, c.Lottery.Decimals()); err != nil {
			return fmt.Errorf("minimum amount: %w", err)
		}
	}
	for name, s := range map[string]string{
		"initial funding":      c.Coordinator.InitialFunding,
		"minimum subscription": c.Coordinator.MinSubscriptionBalance,
		"fee per request":      c.Coordinator.FeePerRequest,
		"faucet limit":         c.Lottery.FaucetLimit,
	} {
		if _, err := utils.ParseBaseUnits(s); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	minBalance, _ := utils.ParseBaseUnits(c.Coordinator.MinSubscriptionBalance)
	fee, _ := utils.ParseBaseUnits(c.Coordinator.FeePerRequest)
	if minBalance.Cmp(fee) < 0 {
		return fmt.Errorf("minimum subscription balance %s is below the fee per request %s", minBalance, fee)
	}
	if c.Coordinator.Confirmations == 0 {
		return errors.New("confirmations must be at least 1")
	}
	if c.Coordinator.AutoFulfill && c.Coordinator.PollInterval <= 0 {
		return errors.New("poll interval must be positive when auto fulfill is on")
	}
	return nil
}

// Policy resolves the variant defaults and the explicit overrides
func (l LotteryConfig) Policy() (models.LotteryPolicy, error) {
	policy, err := models.PolicyForVariant(models.Variant(l.Variant))
	if err != nil {
		return policy, err
	}
	if l.Currency != "" {
		policy.Currency = models.Currency(strings.ToLower(l.Currency))
	}
	if l.Entry != "" {
		policy.Entry = models.EntryPolicy(strings.ToLower(l.Entry))
	}
	if l.Payout != "" {
		policy.Payout = models.PayoutMode(strings.ToUpper(l.Payout))
	}
	if l.Selection != "" {
		policy.Selection = models.SelectionPolicy(strings.ToLower(l.Selection))
	}
	return policy, policy.Validate()
}

// Ticket is the configured ticket price or the variant default: 0.01 of
// the native currency, one whole token otherwise.
func (l LotteryConfig) Ticket() string {
	if l.TicketPrice != "" {
		return l.TicketPrice
	}
	if policy, err := l.Policy(); err == nil && policy.Currency == models.CurrencyToken {
		return "1"
	}
	return "0.01"
}

// Decimals is the precision amounts are parsed with
func (l LotteryConfig) Decimals() uint8 {
	if policy, err := l.Policy(); err == nil && policy.Currency == models.CurrencyToken {
		return l.TokenDecimals
	}
	return lottery.NativeDecimals
}
