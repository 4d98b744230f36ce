// Command scripts holds operator tooling that works against the configured
// storage: account bootstrap, bulk account import and token minting.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/internal/app"
	"github.com/ArowuTest/bridgetunes-raffle/internal/config"
	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/services"
	"github.com/ArowuTest/bridgetunes-raffle/internal/utils"
	"github.com/ArowuTest/bridgetunes-raffle/internal/vrf"
	"github.com/ArowuTest/bridgetunes-raffle/pkg/jwt"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "directory holding config.yaml",
	Value:   ".",
}

func main() {
	cliApp := &cli.App{
		Name:  "raffle-scripts",
		Usage: "operator tooling for the raffle service",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:  "seed-manager",
				Usage: "register the login for the configured manager address",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Value: "manager"},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"MANAGER_PASSWORD"}},
				},
				Action: seedManager,
			},
			{
				Name:      "import-accounts",
				Usage:     "register accounts from a CSV file of username,password,address rows",
				ArgsUsage: "<file.csv>",
				Action:    importAccountsCmd,
			},
			{
				Name:      "token",
				Usage:     "print a bearer token for an address",
				ArgsUsage: "<address>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "role", Value: models.RolePlayer},
				},
				Action: printToken,
			},
			{
				Name:  "keyhash",
				Usage: "print the proving key hash for the configured oracle seed",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String(configFlag.Name))
					if err != nil {
						return err
					}
					if cfg.Coordinator.KeySeed == "" {
						return errors.New("no key seed configured; the oracle key is random per process")
					}
					oracle, err := vrf.NewOracle([]byte(cfg.Coordinator.KeySeed))
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, oracle.KeyHash().Hex())
					return nil
				},
			},
		},
	}
	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func withAuth(c *cli.Context, fn func(ctx context.Context, auth services.AuthService) error) error {
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return err
	}
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn("memory storage is discarded when this command exits")
	}
	storage, err := app.OpenStorage(c.Context, cfg.Storage)
	if err != nil {
		return err
	}
	defer storage.Close(context.Background())

	tokens := jwt.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	auth := services.NewAuthService(storage.Repos.Accounts, tokens, common.HexToAddress(cfg.Lottery.Manager))
	return fn(c.Context, auth)
}

func seedManager(c *cli.Context) error {
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return err
	}
	return withAuth(c, func(ctx context.Context, auth services.AuthService) error {
		account, err := auth.Register(ctx, &models.RegisterRequest{
			Username: c.String("username"),
			Password: c.String("password"),
			Address:  cfg.Lottery.Manager,
		})
		if errors.Is(err, services.ErrAccountExists) {
			log.WithField("address", cfg.Lottery.Manager).Info("manager account already present")
			return nil
		}
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"username": account.Username,
			"address":  account.Address.Hex(),
		}).Info("manager account created")
		return nil
	})
}

func importAccountsCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("CSV file path is required", 2)
	}
	file, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return withAuth(c, func(ctx context.Context, auth services.AuthService) error {
		created, err := importAccounts(ctx, auth, file)
		if err != nil {
			return err
		}
		log.WithField("created", created).Info("accounts imported")
		return nil
	})
}

// importAccounts registers one account per row after the header. Bad rows
// and existing accounts are logged and skipped.
func importAccounts(ctx context.Context, auth services.AuthService, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, errors.New("CSV file is empty")
		}
		return 0, fmt.Errorf("failed to parse CSV header: %w", err)
	}

	created := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return created, fmt.Errorf("failed to parse CSV line %d: %w", line, err)
		}
		if len(record) < 3 {
			log.WithField("line", line).Warn("record has less than 3 fields, skipping")
			continue
		}
		_, err = auth.Register(ctx, &models.RegisterRequest{
			Username: strings.TrimSpace(record[0]),
			Password: record[1],
			Address:  strings.TrimSpace(record[2]),
		})
		if err != nil {
			log.WithError(err).WithField("line", line).Warn("failed to import account, skipping")
			continue
		}
		created++
	}
	return created, nil
}

func printToken(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("address is required", 2)
	}
	addr, err := utils.ParseAddress(c.Args().First())
	if err != nil {
		return err
	}
	role := c.String("role")
	if role != models.RolePlayer && role != models.RoleManager {
		return fmt.Errorf("unknown role %q", role)
	}
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return err
	}
	tokens := jwt.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	signed, err := tokens.Generate(addr, role)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, signed)
	return nil
}
