package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArowuTest/bridgetunes-raffle/api/routes"
	"github.com/ArowuTest/bridgetunes-raffle/internal/app"
	"github.com/ArowuTest/bridgetunes-raffle/internal/config"
	"github.com/ArowuTest/bridgetunes-raffle/internal/handlers"
	"github.com/ArowuTest/bridgetunes-raffle/internal/services"
	"github.com/ArowuTest/bridgetunes-raffle/internal/utils"
	"github.com/ArowuTest/bridgetunes-raffle/pkg/jwt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "raffle-api",
		Usage: "serve the raffle over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "directory holding config.yaml",
				Value:   ".",
			},
		},
		Action: run,
	}
	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx := c.Context
	storage, err := app.OpenStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(context.Background()); err != nil {
			log.WithError(err).Error("error closing storage")
		}
	}()

	stack, err := app.Build(cfg)
	if err != nil {
		return err
	}
	lotteryService, err := services.NewLotteryService(ctx, stack.Engine, storage.Repos, stack.Tokens())
	if err != nil {
		return err
	}
	reopened, err := stack.ReopenPending(ctx)
	if err != nil {
		return err
	}
	if reopened {
		log.WithField("request_id", stack.Engine.State(ctx).PendingRequestID).Info("re-opened pending randomness request")
	}

	faucetCap, err := utils.ParseBaseUnits(cfg.Lottery.FaucetLimit)
	if err != nil {
		return err
	}
	tokens := jwt.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	manager := common.HexToAddress(cfg.Lottery.Manager)

	authService := services.NewAuthService(storage.Repos.Accounts, tokens, manager)
	walletService := services.NewWalletService(stack.Bank, stack.Token, faucetCap)
	coordinatorService := services.NewCoordinatorService(stack.Coordinator, stack.Oracle, stack.Fulfiller, stack.SubscriptionID)

	handlerDeps := routes.HandlerDependencies{
		AuthHandler:        handlers.NewAuthHandler(authService),
		LotteryHandler:     handlers.NewLotteryHandler(lotteryService),
		WalletHandler:      handlers.NewWalletHandler(walletService),
		CoordinatorHandler: handlers.NewCoordinatorHandler(coordinatorService),
	}
	router := routes.SetupRouter(cfg, tokens, handlerDeps)

	if cfg.Coordinator.AutoFulfill {
		if err := stack.Fulfiller.Start(); err != nil {
			return err
		}
		defer stack.Fulfiller.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":    cfg.Server.Port,
			"lottery": stack.Engine.Address().Hex(),
			"variant": cfg.Lottery.Variant,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server exiting")
	return nil
}
