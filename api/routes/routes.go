package routes

import (
	"net/http"

	"github.com/ArowuTest/bridgetunes-raffle/internal/config"
	"github.com/ArowuTest/bridgetunes-raffle/internal/handlers"
	"github.com/ArowuTest/bridgetunes-raffle/internal/middleware"
	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// HandlerDependencies holds every handler the router mounts
type HandlerDependencies struct {
	AuthHandler        *handlers.AuthHandler
	LotteryHandler     *handlers.LotteryHandler
	WalletHandler      *handlers.WalletHandler
	CoordinatorHandler *handlers.CoordinatorHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, tokens *jwt.TokenService, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/register", deps.AuthHandler.Register)
			auth.POST("/login", deps.AuthHandler.Login)
		}

		lottery := public.Group("/lottery")
		{
			lottery.GET("", deps.LotteryHandler.GetState)
			lottery.GET("/players", deps.LotteryHandler.GetPlayers)
			lottery.GET("/manager", deps.LotteryHandler.GetManager)
			lottery.GET("/recent-winner", deps.LotteryHandler.GetRecentWinner)
			lottery.GET("/ticket", deps.LotteryHandler.GetTicket)
			lottery.GET("/pool", deps.LotteryHandler.GetPool)
			lottery.GET("/pending/:address", deps.LotteryHandler.GetPending)
			lottery.GET("/decimals", deps.LotteryHandler.GetDecimals)
			lottery.GET("/decimals/:token", deps.LotteryHandler.GetDecimals)
			lottery.GET("/winners", deps.LotteryHandler.GetWinners)
			lottery.GET("/events", deps.LotteryHandler.GetEvents)
		}
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(tokens))
	{
		lottery := protected.Group("/lottery")
		{
			lottery.POST("/enter", deps.LotteryHandler.Enter)
			lottery.POST("/withdraw", deps.LotteryHandler.Withdraw)
			lottery.POST("/pick-winner", deps.LotteryHandler.PickWinner)
			lottery.PUT("/gas-limit", deps.LotteryHandler.SetGasLimit)
			lottery.PUT("/ticket", deps.LotteryHandler.SetTicket)
		}

		wallet := protected.Group("/wallet")
		{
			wallet.GET("/balance", deps.WalletHandler.Balance)
			wallet.POST("/faucet", deps.WalletHandler.Faucet)
			wallet.POST("/transfer", deps.WalletHandler.Transfer)
			wallet.POST("/tokens/mint", deps.WalletHandler.MintTokens)
			wallet.POST("/tokens/transfer", deps.WalletHandler.TransferTokens)
			wallet.POST("/tokens/approve", deps.WalletHandler.ApproveTokens)
			wallet.GET("/tokens/allowance/:spender", deps.WalletHandler.Allowance)
		}

		coordinator := protected.Group("/coordinator")
		coordinator.Use(middleware.RequireRole(models.RoleManager))
		{
			coordinator.GET("", deps.CoordinatorHandler.GetInfo)
			coordinator.POST("/subscriptions", deps.CoordinatorHandler.CreateSubscription)
			coordinator.GET("/subscriptions/:id", deps.CoordinatorHandler.GetSubscription)
			coordinator.POST("/subscriptions/:id/fund", deps.CoordinatorHandler.FundSubscription)
			coordinator.POST("/subscriptions/:id/consumers", deps.CoordinatorHandler.AddConsumer)
			coordinator.DELETE("/subscriptions/:id/consumers/:consumer", deps.CoordinatorHandler.RemoveConsumer)
			coordinator.GET("/requests", deps.CoordinatorHandler.PendingRequests)
			coordinator.POST("/requests/:id/fulfill", deps.CoordinatorHandler.Fulfill)
			coordinator.POST("/fulfill-ready", deps.CoordinatorHandler.FulfillReady)
		}
	}

	return router
}
