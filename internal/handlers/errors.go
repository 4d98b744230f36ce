package handlers

import (
	"errors"
	"net/http"

	"github.com/ArowuTest/bridgetunes-raffle/internal/bank"
	"github.com/ArowuTest/bridgetunes-raffle/internal/lottery"
	"github.com/ArowuTest/bridgetunes-raffle/internal/middleware"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"github.com/ArowuTest/bridgetunes-raffle/internal/services"
	"github.com/ArowuTest/bridgetunes-raffle/internal/vrf"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// statusFor maps a domain error to an HTTP status. Order matters where one
// error wraps another.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, lottery.ErrUnauthorized),
		errors.Is(err, vrf.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, lottery.ErrUnknownRequest),
		errors.Is(err, vrf.ErrUnknownRequest),
		errors.Is(err, vrf.ErrUnknownSubscription),
		errors.Is(err, services.ErrUnknownToken),
		errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lottery.ErrInvalidState),
		errors.Is(err, services.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, lottery.ErrIncorrectAmount),
		errors.Is(err, lottery.ErrMinimumAmountNotMet),
		errors.Is(err, lottery.ErrTokenTransferFailed),
		errors.Is(err, lottery.ErrNotEnoughPlayers),
		errors.Is(err, lottery.ErrInsufficientSubscriptionFunds),
		errors.Is(err, lottery.ErrNothingToWithdraw),
		errors.Is(err, lottery.ErrTransferFailed),
		errors.Is(err, lottery.ErrDirectTransferNotAllowed),
		errors.Is(err, lottery.ErrNoRandomWords),
		errors.Is(err, bank.ErrInsufficientBalance),
		errors.Is(err, bank.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrTokenTransfer),
		errors.Is(err, services.ErrFaucetLimit),
		errors.Is(err, vrf.ErrInvalidRequest),
		errors.Is(err, vrf.ErrInvalidConsumer),
		errors.Is(err, vrf.ErrInsufficientBalance),
		errors.Is(err, vrf.ErrUnknownKeyHash),
		errors.Is(err, vrf.ErrInvalidProof):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithField("requestId", c.GetString(middleware.KeyRequestID)).WithError(err).Error("unexpected error")
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// caller is the authenticated address. Routes using it sit behind the JWT
// middleware, so a missing caller is a wiring bug.
func caller(c *gin.Context) (common.Address, bool) {
	addr, ok := middleware.Caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return addr, ok
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
