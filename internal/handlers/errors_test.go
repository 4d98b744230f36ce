package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ArowuTest/bridgetunes-raffle/internal/bank"
	"github.com/ArowuTest/bridgetunes-raffle/internal/lottery"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"github.com/ArowuTest/bridgetunes-raffle/internal/services"
	"github.com/ArowuTest/bridgetunes-raffle/internal/vrf"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{lottery.ErrUnauthorized, http.StatusForbidden},
		{lottery.ErrUnauthorizedCallback, http.StatusForbidden},
		{vrf.ErrNotOwner, http.StatusForbidden},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("fulfill: %w", lottery.ErrUnknownRequest), http.StatusNotFound},
		{vrf.ErrUnknownSubscription, http.StatusNotFound},
		{repositories.ErrNotFound, http.StatusNotFound},
		{lottery.ErrInvalidState, http.StatusConflict},
		{fmt.Errorf("enter: %w", lottery.ErrWinnerPendingCollection), http.StatusConflict},
		{services.ErrAccountExists, http.StatusConflict},
		{services.ErrInvalidAddress, http.StatusBadRequest},
		{lottery.ErrIncorrectAmount, http.StatusUnprocessableEntity},
		{lottery.ErrInsufficientSubscriptionFunds, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: %w", lottery.ErrTransferFailed, lottery.ErrNothingToWithdraw), http.StatusUnprocessableEntity},
		{fmt.Errorf("transfer: %w", bank.ErrInsufficientBalance), http.StatusUnprocessableEntity},
		{vrf.ErrInvalidRequest, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
