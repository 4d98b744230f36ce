package handlers

import (
	"math/big"
	"net/http"

	"github.com/ArowuTest/bridgetunes-raffle/internal/lottery"
	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/services"
	"github.com/ArowuTest/bridgetunes-raffle/internal/utils"
	"github.com/gin-gonic/gin"
)

// WalletHandler serves native value and token balances of the caller
type WalletHandler struct {
	walletService services.WalletService
}

func NewWalletHandler(walletService services.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

func (h *WalletHandler) tokenAmount(c *gin.Context, s string) (*big.Int, bool) {
	decimals, err := h.walletService.TokenDecimals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	amount, err := utils.ParseAmount(s, decimals)
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	return amount, true
}

// Balance handles GET /wallet/balance
func (h *WalletHandler) Balance(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	bal, err := h.walletService.Balance(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

// Faucet handles POST /wallet/faucet
func (h *WalletHandler) Faucet(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req models.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, err := utils.ParseAmount(req.Amount, lottery.NativeDecimals)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.walletService.Faucet(c.Request.Context(), who, amount); err != nil {
		respondError(c, err)
		return
	}
	h.Balance(c)
}

// Transfer handles POST /wallet/transfer
func (h *WalletHandler) Transfer(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	to, err := utils.ParseAddress(req.To)
	if err != nil {
		badRequest(c, err)
		return
	}
	amount, err := utils.ParseAmount(req.Amount, lottery.NativeDecimals)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.walletService.Transfer(c.Request.Context(), from, to, amount); err != nil {
		respondError(c, err)
		return
	}
	h.Balance(c)
}

// MintTokens handles POST /wallet/tokens/mint
func (h *WalletHandler) MintTokens(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req models.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, ok := h.tokenAmount(c, req.Amount)
	if !ok {
		return
	}
	if err := h.walletService.MintTokens(c.Request.Context(), who, amount); err != nil {
		respondError(c, err)
		return
	}
	h.Balance(c)
}

// TransferTokens handles POST /wallet/tokens/transfer
func (h *WalletHandler) TransferTokens(c *gin.Context) {
	from, ok := caller(c)
	if !ok {
		return
	}
	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	to, err := utils.ParseAddress(req.To)
	if err != nil {
		badRequest(c, err)
		return
	}
	amount, ok := h.tokenAmount(c, req.Amount)
	if !ok {
		return
	}
	if err := h.walletService.TransferTokens(c.Request.Context(), from, to, amount); err != nil {
		respondError(c, err)
		return
	}
	h.Balance(c)
}

// ApproveTokens handles POST /wallet/tokens/approve
func (h *WalletHandler) ApproveTokens(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	var req models.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	spender, err := utils.ParseAddress(req.Spender)
	if err != nil {
		badRequest(c, err)
		return
	}
	amount, ok := h.tokenAmount(c, req.Amount)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.walletService.ApproveTokens(ctx, owner, spender, amount); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"owner":     owner,
		"spender":   spender,
		"allowance": h.walletService.Allowance(ctx, owner, spender).String(),
	})
}

// Allowance handles GET /wallet/tokens/allowance/:spender
func (h *WalletHandler) Allowance(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	spender, err := utils.ParseAddress(c.Param("spender"))
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"owner":     owner,
		"spender":   spender,
		"allowance": h.walletService.Allowance(c.Request.Context(), owner, spender).String(),
	})
}
