package handlers

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/services"
	"github.com/ArowuTest/bridgetunes-raffle/internal/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// LotteryHandler handles lottery related HTTP requests
type LotteryHandler struct {
	lotteryService services.LotteryService
}

// NewLotteryHandler creates a new LotteryHandler
func NewLotteryHandler(lotteryService services.LotteryService) *LotteryHandler {
	return &LotteryHandler{lotteryService: lotteryService}
}

// amountView renders base units together with their decimal form
func amountView(v *big.Int, decimals uint8) gin.H {
	return gin.H{
		"value":     v.String(),
		"formatted": utils.FormatAmount(v, decimals),
	}
}

// parseAmount reads a decimal amount in whole units of the lottery currency
func (h *LotteryHandler) parseAmount(c *gin.Context, s string) (*big.Int, uint8, bool) {
	decimals, err := h.lotteryService.GetDecimals(c.Request.Context(), nil)
	if err != nil {
		respondError(c, err)
		return nil, 0, false
	}
	if s == "" {
		return nil, decimals, true
	}
	amount, err := utils.ParseAmount(s, decimals)
	if err != nil {
		badRequest(c, err)
		return nil, 0, false
	}
	return amount, decimals, true
}

// GetState handles GET /lottery
func (h *LotteryHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":  h.lotteryService.GetState(c.Request.Context()),
		"policy": h.lotteryService.Policy(),
	})
}

// GetPlayers handles GET /lottery/players
func (h *LotteryHandler) GetPlayers(c *gin.Context) {
	players := h.lotteryService.GetPlayers(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"players": players, "count": len(players)})
}

// GetManager handles GET /lottery/manager
func (h *LotteryHandler) GetManager(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"manager": h.lotteryService.Manager()})
}

// GetRecentWinner handles GET /lottery/recent-winner
func (h *LotteryHandler) GetRecentWinner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"recentWinner": h.lotteryService.RecentWinner(c.Request.Context())})
}

// GetTicket handles GET /lottery/ticket
func (h *LotteryHandler) GetTicket(c *gin.Context) {
	ctx := c.Request.Context()
	decimals, err := h.lotteryService.GetDecimals(ctx, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ticket":   amountView(h.lotteryService.LotteryTicket(ctx), decimals),
		"decimals": decimals,
	})
}

// GetPool handles GET /lottery/pool
func (h *LotteryHandler) GetPool(c *gin.Context) {
	ctx := c.Request.Context()
	decimals, err := h.lotteryService.GetDecimals(ctx, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	holdings, err := h.lotteryService.Holdings(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totalPlayerFunds": amountView(h.lotteryService.TotalPlayerFunds(ctx), decimals),
		"holdings":         amountView(holdings, decimals),
	})
}

// GetPending handles GET /lottery/pending/:address
func (h *LotteryHandler) GetPending(c *gin.Context) {
	addr, err := utils.ParseAddress(c.Param("address"))
	if err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	decimals, err := h.lotteryService.GetDecimals(ctx, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address": addr,
		"pending": amountView(h.lotteryService.PendingWithdrawals(ctx, addr), decimals),
	})
}

// GetDecimals handles GET /lottery/decimals and GET /lottery/decimals/:token
func (h *LotteryHandler) GetDecimals(c *gin.Context) {
	var token *common.Address
	if raw := c.Param("token"); raw != "" {
		addr, err := utils.ParseAddress(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		token = &addr
	}
	decimals, err := h.lotteryService.GetDecimals(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decimals": decimals})
}

// GetWinners handles GET /lottery/winners
func (h *LotteryHandler) GetWinners(c *gin.Context) {
	page, limit := utils.Pagination(c.Query("page"), c.Query("limit"))
	ctx := c.Request.Context()

	if raw := c.Query("address"); raw != "" {
		addr, err := utils.ParseAddress(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		winners, err := h.lotteryService.GetWinnersByAddress(ctx, addr, page, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"winners": winners, "page": page, "limit": limit})
		return
	}

	winners, total, err := h.lotteryService.GetWinners(ctx, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"winners": winners, "total": total, "page": page, "limit": limit})
}

// GetEvents handles GET /lottery/events
func (h *LotteryHandler) GetEvents(c *gin.Context) {
	page, limit := utils.Pagination(c.Query("page"), c.Query("limit"))
	events, err := h.lotteryService.GetEvents(c.Request.Context(), models.EventType(c.Query("type")), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "page": page, "limit": limit})
}

// Enter handles POST /lottery/enter. The amount may be omitted under the
// fixed entry policy.
func (h *LotteryHandler) Enter(c *gin.Context) {
	player, ok := caller(c)
	if !ok {
		return
	}
	var req models.AmountRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	amount, _, ok := h.parseAmount(c, req.Amount)
	if !ok {
		return
	}
	if err := h.lotteryService.Enter(c.Request.Context(), player, amount); err != nil {
		respondError(c, err)
		return
	}
	players := h.lotteryService.GetPlayers(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"player": player, "entries": len(players)})
}

// PickWinner handles POST /lottery/pick-winner
func (h *LotteryHandler) PickWinner(c *gin.Context) {
	manager, ok := caller(c)
	if !ok {
		return
	}
	requestID, err := h.lotteryService.PickWinner(c.Request.Context(), manager)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"requestId": requestID})
}

// Withdraw handles POST /lottery/withdraw
func (h *LotteryHandler) Withdraw(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	amount, err := h.lotteryService.WithdrawPrize(ctx, who)
	if err != nil {
		respondError(c, err)
		return
	}
	decimals, err := h.lotteryService.GetDecimals(ctx, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawn": amountView(amount, decimals)})
}

// SetGasLimit handles PUT /lottery/gas-limit
func (h *LotteryHandler) SetGasLimit(c *gin.Context) {
	manager, ok := caller(c)
	if !ok {
		return
	}
	var req models.GasLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.lotteryService.SetGasLimit(c.Request.Context(), manager, req.GasLimit); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gasLimit": req.GasLimit})
}

// SetTicket handles PUT /lottery/ticket
func (h *LotteryHandler) SetTicket(c *gin.Context) {
	manager, ok := caller(c)
	if !ok {
		return
	}
	var req models.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Amount == "" {
		badRequest(c, errors.New("amount is required"))
		return
	}
	amount, decimals, ok := h.parseAmount(c, req.Amount)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.lotteryService.SetLotteryTicket(ctx, manager, amount); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": amountView(h.lotteryService.LotteryTicket(ctx), decimals)})
}
