package handlers

import (
	"net/http"
	"strconv"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/services"
	"github.com/ArowuTest/bridgetunes-raffle/internal/utils"
	"github.com/gin-gonic/gin"
)

// CoordinatorHandler exposes the randomness coordinator to the manager
type CoordinatorHandler struct {
	coordinatorService services.CoordinatorService
}

func NewCoordinatorHandler(coordinatorService services.CoordinatorService) *CoordinatorHandler {
	return &CoordinatorHandler{coordinatorService: coordinatorService}
}

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// GetInfo handles GET /coordinator
func (h *CoordinatorHandler) GetInfo(c *gin.Context) {
	ctx := c.Request.Context()
	subID := h.coordinatorService.SubscriptionID()
	sub, err := h.coordinatorService.GetSubscription(ctx, subID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"keyHash":      h.coordinatorService.KeyHash(),
		"subscription": sub,
		"pending":      len(h.coordinatorService.PendingRequests(ctx)),
	})
}

// GetSubscription handles GET /coordinator/subscriptions/:id
func (h *CoordinatorHandler) GetSubscription(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sub, err := h.coordinatorService.GetSubscription(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// CreateSubscription handles POST /coordinator/subscriptions. The caller
// owns the new subscription.
func (h *CoordinatorHandler) CreateSubscription(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	id := h.coordinatorService.CreateSubscription(c.Request.Context(), owner)
	c.JSON(http.StatusCreated, gin.H{"id": id, "owner": owner})
}

// FundSubscription handles POST /coordinator/subscriptions/:id/fund with an
// amount in base units
func (h *CoordinatorHandler) FundSubscription(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req models.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, err := utils.ParseBaseUnits(req.Amount)
	if err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.coordinatorService.FundSubscription(ctx, id, amount); err != nil {
		respondError(c, err)
		return
	}
	h.GetSubscription(c)
}

// AddConsumer handles POST /coordinator/subscriptions/:id/consumers
func (h *CoordinatorHandler) AddConsumer(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req models.ConsumerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	consumer, err := utils.ParseAddress(req.Consumer)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.coordinatorService.AddConsumer(c.Request.Context(), owner, id, consumer); err != nil {
		respondError(c, err)
		return
	}
	h.GetSubscription(c)
}

// RemoveConsumer handles DELETE /coordinator/subscriptions/:id/consumers/:consumer
func (h *CoordinatorHandler) RemoveConsumer(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	consumer, err := utils.ParseAddress(c.Param("consumer"))
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.coordinatorService.RemoveConsumer(c.Request.Context(), owner, id, consumer); err != nil {
		respondError(c, err)
		return
	}
	h.GetSubscription(c)
}

// PendingRequests handles GET /coordinator/requests
func (h *CoordinatorHandler) PendingRequests(c *gin.Context) {
	requests := h.coordinatorService.PendingRequests(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

// Fulfill handles POST /coordinator/requests/:id/fulfill
func (h *CoordinatorHandler) Fulfill(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.coordinatorService.Fulfill(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// FulfillReady handles POST /coordinator/fulfill-ready
func (h *CoordinatorHandler) FulfillReady(c *gin.Context) {
	done, err := h.coordinatorService.FulfillReady(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fulfilled": done, "count": len(done)})
}
