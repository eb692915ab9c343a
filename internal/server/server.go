// Package server exposes the case opening service over HTTP. The surface is
// deliberately thin: authentication lives upstream, and the trusted user id
// arrives on the X-User-ID header.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"caseopener/internal/cases"
	"caseopener/internal/draw"
	"caseopener/internal/model"
	"caseopener/internal/service"
)

// userHeader carries the trusted user id set by the identity layer.
const userHeader = "X-User-ID"

// CaseOpener settles a case opening for a user.
type CaseOpener interface {
	OpenCase(ctx context.Context, userID, caseID int64) (*service.Receipt, error)
}

// AccountReader serves the account, inventory and history read models, and
// account creation.
type AccountReader interface {
	Summary(ctx context.Context, userID int64) (*service.AccountSummary, error)
	Inventory(ctx context.Context, userID int64) ([]model.InventoryItem, error)
	History(ctx context.Context, userID int64) ([]model.AcquisitionEvent, error)
	Register(ctx context.Context, username string) (*model.UserAccount, error)
}

// Pinger reports storage health.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds the dependencies for the HTTP handlers.
type Handler struct {
	registry *cases.Registry
	opener   CaseOpener
	accounts AccountReader
	health   Pinger
}

// NewHandler creates a new Handler.
func NewHandler(registry *cases.Registry, opener CaseOpener, accounts AccountReader, health Pinger) *Handler {
	return &Handler{
		registry: registry,
		opener:   opener,
		accounts: accounts,
		health:   health,
	}
}

// RegisterRoutes registers all the application routes.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Healthz)
	router.GET("/api/cases", h.ListCases)
	router.POST("/api/cases/:id/open", h.OpenCase)
	router.POST("/api/register", h.Register)
	router.GET("/api/me", h.GetSummary)
	router.GET("/api/inventory", h.GetInventory)
	router.GET("/api/history", h.GetHistory)
}

// userID extracts the trusted user id from the request, aborting with 401
// when the header is missing or malformed.
func userID(c *gin.Context) (int64, bool) {
	raw := c.GetHeader(userHeader)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth"})
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth"})
		return 0, false
	}
	return id, true
}

// Healthz reports process and storage health.
func (h *Handler) Healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// caseView is the list representation of a published case.
type caseView struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Price   int64  `json:"price"`
	Version int64  `json:"version"`
	Drops   int    `json:"drops"`
}

// ListCases returns the published case catalog.
func (h *Handler) ListCases(c *gin.Context) {
	published := h.registry.List()
	views := make([]caseView, 0, len(published))
	for _, cs := range published {
		views = append(views, caseView{
			ID:      cs.ID,
			Name:    cs.Name,
			Price:   cs.Price,
			Version: cs.Version,
			Drops:   cs.Pool.Len(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"cases": views})
}

// itemView is the wire form of a catalog item.
type itemView struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Rarity string `json:"rarity"`
	Value  int64  `json:"value"`
}

func toItemView(it model.Item) itemView {
	return itemView{ID: it.ID, Name: it.Name, Rarity: it.Rarity, Value: it.Value}
}

// OpenCase opens a case for the authenticated user and returns the
// settlement receipt.
func (h *Handler) OpenCase(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	caseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_case_id"})
		return
	}

	receipt, err := h.opener.OpenCase(c.Request.Context(), uid, caseID)
	if err != nil {
		h.writeOpenError(c, uid, caseID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"case": gin.H{
			"id":      receipt.CaseID,
			"name":    receipt.CaseName,
			"version": receipt.CaseVersion,
			"price":   receipt.Price,
		},
		"win":      toItemView(receipt.Item),
		"quantity": receipt.Quantity,
		"balance":  receipt.NewBalance,
		"draw": gin.H{
			"sampled":     receipt.Draw.Sampled,
			"totalWeight": receipt.Draw.TotalWeight,
			"recordedAt":  receipt.Draw.CreatedAt,
		},
	})
}

// writeOpenError maps settlement failures onto HTTP statuses. Storage
// failures are the only retryable kind; everything else is final for the
// request that produced it.
func (h *Handler) writeOpenError(c *gin.Context, userID, caseID int64, err error) {
	switch {
	case errors.Is(err, cases.ErrUnknownCase):
		c.JSON(http.StatusNotFound, gin.H{"error": "case_not_found"})
	case errors.Is(err, service.ErrUnknownUser):
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient_funds"})
	case errors.Is(err, draw.ErrEmptyPool):
		log.Error().Err(err).Int64("case_id", caseID).Msg("Published case has empty pool")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "empty_pool"})
	default:
		log.Error().Err(err).
			Int64("user_id", userID).
			Int64("case_id", caseID).
			Msg("Settlement failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage_failure", "retryable": true})
	}
}

// Register creates a new account with a zero balance.
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_username"})
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username_taken"})
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("Registration failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage_failure", "retryable": true})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       account.ID,
		"username": account.Username,
		"balance":  account.Balance,
	})
}

// GetSummary returns the account summary for the authenticated user.
func (h *Handler) GetSummary(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	summary, err := h.accounts.Summary(c.Request.Context(), uid)
	if err != nil {
		h.writeReadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             summary.Account.ID,
		"username":       summary.Account.Username,
		"balance":        summary.Account.Balance,
		"totalSpent":     summary.Account.TotalSpent,
		"inventoryValue": summary.InventoryValue,
		"itemCount":      summary.ItemCount,
		"roi":            summary.ROI,
	})
}

// GetInventory returns the authenticated user's inventory.
func (h *Handler) GetInventory(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	items, err := h.accounts.Inventory(c.Request.Context(), uid)
	if err != nil {
		h.writeReadError(c, err)
		return
	}

	views := make([]gin.H, 0, len(items))
	for _, it := range items {
		views = append(views, gin.H{
			"itemId":   it.ItemID,
			"name":     it.Name,
			"rarity":   it.Rarity,
			"value":    it.Value,
			"quantity": it.Quantity,
		})
	}
	c.JSON(http.StatusOK, gin.H{"inventory": views})
}

// GetHistory returns the authenticated user's acquisition feed.
func (h *Handler) GetHistory(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	events, err := h.accounts.History(c.Request.Context(), uid)
	if err != nil {
		h.writeReadError(c, err)
		return
	}

	views := make([]gin.H, 0, len(events))
	for _, ev := range events {
		views = append(views, gin.H{
			"caseId":     ev.CaseID,
			"caseName":   ev.CaseName,
			"itemId":     ev.ItemID,
			"itemName":   ev.ItemName,
			"rarity":     ev.Rarity,
			"value":      ev.Value,
			"acquiredAt": ev.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": views})
}

func (h *Handler) writeReadError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrUnknownUser) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
		return
	}
	log.Error().Err(err).Msg("Read failed")
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage_failure", "retryable": true})
}
