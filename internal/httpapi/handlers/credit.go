package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ingresskit/repair/internal/creditstore"
	"github.com/ingresskit/repair/internal/httpapi/middleware"
)

// CreditHandler exposes the optional Credit Store's get/add operations over
// HTTP, grounded on original_source/server/main_saas_backup.py's
// require_api_key/charge_credit/admin_credit endpoints (SPEC_FULL.md §6).
// Nil store means the feature is disabled (CREDIT_STORE_ENABLED unset or
// false, the default).
type CreditHandler struct {
	store      creditstore.Store
	adminToken string
}

func NewCreditHandler(store creditstore.Store, adminToken string) *CreditHandler {
	return &CreditHandler{store: store, adminToken: adminToken}
}

// Balance answers GET /v1/credit/balance. Requires Authorization: Bearer
// <key>.
func (h *CreditHandler) Balance(c *gin.Context) {
	if h.store == nil {
		c.Error(&middleware.ErrInternal{Err: fmt.Errorf("credit store is not configured")})
		return
	}

	key, ok := bearerKey(c)
	if !ok {
		c.Error(&middleware.ErrUnauthorized{Err: fmt.Errorf("missing bearer api key")})
		return
	}

	balance, err := h.store.Balance(key)
	if err != nil {
		c.Error(&middleware.ErrInternal{Err: err})
		return
	}
	c.JSON(200, gin.H{"key": key, "balance": balance})
}

type adminCreditRequest struct {
	Key    string `json:"key"`
	Amount int64  `json:"amount"`
}

// AdminCredit answers POST /v1/admin/credit. Requires X-Admin-Token to
// match the configured admin token, adds amount credits to key, and returns
// the new balance.
func (h *CreditHandler) AdminCredit(c *gin.Context) {
	if h.store == nil {
		c.Error(&middleware.ErrInternal{Err: fmt.Errorf("credit store is not configured")})
		return
	}
	if h.adminToken == "" || c.GetHeader("X-Admin-Token") != h.adminToken {
		c.Error(&middleware.ErrUnauthorized{Err: fmt.Errorf("invalid admin token")})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("invalid_json: %w", err)})
		return
	}
	var req adminCreditRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("invalid_json: %w", err)})
		return
	}
	if req.Key == "" || req.Amount <= 0 {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("invalid_json: key and a positive amount are required")})
		return
	}

	balance, err := h.store.AddCredits(req.Key, req.Amount)
	if err != nil {
		c.Error(&middleware.ErrInternal{Err: err})
		return
	}
	c.JSON(200, gin.H{"key": req.Key, "balance": balance})
}

func bearerKey(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	key := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	if key == "" {
		return "", false
	}
	return key, true
}
