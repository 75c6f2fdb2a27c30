package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ingresskit/repair/internal/creditstore"
)

// CreditCheck requires an `Authorization: Bearer <key>` header and charges
// one credit per request against store, injecting X-Credit-Remaining.
// Grounded on original_source/server/main_saas_backup.py's
// require_api_key + charge_credit: missing/malformed Authorization is 401;
// a store error other than ErrOutOfCredits fails open (teacher's
// internal/http/middleware/quota.go fail-open policy); ErrOutOfCredits is
// 402, matching spec.md §6's error table. A nil store means metering is
// disabled (CREDIT_STORE_ENABLED unset or false, the default) and every
// request passes through unmetered.
func CreditCheck(store creditstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}

		const prefix = "Bearer "
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, prefix) || strings.TrimSpace(strings.TrimPrefix(auth, prefix)) == "" {
			c.Error(&ErrUnauthorized{Err: fmt.Errorf("missing api key")})
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorPayload{Error: "missing api key"})
			return
		}
		apiKey := strings.TrimSpace(strings.TrimPrefix(auth, prefix))

		remaining, err := store.Charge(apiKey, 1)
		if err != nil {
			if err == creditstore.ErrOutOfCredits {
				c.Error(&ErrPaymentRequired{Err: fmt.Errorf("out of credits")})
				c.AbortWithStatusJSON(http.StatusPaymentRequired, ErrorPayload{Error: "out of credits"})
				return
			}
			slog.Warn("credit check failed", "error", err)
			c.Next()
			return
		}

		c.Header("X-Credit-Remaining", fmt.Sprintf("%d", remaining))
		c.Next()
	}
}
