package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorContractStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"BadRequest maps to 400", &ErrBadRequest{Err: errors.New("bad")}, http.StatusBadRequest},
		{"Unauthorized maps to 401", &ErrUnauthorized{Err: errors.New("auth")}, http.StatusUnauthorized},
		{"PaymentRequired maps to 402", &ErrPaymentRequired{Err: errors.New("credits")}, http.StatusPaymentRequired},
		{"Internal maps to 500", &ErrInternal{Err: errors.New("boom")}, http.StatusInternalServerError},
		{"Unknown error maps to 500", errors.New("mystery"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.wantStatus {
				t.Errorf("statusForError() = %d, want %d", got, tt.wantStatus)
			}
		})
	}
}

func TestErrorHandlerWritesErrorPayload(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/test", func(c *gin.Context) {
		c.Error(&ErrBadRequest{Err: errors.New("invalid_json")})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var payload ErrorPayload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Error != "invalid_json" {
		t.Errorf("expected payload.Error to carry the underlying message, got %q", payload.Error)
	}
}

func TestErrorHandlerSkipsWrittenResponses(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
		c.Error(errors.New("should be ignored"))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
