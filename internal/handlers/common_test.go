package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/krosit/flota-api/internal/repository"
	"github.com/krosit/flota-api/internal/services"
)

func TestParseListQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/withdrawals?page=3&per_page=50&search=drill&sort=date-desc", nil)

	query := parseListQuery(c)
	assert.Equal(t, 3, query.Page)
	assert.Equal(t, 50, query.PerPage)
	assert.Equal(t, "drill", query.Search)
	assert.Equal(t, "date", query.SortBy)
	assert.Equal(t, "desc", query.SortDir)
}

func TestParseListQueryDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/withdrawals", nil)

	query := parseListQuery(c)
	assert.Equal(t, 1, query.Page)
	assert.Equal(t, 20, query.PerPage)
	assert.Empty(t, query.SortBy)
}

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", services.NewValidationError("amount", "must be positive"), http.StatusBadRequest},
		{"tank floor", &services.TankFloorError{Level: 10, Requested: 100, Floor: -50}, http.StatusUnprocessableEntity},
		{"insufficient stock", &repository.InsufficientStockError{ProductID: 1, Available: 2, Requested: 5}, http.StatusUnprocessableEntity},
		{"return exceeds outstanding", &repository.ReturnExceedsOutstandingError{WithdrawalItemID: 1, Outstanding: 1, Requested: 2}, http.StatusUnprocessableEntity},
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"unauthorized", services.ErrUnauthorized, http.StatusForbidden},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"duplicate", services.ErrDuplicate, http.StatusConflict},
		{"invalid state", services.ErrInvalidState, http.StatusConflict},
		{"reconciliation entities missing", services.ErrMissingReconciliationEntities, http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
