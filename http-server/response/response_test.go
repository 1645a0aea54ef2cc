package response

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoservice/internal/service"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("op: %w", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("op: %w", service.ErrOutOfStock), http.StatusConflict},
		{fmt.Errorf("op: %w", service.ErrInvalidTransition), http.StatusConflict},
		{fmt.Errorf("op: %w", service.ErrMissingAssignee), http.StatusUnprocessableEntity},
		{fmt.Errorf("op: %w", service.ErrInvalidReasonLength), http.StatusUnprocessableEntity},
		{fmt.Errorf("op: %w", service.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestError_HidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(rr, req, slog.Default(), "test", fmt.Errorf("storage.mysql.GetOrder: dial tcp: refused"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body.Error)
}

func TestError_TrimsOpPrefix(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := fmt.Errorf("service.inventory.ReserveConsumption: storage.memory.ConsumeStock: part 1 has 0, need 2: %w", service.ErrOutOfStock)
	Error(rr, req, slog.Default(), "test", err)

	assert.Equal(t, http.StatusConflict, rr.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "out of stock", body.Error)
}

func TestDecode_Validation(t *testing.T) {
	var req struct {
		Name string `json:"name" validate:"required"`
	}

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	ok := Decode(rr, r, &req)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "field is required", body.Details["name"])
}
