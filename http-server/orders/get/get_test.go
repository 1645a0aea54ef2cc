package get

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"autoservice/internal/service"
	"autoservice/internal/storage"
)

type MockOrderProvider struct {
	mock.Mock
}

func (m *MockOrderProvider) ListOrders(ctx context.Context, filter storage.OrderFilter) ([]storage.ServiceOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ServiceOrder), args.Error(1)
}

func (m *MockOrderProvider) OrderDetails(ctx context.Context, orderID int64) (*service.OrderDetails, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OrderDetails), args.Error(1)
}

func TestGetOrders_Filter(t *testing.T) {
	m := new(MockOrderProvider)
	m.On("ListOrders", mock.Anything, storage.OrderFilter{Status: storage.OrderRejected, CarID: 4}).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/orders?status=rejected&car_id=4", nil)
	rr := httptest.NewRecorder()
	GetOrders(slog.Default(), m).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	m.AssertExpectations(t)
}

func TestGetOrders_BadCar(t *testing.T) {
	m := new(MockOrderProvider)

	req := httptest.NewRequest(http.MethodGet, "/api/orders?car_id=x", nil)
	rr := httptest.NewRecorder()
	GetOrders(slog.Default(), m).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"invalid car_id"}`, rr.Body.String())
}

func TestGetOrderDetails_NotFound(t *testing.T) {
	m := new(MockOrderProvider)
	m.On("OrderDetails", mock.Anything, int64(77)).Return(nil, fmt.Errorf("service.order.OrderDetails: %w", service.ErrNotFound))

	router := chi.NewRouter()
	router.Get("/api/orders/{id}", GetOrderDetails(slog.Default(), m))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/77", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
