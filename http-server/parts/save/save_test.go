package save

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"autoservice/internal/service"
	"autoservice/internal/storage"
)

type MockParts struct {
	mock.Mock
}

func (m *MockParts) CreateOnDemand(ctx context.Context, name string, price int64, category storage.Category) (*storage.SparePart, error) {
	args := m.Called(ctx, name, price, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.SparePart), args.Error(1)
}

func (m *MockParts) Restock(ctx context.Context, partID int64, qty int) (*storage.SparePart, error) {
	args := m.Called(ctx, partID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.SparePart), args.Error(1)
}

func TestCreatePart_Created(t *testing.T) {
	m := new(MockParts)
	m.On("CreateOnDemand", mock.Anything, "Timing belt", int64(120000), storage.CategoryPart).
		Return(&storage.SparePart{ID: 5, Name: "Timing belt", Price: 120000, Category: storage.CategoryPart}, nil)

	body := `{"name":"Timing belt","price":120000,"category":"part"}`
	req := httptest.NewRequest(http.MethodPost, "/api/parts", strings.NewReader(body))
	rr := httptest.NewRecorder()
	CreatePart(slog.Default(), m).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"stock":0`)
	m.AssertExpectations(t)
}

func TestCreatePart_Duplicate(t *testing.T) {
	m := new(MockParts)
	m.On("CreateOnDemand", mock.Anything, "Timing belt", int64(0), storage.CategoryPart).
		Return(nil, fmt.Errorf("service.inventory.CreateOnDemand: %w", service.ErrDuplicateName))

	req := httptest.NewRequest(http.MethodPost, "/api/parts", strings.NewReader(`{"name":"Timing belt","category":"part"}`))
	rr := httptest.NewRecorder()
	CreatePart(slog.Default(), m).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "duplicate name")
}

func TestCreatePart_BadCategory(t *testing.T) {
	m := new(MockParts)

	req := httptest.NewRequest(http.MethodPost, "/api/parts", strings.NewReader(`{"name":"Polish","category":"service"}`))
	rr := httptest.NewRecorder()
	CreatePart(slog.Default(), m).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	m.AssertNotCalled(t, "CreateOnDemand", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRestockPart(t *testing.T) {
	m := new(MockParts)
	m.On("Restock", mock.Anything, int64(5), 10).Return(&storage.SparePart{ID: 5, Stock: 10}, nil)

	router := chi.NewRouter()
	router.Post("/api/parts/{id}/restock", RestockPart(slog.Default(), m))

	req := httptest.NewRequest(http.MethodPost, "/api/parts/5/restock", strings.NewReader(`{"quantity":10}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	m.AssertExpectations(t)
}
