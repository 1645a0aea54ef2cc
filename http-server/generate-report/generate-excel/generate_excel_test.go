package generate_excel

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"autoservice/internal/middleware/auth"
	"autoservice/internal/service"
	"autoservice/internal/storage"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateExcel(ctx context.Context, actor storage.Actor, apprenticeID int64, window service.Window) ([]byte, error) {
	args := m.Called(ctx, actor, apprenticeID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func serve(m *MockGenerator, url string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Get("/api/report/earnings/{apprenticeID}", GenerateEarningsExcel(slog.Default(), m))

	req := httptest.NewRequest(http.MethodGet, url, nil)
	req = req.WithContext(auth.WithActor(req.Context(), storage.Actor{UserID: 3, Role: storage.RoleApprentice}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestGenerateEarningsExcel_DefaultWindow(t *testing.T) {
	m := new(MockGenerator)
	m.On("GenerateExcel", mock.Anything, mock.Anything, int64(3), service.WindowMonth).Return([]byte("xlsx"), nil)

	rr := serve(m, "/api/report/earnings/3")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Earnings_3_month_")
	assert.Equal(t, "xlsx", rr.Body.String())
}

func TestGenerateEarningsExcel_Forbidden(t *testing.T) {
	m := new(MockGenerator)
	m.On("GenerateExcel", mock.Anything, mock.Anything, int64(5), service.WindowAll).Return(nil, service.ErrForbidden)

	rr := serve(m, "/api/report/earnings/5?window=all")

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
