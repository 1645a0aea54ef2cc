package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"autoservice/http-server/response"
	"autoservice/internal/service"
	"autoservice/internal/storage"
)

type EarningsProvider interface {
	EarningsHistory(ctx context.Context, actor storage.Actor, apprenticeID int64, window service.Window) (*service.EarningsHistory, error)
}

// GetEarnings - GET /api/earnings/{apprenticeID}?window=today|yesterday|week|month|year|all
func GetEarnings(log *slog.Logger, earnings EarningsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.earnings.GetEarnings"

		actor, ok := response.Actor(w, r)
		if !ok {
			return
		}
		apprenticeID, ok := response.IDParam(w, r, "apprenticeID")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		history, err := earnings.EarningsHistory(ctx, actor, apprenticeID, service.Window(r.URL.Query().Get("window")))
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, history)
	}
}
