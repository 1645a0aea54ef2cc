package approval

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"autoservice/http-server/response"
	"autoservice/internal/storage"
)

// IdempotencyHeader несет идентификатор события одобрения.
// Повторный запрос с тем же ключом не начисляет заработок повторно.
const IdempotencyHeader = "Idempotency-Key"

type Approver interface {
	Approve(ctx context.Context, actor storage.Actor, orderID int64, eventID string) (*storage.ServiceOrder, error)
	Reject(ctx context.Context, actor storage.Actor, orderID int64, reason string) (*storage.ServiceOrder, error)
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func Approve(log *slog.Logger, approver Approver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.approval.Approve"

		actor, ok := response.Actor(w, r)
		if !ok {
			return
		}
		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := approver.Approve(ctx, actor, id, r.Header.Get(IdempotencyHeader))
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		log.Info("order approved", slog.Int64("order_id", id), slog.String("event_id", order.ApprovalEventID))
		render.JSON(w, r, order)
	}
}

func Reject(log *slog.Logger, approver Approver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.approval.Reject"

		actor, ok := response.Actor(w, r)
		if !ok {
			return
		}
		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		var req RejectRequest
		if !response.Decode(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := approver.Reject(ctx, actor, id, req.Reason)
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, order)
	}
}
