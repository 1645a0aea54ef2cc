package update

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"autoservice/http-server/response"
	"autoservice/internal/storage"
)

type OrderStepper interface {
	StartOrder(ctx context.Context, actor storage.Actor, orderID int64) (*storage.ServiceOrder, error)
	CompleteOrder(ctx context.Context, actor storage.Actor, orderID int64) (*storage.ServiceOrder, error)
	MarkReadyForDelivery(ctx context.Context, actor storage.Actor, orderID int64) (*storage.ServiceOrder, error)
	Restart(ctx context.Context, actor storage.Actor, orderID int64) (*storage.ServiceOrder, error)
}

type ItemRemover interface {
	RemoveItem(ctx context.Context, actor storage.Actor, orderID int64, index int) (*storage.ServiceOrder, error)
}

type stepFunc func(ctx context.Context, actor storage.Actor, orderID int64) (*storage.ServiceOrder, error)

// ChangeStatus обрабатывает POST /api/orders/{id}/{action}.
func ChangeStatus(log *slog.Logger, orders OrderStepper) http.HandlerFunc {
	steps := map[string]stepFunc{
		"start":    orders.StartOrder,
		"complete": orders.CompleteOrder,
		"ready":    orders.MarkReadyForDelivery,
		"restart":  orders.Restart,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.ChangeStatus"

		actor, ok := response.Actor(w, r)
		if !ok {
			return
		}
		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		step, ok := steps[chi.URLParam(r, "action")]
		if !ok {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ErrorResponse{Error: "unknown action"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := step(ctx, actor, id)
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, order)
	}
}

// RemoveItem - DELETE /api/orders/{id}/items/{idx}. Склад не пополняется.
func RemoveItem(log *slog.Logger, orders ItemRemover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.RemoveItem"

		actor, ok := response.Actor(w, r)
		if !ok {
			return
		}
		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}
		idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorResponse{Error: "invalid item index"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := orders.RemoveItem(ctx, actor, id, idx)
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, order)
	}
}
