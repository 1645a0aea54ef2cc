package save

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

type OrderCreator interface {
	CreateOrder(ctx context.Context, actor storage.Actor, carID int64, drafts []service.ItemDraft) (*storage.ServiceOrder, error)
}

type ItemAdder interface {
	AddItem(ctx context.Context, actor storage.Actor, orderID int64, draft service.ItemDraft) (*storage.ServiceOrder, error)
}

// ItemRequest - позиция заказа. Отсутствующие price/quantity и явный 0
// различаются, поэтому поля указатели.
type ItemRequest struct {
	Name     string `json:"name"`
	Category string `json:"category" validate:"required,oneof=part material labor"`
	Price    *int64 `json:"price"`
	Quantity *int   `json:"quantity"`
	PartID   *int64 `json:"part_id"`
}

func (i ItemRequest) Draft() service.ItemDraft {
	return service.ItemDraft{
		Name:     i.Name,
		Category: storage.Category(i.Category),
		Price:    i.Price,
		Quantity: i.Quantity,
		PartID:   i.PartID,
	}
}

type createOrderRequest struct {
	CarID int64         `json:"car_id" validate:"required,min=1"`
	Items []ItemRequest `json:"items" validate:"dive"`
}

func CreateOrder(log *slog.Logger, orders OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.CreateOrder"

		actor, ok := response.Actor(w, r)
		if !ok {
			return
		}

		var req createOrderRequest
		if !response.Decode(w, r, &req) {
			return
		}

		drafts := make([]service.ItemDraft, 0, len(req.Items))
		for _, item := range req.Items {
			drafts = append(drafts, item.Draft())
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := orders.CreateOrder(ctx, actor, req.CarID, drafts)
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		log.Info("order saved", slog.String("op", op), slog.Int64("order_id", order.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, order)
	}
}

func AddItem(log *slog.Logger, orders ItemAdder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.AddItem"

		actor, ok := response.Actor(w, r)
		if !ok {
			return
		}
		orderID, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		var req ItemRequest
		if !response.Decode(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := orders.AddItem(ctx, actor, orderID, req.Draft())
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, order)
	}
}
