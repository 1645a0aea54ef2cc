package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"autoservice/http-server/response"
	"autoservice/internal/service"
	"autoservice/internal/storage"
)

type OrderProvider interface {
	ListOrders(ctx context.Context, filter storage.OrderFilter) ([]storage.ServiceOrder, error)
	OrderDetails(ctx context.Context, orderID int64) (*service.OrderDetails, error)
}

// GetOrders - список заказов с фильтром ?status=&car_id=
func GetOrders(log *slog.Logger, orders OrderProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.GetOrders"

		filter := storage.OrderFilter{Status: storage.OrderStatus(r.URL.Query().Get("status"))}
		if carStr := r.URL.Query().Get("car_id"); carStr != "" {
			carID, err := strconv.ParseInt(carStr, 10, 64)
			if err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ErrorResponse{Error: "invalid car_id"})
				return
			}
			filter.CarID = carID
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := orders.ListOrders(ctx, filter)
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}
		if list == nil {
			list = []storage.ServiceOrder{}
		}

		render.JSON(w, r, list)
	}
}

func GetOrderDetails(log *slog.Logger, orders OrderProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.GetOrderDetails"

		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		details, err := orders.OrderDetails(ctx, id)
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, details)
	}
}
