package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"autoservice/http-server/response"
	"autoservice/internal/storage"
)

type PartCreator interface {
	CreateOnDemand(ctx context.Context, name string, price int64, category storage.Category) (*storage.SparePart, error)
}

type PartRestocker interface {
	Restock(ctx context.Context, partID int64, qty int) (*storage.SparePart, error)
}

type createRequest struct {
	Name     string `json:"name" validate:"required"`
	Price    int64  `json:"price"`
	Category string `json:"category" validate:"required,oneof=part material labor"`
}

// CreatePart заводит позицию каталога, которой еще нет (остаток 0).
func CreatePart(log *slog.Logger, parts PartCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.parts.CreatePart"

		var req createRequest
		if !response.Decode(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		part, err := parts.CreateOnDemand(ctx, req.Name, req.Price, storage.Category(req.Category))
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, part)
	}
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func RestockPart(log *slog.Logger, parts PartRestocker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.parts.RestockPart"

		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		var req restockRequest
		if !response.Decode(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		part, err := parts.Restock(ctx, id, req.Quantity)
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, part)
	}
}
