package save

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"

	"autoservice/http-server/response"
	"autoservice/internal/service"
	"autoservice/internal/storage"
)

type Delegator interface {
	Delegate(ctx context.Context, actor storage.Actor, in service.DelegateInput) ([]storage.Task, error)
}

// DelegateRequest - тело POST /api/orders/{id}/tasks.
// Исполнитель и срок проверяются сервисом, чтобы ответ был 422, а не 400.
type DelegateRequest struct {
	AssigneeID     int64   `json:"assignee_id"`
	DueDate        string  `json:"due_date"`
	Priority       string  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	EstimatedHours float64 `json:"estimated_hours" validate:"gte=0"`
	Title          string  `json:"title"`
	ItemIndexes    []int   `json:"item_indexes" validate:"dive,gte=0"`
	Batch          bool    `json:"batch"`
}

// parseDueDate принимает RFC3339 или просто дату 2006-01-02.
func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func Delegate(log *slog.Logger, delegator Delegator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tasks.Delegate"

		actor, ok := response.Actor(w, r)
		if !ok {
			return
		}
		orderID, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		var req DelegateRequest
		if !response.Decode(w, r, &req) {
			return
		}

		due, err := parseDueDate(req.DueDate)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorResponse{Error: "Неверный формат due_date"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		tasks, err := delegator.Delegate(ctx, actor, service.DelegateInput{
			OrderID:        orderID,
			ItemIndexes:    req.ItemIndexes,
			AssigneeID:     req.AssigneeID,
			DueDate:        due,
			Priority:       storage.Priority(req.Priority),
			EstimatedHours: req.EstimatedHours,
			Title:          req.Title,
			Batch:          req.Batch,
		})
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		log.Info("tasks delegated", slog.Int64("order_id", orderID), slog.Int("count", len(tasks)))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, tasks)
	}
}
