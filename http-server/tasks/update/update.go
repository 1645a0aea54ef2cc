package update

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"autoservice/http-server/response"
	"autoservice/internal/storage"
)

type TaskStepper interface {
	StartTask(ctx context.Context, actor storage.Actor, taskID int64) (*storage.Task, error)
	CompleteTask(ctx context.Context, actor storage.Actor, taskID int64) (*storage.Task, error)
	RestartTask(ctx context.Context, actor storage.Actor, taskID int64) (*storage.Task, error)
}

type PaymentUpdater interface {
	UpdatePayment(ctx context.Context, actor storage.Actor, taskID int64, payment int64) (*storage.Task, error)
}

type PaymentRequest struct {
	Payment *int64 `json:"payment" validate:"required,gte=0"`
}

type stepFunc func(ctx context.Context, actor storage.Actor, taskID int64) (*storage.Task, error)

// ChangeStatus - POST /api/tasks/{id}/{action}
func ChangeStatus(log *slog.Logger, tasks TaskStepper) http.HandlerFunc {
	steps := map[string]stepFunc{
		"start":    tasks.StartTask,
		"complete": tasks.CompleteTask,
		"restart":  tasks.RestartTask,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tasks.ChangeStatus"

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

		task, err := step(ctx, actor, id)
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, task)
	}
}

func UpdatePayment(log *slog.Logger, tasks PaymentUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tasks.UpdatePayment"

		actor, ok := response.Actor(w, r)
		if !ok {
			return
		}
		id, ok := response.IDParam(w, r, "id")
		if !ok {
			return
		}

		var req PaymentRequest
		if !response.Decode(w, r, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		task, err := tasks.UpdatePayment(ctx, actor, id, *req.Payment)
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, task)
	}
}
