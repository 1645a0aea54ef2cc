package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"autoservice/http-server/response"
	"autoservice/internal/storage"
)

type TaskLister interface {
	ListTasks(ctx context.Context, filter storage.TaskFilter) ([]storage.Task, error)
}

// GetTasks - GET /api/tasks?status=&assignee_id=&car_id=&order_id=
// Ученик всегда видит только свои задачи.
func GetTasks(log *slog.Logger, tasks TaskLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tasks.GetTasks"

		actor, ok := response.Actor(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		filter := storage.TaskFilter{Status: storage.TaskStatus(q.Get("status"))}
		for name, dst := range map[string]*int64{
			"assignee_id": &filter.AssigneeID,
			"car_id":      &filter.CarID,
			"order_id":    &filter.OrderID,
		} {
			v := q.Get(name)
			if v == "" {
				continue
			}
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ErrorResponse{Error: "invalid " + name})
				return
			}
			*dst = id
		}
		if actor.Role == storage.RoleApprentice {
			filter.AssigneeID = actor.UserID
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := tasks.ListTasks(ctx, filter)
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}
		if list == nil {
			list = []storage.Task{}
		}

		render.JSON(w, r, list)
	}
}
