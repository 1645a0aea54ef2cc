package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"autoservice/http-server/response"
	"autoservice/internal/storage"
)

type PartLookup interface {
	Lookup(ctx context.Context, prefix string) ([]storage.SparePart, error)
}

// LookupParts - автодополнение по каталогу: GET /api/parts?q=
func LookupParts(log *slog.Logger, parts PartLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.parts.LookupParts"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		found, err := parts.Lookup(ctx, r.URL.Query().Get("q"))
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, found)
	}
}
