package generate_excel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"autoservice/http-server/response"
	"autoservice/internal/service"
	"autoservice/internal/storage"
)

type GenerateExcelHandler interface {
	GenerateExcel(ctx context.Context, actor storage.Actor, apprenticeID int64, window service.Window) ([]byte, error)
}

// GenerateEarningsExcel - GET /api/report/earnings/{apprenticeID}?window=
func GenerateEarningsExcel(log *slog.Logger, gen GenerateExcelHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.GenerateEarningsExcel"

		actor, ok := response.Actor(w, r)
		if !ok {
			return
		}
		apprenticeID, ok := response.IDParam(w, r, "apprenticeID")
		if !ok {
			return
		}
		window := service.Window(r.URL.Query().Get("window"))
		if window == "" {
			window = service.WindowMonth
		}

		// На Excel можно побольше времени
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		excelBytes, err := gen.GenerateExcel(ctx, actor, apprenticeID, window)
		if err != nil {
			response.Error(w, r, log, op, err)
			return
		}

		fileName := fmt.Sprintf("Earnings_%d_%s_%s.xlsx", apprenticeID, window, time.Now().Format("2006-01-02_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		if _, err := w.Write(excelBytes); err != nil {
			log.Error("failed to write excel", slog.String("op", op), slog.Any("err", err))
		}
	}
}
