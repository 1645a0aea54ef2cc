package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"autoservice/internal/middleware/auth"
	"autoservice/internal/service"
	"autoservice/internal/storage"
)

var validate = validator.New()

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// StatusOf переводит доменную ошибку в HTTP статус.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrDuplicateName),
		errors.Is(err, service.ErrOutOfStock),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrTasksIncomplete),
		errors.Is(err, service.ErrStaleVersion):
		return http.StatusConflict
	case errors.Is(err, service.ErrMissingAssignee),
		errors.Is(err, service.ErrMissingDueDate),
		errors.Is(err, service.ErrInvalidReasonLength),
		errors.Is(err, service.ErrNotLaborItem),
		errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error логирует и отвечает JSON ошибкой. Для 500 текст ошибки наружу не отдается.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string, err error) {
	status := StatusOf(err)

	var msg string
	if status == http.StatusInternalServerError {
		log.Error("request failed", slog.String("op", op), slog.String("error", err.Error()))
		msg = "internal error"
	} else {
		log.Warn("request rejected", slog.String("op", op), slog.String("error", err.Error()))
		msg = clientMessage(err)
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

func clientMessage(err error) string {
	for _, known := range []error{
		service.ErrOutOfStock, service.ErrDuplicateName, service.ErrInvalidTransition,
		service.ErrMissingAssignee, service.ErrMissingDueDate, service.ErrInvalidReasonLength,
		service.ErrForbidden, service.ErrNotLaborItem, service.ErrItemNotFound,
		service.ErrTasksIncomplete, service.ErrInvalidWindow, service.ErrStaleVersion,
		service.ErrNotFound, service.ErrInvalidInput,
	} {
		if errors.Is(err, known) {
			// полный текст содержит op-префиксы, отдаем только хвост после sentinel
			full := err.Error()
			if i := strings.Index(full, known.Error()); i >= 0 {
				return full[i:]
			}
			return known.Error()
		}
	}
	return err.Error()
}

// Decode reads a JSON body into dst and validates it.
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Некорректный JSON"})
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "validation failed", Details: formatValidationErrors(verrs)})
			return false
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "internal validation error"})
		return false
	}
	return true
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			details[field] = "field is required"
		case "oneof":
			details[field] = "must be one of: " + fe.Param()
		case "min", "gte":
			details[field] = "must be at least " + fe.Param()
		default:
			details[field] = fmt.Sprintf("failed on %s", fe.Tag())
		}
	}
	return details
}

// IDParam parses a positive integer URL parameter.
func IDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

// Actor достает пользователя, положенного auth middleware.
func Actor(w http.ResponseWriter, r *http.Request) (storage.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "unauthorized"})
	}
	return actor, ok
}
