package service

import (
	"errors"

	"autoservice/internal/storage"
)

// Ошибки хранилища прокидываются как есть, чтобы вызывающие проверяли одну переменную.
var (
	ErrNotFound      = storage.ErrNotFound
	ErrOutOfStock    = storage.ErrOutOfStock
	ErrDuplicateName = storage.ErrDuplicateName
	ErrStaleVersion  = storage.ErrStaleVersion
)

var (
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrMissingAssignee     = errors.New("assignee is required")
	ErrMissingDueDate      = errors.New("due date is required")
	ErrInvalidReasonLength = errors.New("rejection reason must be at least 3 characters")
	ErrForbidden           = errors.New("operation is not allowed for this role")
	ErrNotLaborItem        = errors.New("only labor items can be delegated")
	ErrItemNotFound        = errors.New("line item not found")
	ErrTasksIncomplete     = errors.New("order has unfinished tasks")
	ErrInvalidWindow       = errors.New("unknown earnings window")
	ErrInvalidInput        = errors.New("invalid input")
)
