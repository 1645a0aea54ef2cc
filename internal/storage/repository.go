package storage

import (
	"context"
	"time"
)

// Repository is the set of persistence operations the service layer works with.
// Implementations must return ErrNotFound, ErrOutOfStock, ErrDuplicateName
// and ErrStaleVersion (wrapped) for the corresponding conditions.
type Repository interface {
	SearchParts(ctx context.Context, query string, limit int) ([]SparePart, error)
	GetPart(ctx context.Context, id int64) (*SparePart, error)
	GetPartByName(ctx context.Context, name string) (*SparePart, error)
	CreatePart(ctx context.Context, part *SparePart) error
	// ConsumeStock атомарно списывает qty и увеличивает счетчик использования.
	ConsumeStock(ctx context.Context, id int64, qty int) error
	AddStock(ctx context.Context, id int64, qty int) error

	GetCar(ctx context.Context, id int64) (*Car, error)
	GetUser(ctx context.Context, id int64) (*User, error)

	CreateOrder(ctx context.Context, order *ServiceOrder) error
	GetOrder(ctx context.Context, id int64) (*ServiceOrder, error)
	// UpdateOrder пишет заказ, если версия не менялась, и увеличивает order.Version.
	UpdateOrder(ctx context.Context, order *ServiceOrder) error
	ListOrders(ctx context.Context, filter OrderFilter) ([]ServiceOrder, error)

	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, id int64) (*Task, error)
	UpdateTask(ctx context.Context, task *Task) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)

	// CreditEarning returns false when the (task, event) pair was already credited.
	CreditEarning(ctx context.Context, earning *Earning) (bool, error)
	// ListEarnings filters by completion time, zero bounds are open.
	ListEarnings(ctx context.Context, apprenticeID int64, from, to time.Time) ([]Earning, error)
}

// Storage runs fn atomically: either every write made through repo is kept or none is.
type Storage interface {
	Repository
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
