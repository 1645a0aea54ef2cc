package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/im7mortal/kmutex"
	"github.com/juju/clock"

	"autoservice/internal/notify"
	"autoservice/internal/storage"
)

const (
	defaultLookupMinLength = 2
	defaultLookupLimit     = 20
)

// Notifier доставляет уведомление об отклонении заказа.
type Notifier interface {
	NotifyRejection(ctx context.Context, notice notify.RejectionNotice) error
}

type Service struct {
	log      *slog.Logger
	storage  storage.Storage
	clock    clock.Clock
	locks    *kmutex.Kmutex
	notifier Notifier

	lookupMinLength int
	lookupLimit     int
}

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLookup overrides the minimum prefix length and the result cap of Lookup.
func WithLookup(minLength, limit int) Option {
	return func(s *Service) {
		if minLength > 0 {
			s.lookupMinLength = minLength
		}
		if limit > 0 {
			s.lookupLimit = limit
		}
	}
}

func New(log *slog.Logger, st storage.Storage, opts ...Option) *Service {
	s := &Service{
		log:             log,
		storage:         st,
		clock:           clock.WallClock,
		locks:           kmutex.New(),
		lookupMinLength: defaultLookupMinLength,
		lookupLimit:     defaultLookupLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(log)
	}
	return s
}

// inOrder serializes work on one order inside this process and runs fn in a
// storage transaction. Cross-process races are caught by row versions.
func (s *Service) inOrder(ctx context.Context, orderID int64, fn func(ctx context.Context, repo storage.Repository) error) error {
	s.locks.Lock(orderID)
	defer s.locks.Unlock(orderID)

	return s.storage.WithTx(ctx, fn)
}

func requireRole(actor storage.Actor, roles ...storage.Role) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
