package service

import (
	"context"
	"fmt"
	"time"

	"autoservice/internal/storage"
)

type Window string

const (
	WindowToday     Window = "today"
	WindowYesterday Window = "yesterday"
	WindowWeek      Window = "week"
	WindowMonth     Window = "month"
	WindowYear      Window = "year"
	WindowAll       Window = "all"
)

// Bounds returns the [from, to) range of the window in now's location.
// Zero values mean an open bound.
func (w Window) Bounds(now time.Time) (from, to time.Time, err error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch w {
	case WindowToday:
		return day, day.AddDate(0, 0, 1), nil
	case WindowYesterday:
		return day.AddDate(0, 0, -1), day, nil
	case WindowWeek:
		return day.AddDate(0, 0, -6), day.AddDate(0, 0, 1), nil
	case WindowMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, 0), nil
	case WindowYear:
		first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(1, 0, 0), nil
	case WindowAll, "":
		return time.Time{}, time.Time{}, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidWindow, w)
}

type EarningsHistory struct {
	ApprenticeID   int64             `json:"apprentice_id"`
	ApprenticeName string            `json:"apprentice_name"`
	Window         Window            `json:"window"`
	From           *time.Time        `json:"from,omitempty"`
	To             *time.Time        `json:"to,omitempty"`
	Entries        []storage.Earning `json:"entries"`
	Total          int64             `json:"total"`
	TotalFormatted string            `json:"total_formatted"`
	// Balance - все начисления ученика за все время.
	Balance int64 `json:"balance"`
}

// EarningsHistory lists credited tasks of an apprentice whose completion time
// falls into window. Apprentices can only see their own history.
func (s *Service) EarningsHistory(ctx context.Context, actor storage.Actor, apprenticeID int64, window Window) (*EarningsHistory, error) {
	const op = "service.earnings.EarningsHistory"

	if actor.Role == storage.RoleApprentice && actor.UserID != apprenticeID {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	from, to, err := window.Bounds(s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if window == "" {
		window = WindowAll
	}

	user, err := s.storage.GetUser(ctx, apprenticeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries, err := s.storage.ListEarnings(ctx, apprenticeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if entries == nil {
		entries = []storage.Earning{}
	}

	h := &EarningsHistory{
		ApprenticeID:   user.ID,
		ApprenticeName: user.Name,
		Window:         window,
		Entries:        entries,
		Balance:        user.Earnings,
	}
	if !from.IsZero() {
		h.From, h.To = &from, &to
	}
	for _, e := range entries {
		h.Total += e.Amount
	}
	h.TotalFormatted = FormatSum(h.Total)

	return h, nil
}

func (s *Service) Balance(ctx context.Context, apprenticeID int64) (int64, error) {
	const op = "service.earnings.Balance"

	user, err := s.storage.GetUser(ctx, apprenticeID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return user.Earnings, nil
}
