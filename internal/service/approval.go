package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/gofrs/uuid"

	"autoservice/internal/notify"
	"autoservice/internal/storage"
)

const minReasonLength = 3

// Approve closes a ready-for-delivery order and credits every apprentice for
// each task that was not approved yet. eventID identifies this approval: a
// retry with the same id returns the approved order without crediting again.
// An empty eventID gets a fresh one.
func (s *Service) Approve(ctx context.Context, actor storage.Actor, orderID int64, eventID string) (*storage.ServiceOrder, error) {
	const op = "service.approval.Approve"

	if err := requireRole(actor, storage.RoleMaster); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if eventID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("%s: event id: %w", op, err)
		}
		eventID = id.String()
	} else if _, err := uuid.FromString(eventID); err != nil {
		return nil, fmt.Errorf("%s: %w: event id %q", op, ErrInvalidInput, eventID)
	}

	var (
		order    *storage.ServiceOrder
		credited int64
	)
	err := s.inOrder(ctx, orderID, func(ctx context.Context, repo storage.Repository) error {
		var err error
		if order, err = repo.GetOrder(ctx, orderID); err != nil {
			return err
		}
		if order.Status == storage.OrderApproved && order.ApprovalEventID == eventID {
			return nil
		}
		if err := s.applyOrderEvent(order, EventApprove); err != nil {
			return err
		}
		order.ApprovalEventID = eventID

		tasks, err := repo.ListTasks(ctx, storage.TaskFilter{OrderID: order.ID})
		if err != nil {
			return err
		}
		now := s.clock.Now()
		for _, task := range syncTasks(tasks, EventApprove) {
			if task.CompletedAt == nil {
				task.CompletedAt = &now
			}
			ok, err := repo.CreditEarning(ctx, &storage.Earning{
				ApprenticeID: task.AssigneeID,
				TaskID:       task.ID,
				OrderID:      order.ID,
				TaskTitle:    task.Title,
				Amount:       task.Payment,
				EventID:      eventID,
				CompletedAt:  *task.CompletedAt,
				CreditedAt:   now,
			})
			if err != nil {
				return fmt.Errorf("credit task %d: %w", task.ID, err)
			}
			if ok {
				credited += task.Payment
			}
			if err := repo.UpdateTask(ctx, &task); err != nil {
				return err
			}
		}
		return repo.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("order approved",
		slog.String("op", op),
		slog.Int64("order_id", order.ID),
		slog.String("event_id", eventID),
		slog.Int64("credited", credited),
	)
	return order, nil
}

// Reject returns the order to the workshop with a reason. Nothing is credited.
func (s *Service) Reject(ctx context.Context, actor storage.Actor, orderID int64, reason string) (*storage.ServiceOrder, error) {
	const op = "service.approval.Reject"

	if err := requireRole(actor, storage.RoleMaster); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < minReasonLength {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidReasonLength)
	}

	var (
		order    *storage.ServiceOrder
		rejected []storage.Task
	)
	err := s.inOrder(ctx, orderID, func(ctx context.Context, repo storage.Repository) error {
		var err error
		if order, err = repo.GetOrder(ctx, orderID); err != nil {
			return err
		}
		if err := s.applyOrderEvent(order, EventReject); err != nil {
			return err
		}
		order.RejectionReason = reason

		tasks, err := repo.ListTasks(ctx, storage.TaskFilter{OrderID: order.ID})
		if err != nil {
			return err
		}
		rejected = syncTasks(tasks, EventReject)
		for i := range rejected {
			if err := repo.UpdateTask(ctx, &rejected[i]); err != nil {
				return err
			}
		}
		return repo.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	notice := notify.RejectionNotice{
		OrderID:    order.ID,
		CarID:      order.CarID,
		Reason:     reason,
		RejectedBy: actor.UserID,
		RejectedAt: order.UpdatedAt,
	}
	for _, t := range rejected {
		notice.TaskIDs = append(notice.TaskIDs, t.ID)
		notice.AssigneeIDs = append(notice.AssigneeIDs, t.AssigneeID)
	}
	if err := s.notifier.NotifyRejection(ctx, notice); err != nil {
		s.log.Error("failed to send rejection notice",
			slog.String("op", op),
			slog.Int64("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	return order, nil
}

// Restart reopens a rejected order. Items and totals are kept.
func (s *Service) Restart(ctx context.Context, actor storage.Actor, orderID int64) (*storage.ServiceOrder, error) {
	const op = "service.approval.Restart"

	if err := requireRole(actor, storage.RoleMaster, storage.RoleOperator); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var order *storage.ServiceOrder
	err := s.inOrder(ctx, orderID, func(ctx context.Context, repo storage.Repository) error {
		var err error
		if order, err = repo.GetOrder(ctx, orderID); err != nil {
			return err
		}
		_, err = s.restartOrder(ctx, repo, order, 0)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// restartOrder переводит заказ в pending, задачи в assigned. Задача resumeTaskID
// (если задана) сразу уходит в работу, и тогда заказ тоже становится in-progress.
func (s *Service) restartOrder(ctx context.Context, repo storage.Repository, order *storage.ServiceOrder, resumeTaskID int64) ([]storage.Task, error) {
	if err := s.applyOrderEvent(order, EventRestart); err != nil {
		return nil, err
	}
	order.RejectionReason = ""

	tasks, err := repo.ListTasks(ctx, storage.TaskFilter{OrderID: order.ID})
	if err != nil {
		return nil, err
	}

	restarted := syncTasks(tasks, EventRestart)
	resumed := false
	for i := range restarted {
		if restarted[i].ID == resumeTaskID {
			if restarted[i].Status, err = nextTaskStatus(restarted[i].Status, EventStart); err != nil {
				return nil, err
			}
			resumed = true
		}
		if err := repo.UpdateTask(ctx, &restarted[i]); err != nil {
			return nil, err
		}
	}

	if resumed {
		if err := s.applyOrderEvent(order, EventStart); err != nil {
			return nil, err
		}
	}
	if err := repo.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	return restarted, nil
}
