package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"autoservice/internal/storage"
)

type DelegateInput struct {
	OrderID int64
	// ItemIndexes выбирает позиции работ, пусто - все еще не делегированные работы.
	ItemIndexes    []int
	AssigneeID     int64
	DueDate        time.Time
	Priority       storage.Priority
	EstimatedHours float64
	Title          string
	// Batch creates one task for all selected items instead of one per item.
	Batch bool
}

func (in *DelegateInput) validate() error {
	if in.AssigneeID == 0 {
		return ErrMissingAssignee
	}
	if in.DueDate.IsZero() {
		return ErrMissingDueDate
	}
	if in.Priority == "" {
		in.Priority = storage.PriorityMedium
	}
	if !in.Priority.Valid() {
		return fmt.Errorf("%w: priority %q", ErrInvalidInput, in.Priority)
	}
	if in.EstimatedHours < 0 {
		return fmt.Errorf("%w: negative estimated hours", ErrInvalidInput)
	}
	return nil
}

// Delegate turns labor line items of an order into tasks for an apprentice.
// Task payment is the sum of the represented labor lines.
func (s *Service) Delegate(ctx context.Context, actor storage.Actor, in DelegateInput) ([]storage.Task, error) {
	const op = "service.delegation.Delegate"

	if err := requireRole(actor, storage.RoleMaster, storage.RoleOperator); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var created []storage.Task
	err := s.inOrder(ctx, in.OrderID, func(ctx context.Context, repo storage.Repository) error {
		order, err := repo.GetOrder(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if order.Status != storage.OrderPending && order.Status != storage.OrderInProgress {
			return fmt.Errorf("%w: cannot delegate work of %s order", ErrInvalidTransition, order.Status)
		}

		existing, err := repo.ListTasks(ctx, storage.TaskFilter{OrderID: order.ID})
		if err != nil {
			return err
		}
		labor, err := laborLines(order, in.ItemIndexes, coveredPositions(existing))
		if err != nil {
			return err
		}

		assignee, err := repo.GetUser(ctx, in.AssigneeID)
		if err != nil {
			return fmt.Errorf("assignee: %w", err)
		}
		if assignee.Role != storage.RoleApprentice {
			return fmt.Errorf("%w: user %d is not an apprentice", ErrInvalidInput, assignee.ID)
		}

		car, err := repo.GetCar(ctx, order.CarID)
		if err != nil {
			return fmt.Errorf("car: %w", err)
		}

		groups := [][]laborLine{labor}
		if !in.Batch {
			groups = groups[:0]
			for _, l := range labor {
				groups = append(groups, []laborLine{l})
			}
		}

		now := s.clock.Now()
		for _, lines := range groups {
			task := storage.Task{
				OrderID:        order.ID,
				CarID:          order.CarID,
				AssigneeID:     assignee.ID,
				AssigneeName:   assignee.Name,
				CarLabel:       car.Label(),
				Title:          taskTitle(in.Title, lines),
				Payment:        linesTotal(lines),
				ItemPositions:  linePositions(lines),
				DueDate:        in.DueDate,
				Priority:       in.Priority,
				EstimatedHours: in.EstimatedHours,
				Status:         storage.TaskAssigned,
				CreatedAt:      now,
			}
			if err := repo.CreateTask(ctx, &task); err != nil {
				return err
			}
			created = append(created, task)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("work delegated", "op", op, "order_id", in.OrderID, "assignee_id", in.AssigneeID, "tasks", len(created))
	return created, nil
}

// laborLine - работа заказа вместе с ее позицией в списке позиций.
type laborLine struct {
	position int
	storage.Line
}

// coveredPositions maps an order item position to the task that already covers it.
func coveredPositions(tasks []storage.Task) map[int]int64 {
	covered := make(map[int]int64)
	for _, t := range tasks {
		for _, pos := range t.ItemPositions {
			covered[pos] = t.ID
		}
	}
	return covered
}

// laborLines selects labor items to delegate. Without indexes it takes every
// labor item no task covers yet. Explicit indexes must be labor items, unique
// and not covered by another task.
func laborLines(order *storage.ServiceOrder, indexes []int, covered map[int]int64) ([]laborLine, error) {
	var lines []laborLine

	if len(indexes) == 0 {
		hasLabor := false
		for i, item := range order.Items {
			if item.Category() != storage.CategoryLabor {
				continue
			}
			hasLabor = true
			if _, ok := covered[i]; !ok {
				lines = append(lines, laborLine{position: i, Line: item.Details()})
			}
		}
		if !hasLabor {
			return nil, fmt.Errorf("%w: order %d has no labor items", ErrNotLaborItem, order.ID)
		}
		if len(lines) == 0 {
			return nil, fmt.Errorf("%w: all labor items of order %d are already delegated", ErrInvalidTransition, order.ID)
		}
		return lines, nil
	}

	seen := make(map[int]bool, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= len(order.Items) {
			return nil, fmt.Errorf("%w: index %d", ErrItemNotFound, idx)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: index %d is listed twice", ErrInvalidInput, idx)
		}
		seen[idx] = true

		item := order.Items[idx]
		if _, ok := item.(storage.LaborItem); !ok {
			return nil, fmt.Errorf("%w: item %d is %s", ErrNotLaborItem, idx, item.Category())
		}
		if taskID, ok := covered[idx]; ok {
			return nil, fmt.Errorf("%w: item %d is already delegated to task %d", ErrInvalidTransition, idx, taskID)
		}
		lines = append(lines, laborLine{position: idx, Line: item.Details()})
	}
	return lines, nil
}

func taskTitle(override string, lines []laborLine) string {
	if t := strings.TrimSpace(override); t != "" {
		return t
	}
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		names = append(names, l.Name)
	}
	return strings.Join(names, ", ")
}

func linesTotal(lines []laborLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Total()
	}
	return total
}

func linePositions(lines []laborLine) storage.ItemPositions {
	positions := make(storage.ItemPositions, 0, len(lines))
	for _, l := range lines {
		positions = append(positions, l.position)
	}
	return positions
}

// StartTask moves an assigned task to in-progress. A pending order starts
// together with its first task.
func (s *Service) StartTask(ctx context.Context, actor storage.Actor, taskID int64) (*storage.Task, error) {
	const op = "service.delegation.StartTask"

	task, err := s.taskStep(ctx, actor, taskID, func(ctx context.Context, repo storage.Repository, task *storage.Task, order *storage.ServiceOrder) error {
		next, err := nextTaskStatus(task.Status, EventStart)
		if err != nil {
			return err
		}
		task.Status = next

		if order.Status == storage.OrderPending {
			if err := s.applyOrderEvent(order, EventStart); err != nil {
				return err
			}
			return repo.UpdateOrder(ctx, order)
		}
		if order.Status != storage.OrderInProgress {
			return fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return task, nil
}

// CompleteTask stamps the completion time. When the last open task of an
// in-progress order is completed the order becomes completed as well.
func (s *Service) CompleteTask(ctx context.Context, actor storage.Actor, taskID int64) (*storage.Task, error) {
	const op = "service.delegation.CompleteTask"

	task, err := s.taskStep(ctx, actor, taskID, func(ctx context.Context, repo storage.Repository, task *storage.Task, order *storage.ServiceOrder) error {
		next, err := nextTaskStatus(task.Status, EventComplete)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		task.Status = next
		task.CompletedAt = &now

		if order.Status != storage.OrderInProgress {
			return nil
		}
		siblings, err := repo.ListTasks(ctx, storage.TaskFilter{OrderID: order.ID})
		if err != nil {
			return err
		}
		for i := range siblings {
			if siblings[i].ID == task.ID {
				siblings[i] = *task
			}
		}
		if !allTasksDone(siblings) {
			return nil
		}
		if err := s.applyOrderEvent(order, EventComplete); err != nil {
			return err
		}
		return repo.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return task, nil
}

// RestartTask is the apprentice side of a restart: the whole rejected order
// is restarted and this task resumes right away.
func (s *Service) RestartTask(ctx context.Context, actor storage.Actor, taskID int64) (*storage.Task, error) {
	const op = "service.delegation.RestartTask"

	if err := requireRole(actor, storage.RoleApprentice, storage.RoleMaster); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var restarted *storage.Task
	_, err := s.taskStep(ctx, actor, taskID, func(ctx context.Context, repo storage.Repository, task *storage.Task, order *storage.ServiceOrder) error {
		if task.Status != storage.TaskRejected {
			return fmt.Errorf("%w: task is %s", ErrInvalidTransition, task.Status)
		}
		tasks, err := s.restartOrder(ctx, repo, order, task.ID)
		if err != nil {
			return err
		}
		for i := range tasks {
			if tasks[i].ID == task.ID {
				restarted = &tasks[i]
			}
		}
		return errSkipTaskWrite
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return restarted, nil
}

func (s *Service) UpdatePayment(ctx context.Context, actor storage.Actor, taskID int64, payment int64) (*storage.Task, error) {
	const op = "service.delegation.UpdatePayment"

	if err := requireRole(actor, storage.RoleMaster, storage.RoleOperator); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if payment < 0 {
		return nil, fmt.Errorf("%s: %w: negative payment", op, ErrInvalidInput)
	}

	task, err := s.taskStep(ctx, actor, taskID, func(_ context.Context, _ storage.Repository, task *storage.Task, _ *storage.ServiceOrder) error {
		task.Payment = payment
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return task, nil
}

func (s *Service) ListTasks(ctx context.Context, filter storage.TaskFilter) ([]storage.Task, error) {
	const op = "service.delegation.ListTasks"

	tasks, err := s.storage.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tasks == nil {
		tasks = []storage.Task{}
	}
	return tasks, nil
}

func (s *Service) GetTask(ctx context.Context, taskID int64) (*storage.Task, error) {
	const op = "service.delegation.GetTask"

	task, err := s.storage.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return task, nil
}

// errSkipTaskWrite говорит taskStep, что шаг сам сохранил задачу.
var errSkipTaskWrite = errors.New("task already written")

// taskStep loads a task with its order under the order lock, runs step and
// saves the task. Apprentices may only touch their own tasks.
func (s *Service) taskStep(
	ctx context.Context,
	actor storage.Actor,
	taskID int64,
	step func(ctx context.Context, repo storage.Repository, task *storage.Task, order *storage.ServiceOrder) error,
) (*storage.Task, error) {
	probe, err := s.storage.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if actor.Role == storage.RoleApprentice && probe.AssigneeID != actor.UserID {
		return nil, fmt.Errorf("%w: task %d belongs to another apprentice", ErrForbidden, taskID)
	}

	var task *storage.Task
	err = s.inOrder(ctx, probe.OrderID, func(ctx context.Context, repo storage.Repository) error {
		var err error
		if task, err = repo.GetTask(ctx, taskID); err != nil {
			return err
		}
		order, err := repo.GetOrder(ctx, task.OrderID)
		if err != nil {
			return err
		}
		if err := step(ctx, repo, task, order); err != nil {
			if errors.Is(err, errSkipTaskWrite) {
				return nil
			}
			return err
		}
		return repo.UpdateTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}
