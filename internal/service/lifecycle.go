package service

import (
	"fmt"

	"autoservice/internal/storage"
)

type Event string

const (
	EventStart    Event = "start"
	EventComplete Event = "complete"
	EventReady    Event = "ready"
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventRestart  Event = "restart"
)

// Единственная таблица переходов заказа. Все, чего нет в таблице, запрещено.
var orderTransitions = map[storage.OrderStatus]map[Event]storage.OrderStatus{
	storage.OrderPending:          {EventStart: storage.OrderInProgress},
	storage.OrderInProgress:       {EventComplete: storage.OrderCompleted},
	storage.OrderCompleted:        {EventReady: storage.OrderReadyForDelivery},
	storage.OrderReadyForDelivery: {EventApprove: storage.OrderApproved, EventReject: storage.OrderRejected},
	storage.OrderRejected:         {EventRestart: storage.OrderPending},
}

var taskTransitions = map[storage.TaskStatus]map[Event]storage.TaskStatus{
	storage.TaskAssigned: {
		EventStart:   storage.TaskInProgress,
		EventApprove: storage.TaskApproved,
		EventReject:  storage.TaskRejected,
	},
	storage.TaskInProgress: {
		EventComplete: storage.TaskCompleted,
		EventApprove:  storage.TaskApproved,
		EventReject:   storage.TaskRejected,
	},
	storage.TaskCompleted: {
		EventApprove: storage.TaskApproved,
		EventReject:  storage.TaskRejected,
	},
	storage.TaskRejected: {EventRestart: storage.TaskAssigned},
}

func nextOrderStatus(from storage.OrderStatus, ev Event) (storage.OrderStatus, error) {
	if to, ok := orderTransitions[from][ev]; ok {
		return to, nil
	}
	return "", fmt.Errorf("%w: cannot %s order in status %s", ErrInvalidTransition, ev, from)
}

func nextTaskStatus(from storage.TaskStatus, ev Event) (storage.TaskStatus, error) {
	if to, ok := taskTransitions[from][ev]; ok {
		return to, nil
	}
	return "", fmt.Errorf("%w: cannot %s task in status %s", ErrInvalidTransition, ev, from)
}

// CanTransition reports whether ev is allowed for an order in status from.
func CanTransition(from storage.OrderStatus, ev Event) bool {
	_, err := nextOrderStatus(from, ev)
	return err == nil
}

func (s *Service) applyOrderEvent(order *storage.ServiceOrder, ev Event) error {
	next, err := nextOrderStatus(order.Status, ev)
	if err != nil {
		return err
	}
	order.Status = next
	order.UpdatedAt = s.clock.Now()
	return nil
}

// syncTasks переносит событие заказа на задачи. Задачи, для которых событие
// не определено (например, уже одобренные при отклонении), не трогаются.
// Возвращает только измененные задачи.
func syncTasks(tasks []storage.Task, ev Event) []storage.Task {
	var changed []storage.Task
	for _, t := range tasks {
		next, err := nextTaskStatus(t.Status, ev)
		if err != nil {
			continue
		}
		t.Status = next
		if ev == EventRestart {
			t.CompletedAt = nil
		}
		changed = append(changed, t)
	}
	return changed
}
