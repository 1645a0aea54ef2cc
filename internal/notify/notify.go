package notify

import (
	"context"
	"log/slog"
	"time"
)

// RejectionNotice is published after an order has been rejected by the master.
type RejectionNotice struct {
	OrderID     int64     `json:"order_id"`
	CarID       int64     `json:"car_id"`
	Reason      string    `json:"reason"`
	TaskIDs     []int64   `json:"task_ids"`
	AssigneeIDs []int64   `json:"assignee_ids"`
	RejectedBy  int64     `json:"rejected_by"`
	RejectedAt  time.Time `json:"rejected_at"`
}

// LogNotifier пишет уведомления в лог, используется когда MQTT выключен.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyRejection(_ context.Context, notice RejectionNotice) error {
	n.log.Info("order rejected",
		slog.Int64("order_id", notice.OrderID),
		slog.String("reason", notice.Reason),
		slog.Any("assignees", notice.AssigneeIDs),
	)
	return nil
}
