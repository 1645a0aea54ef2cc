package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type TaskStatus string

const (
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
	TaskApproved   TaskStatus = "approved"
	TaskRejected   TaskStatus = "rejected"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Task struct {
	ID         int64 `json:"id" db:"id"`
	OrderID    int64 `json:"order_id" db:"order_id"`
	CarID      int64 `json:"car_id" db:"car_id"`
	AssigneeID int64 `json:"assignee_id" db:"assignee_id"`
	// снимки имен для списков, источник истины - внешние ключи
	AssigneeName   string     `json:"assignee_name" db:"assignee_name"`
	CarLabel       string     `json:"car_label" db:"car_label"`
	Title          string     `json:"title" db:"title"`
	Payment        int64      `json:"payment" db:"payment"`
	DueDate        time.Time  `json:"due_date" db:"due_date"`
	Priority       Priority   `json:"priority" db:"priority"`
	EstimatedHours float64    `json:"estimated_hours" db:"estimated_hours"`
	Status         TaskStatus `json:"status" db:"status"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	Version        int        `json:"version" db:"version"`

	// ItemPositions - позиции работ заказа, которые покрывает задача.
	ItemPositions ItemPositions `json:"item_positions" db:"item_positions"`
}

type TaskFilter struct {
	Status     TaskStatus
	AssigneeID int64
	CarID      int64
	OrderID    int64
}

func (f TaskFilter) Match(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.AssigneeID != 0 && t.AssigneeID != f.AssigneeID {
		return false
	}
	if f.CarID != 0 && t.CarID != f.CarID {
		return false
	}
	if f.OrderID != 0 && t.OrderID != f.OrderID {
		return false
	}
	return true
}

// ItemPositions хранится в MySQL как JSON-массив.
type ItemPositions []int

func (p ItemPositions) Covers(position int) bool {
	for _, v := range p {
		if v == position {
			return true
		}
	}
	return false
}

func (p ItemPositions) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *ItemPositions) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("item positions: unsupported type %T", src)
	}
	return json.Unmarshal(raw, (*[]int)(p))
}
