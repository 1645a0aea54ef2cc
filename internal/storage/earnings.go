package storage

import "time"

// Earning - одно начисление ученику за задачу в рамках события одобрения.
type Earning struct {
	ID           int64     `json:"id" db:"id"`
	ApprenticeID int64     `json:"apprentice_id" db:"apprentice_id"`
	TaskID       int64     `json:"task_id" db:"task_id"`
	OrderID      int64     `json:"order_id" db:"order_id"`
	TaskTitle    string    `json:"task_title" db:"task_title"`
	Amount       int64     `json:"amount" db:"amount"`
	EventID      string    `json:"event_id" db:"event_id"`
	CompletedAt  time.Time `json:"completed_at" db:"completed_at"`
	CreditedAt   time.Time `json:"credited_at" db:"credited_at"`
}
