package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"autoservice/internal/storage"
)

const taskColumns = `id, order_id, car_id, assignee_id, assignee_name, car_label, title, payment,
	item_positions, due_date, priority, estimated_hours, status, completed_at, created_at, version`

func (r *repo) CreateTask(ctx context.Context, task *storage.Task) error {
	const op = "storage.mysql.CreateTask"

	res, err := r.ext.ExecContext(ctx, `
		INSERT INTO tasks (order_id, car_id, assignee_id, assignee_name, car_label, title, payment,
			item_positions, due_date, priority, estimated_hours, status, completed_at, created_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		task.OrderID, task.CarID, task.AssigneeID, task.AssigneeName, task.CarLabel, task.Title, task.Payment,
		task.ItemPositions, task.DueDate, task.Priority, task.EstimatedHours, task.Status, task.CompletedAt, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: ошибка создания задачи: %w", op, err)
	}

	if task.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	task.Version = 1
	return nil
}

func (r *repo) GetTask(ctx context.Context, id int64) (*storage.Task, error) {
	const op = "storage.mysql.GetTask"

	var t storage.Task
	err := sqlx.GetContext(ctx, r.ext, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: task %d: %w", op, id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &t, nil
}

func (r *repo) UpdateTask(ctx context.Context, task *storage.Task) error {
	const op = "storage.mysql.UpdateTask"

	res, err := r.ext.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, payment = ?, item_positions = ?, due_date = ?, priority = ?, estimated_hours = ?, status = ?,
			completed_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		task.Title, task.Payment, task.ItemPositions, task.DueDate, task.Priority, task.EstimatedHours, task.Status,
		task.CompletedAt, task.ID, task.Version,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		if _, err := r.GetTask(ctx, task.ID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: task %d: %w", op, task.ID, storage.ErrStaleVersion)
	}
	task.Version++
	return nil
}

func (r *repo) ListTasks(ctx context.Context, filter storage.TaskFilter) ([]storage.Task, error) {
	const op = "storage.mysql.ListTasks"

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []interface{}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.AssigneeID != 0 {
		query += ` AND assignee_id = ?`
		args = append(args, filter.AssigneeID)
	}
	if filter.CarID != 0 {
		query += ` AND car_id = ?`
		args = append(args, filter.CarID)
	}
	if filter.OrderID != 0 {
		query += ` AND order_id = ?`
		args = append(args, filter.OrderID)
	}
	query += ` ORDER BY id`

	var tasks []storage.Task
	if err := sqlx.SelectContext(ctx, r.ext, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("%s: ошибка получения задач: %w", op, err)
	}
	return tasks, nil
}
