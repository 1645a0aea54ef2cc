package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"autoservice/internal/storage"
)

// CreditEarning полагается на уникальный ключ (task_id, event_id): повторное
// начисление за то же событие не проходит и баланс не меняется.
func (r *repo) CreditEarning(ctx context.Context, e *storage.Earning) (bool, error) {
	const op = "storage.mysql.CreditEarning"

	res, err := r.ext.ExecContext(ctx, `
		INSERT INTO earnings (apprentice_id, task_id, order_id, task_title, amount, event_id, completed_at, credited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ApprenticeID, e.TaskID, e.OrderID, e.TaskTitle, e.Amount, e.EventID, e.CompletedAt, e.CreditedAt,
	)
	if isDuplicate(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: ошибка записи начисления: %w", op, err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	res, err = r.ext.ExecContext(ctx, `UPDATE users SET earnings = earnings + ? WHERE id = ?`, e.Amount, e.ApprenticeID)
	if err != nil {
		return false, fmt.Errorf("%s: ошибка обновления баланса: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 && e.Amount != 0 {
		return false, fmt.Errorf("%s: user %d: %w", op, e.ApprenticeID, storage.ErrNotFound)
	}
	return true, nil
}

func (r *repo) ListEarnings(ctx context.Context, apprenticeID int64, from, to time.Time) ([]storage.Earning, error) {
	const op = "storage.mysql.ListEarnings"

	query := `SELECT id, apprentice_id, task_id, order_id, task_title, amount, event_id, completed_at, credited_at
		FROM earnings WHERE apprentice_id = ?`
	args := []interface{}{apprenticeID}
	if !from.IsZero() {
		query += ` AND completed_at >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		query += ` AND completed_at < ?`
		args = append(args, to)
	}
	query += ` ORDER BY completed_at DESC`

	var res []storage.Earning
	if err := sqlx.SelectContext(ctx, r.ext, &res, query, args...); err != nil {
		return nil, fmt.Errorf("%s: ошибка получения начислений: %w", op, err)
	}
	return res, nil
}
