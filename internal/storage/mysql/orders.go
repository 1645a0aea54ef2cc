package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"autoservice/internal/storage"
)

type orderRow struct {
	ID              int64     `db:"id"`
	CarID           int64     `db:"car_id"`
	Status          string    `db:"status"`
	TotalPrice      int64     `db:"total_price"`
	RejectionReason string    `db:"rejection_reason"`
	ApprovalEventID string    `db:"approval_event_id"`
	CreatedBy       int64     `db:"created_by"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
	Version         int       `db:"version"`
}

type itemRow struct {
	OrderID int64 `db:"order_id"`
	storage.ItemRecord
}

const orderColumns = `id, car_id, status, total_price, rejection_reason, approval_event_id, created_by, created_at, updated_at, version`

func (row orderRow) order(items []storage.ItemRecord) (storage.ServiceOrder, error) {
	o := storage.ServiceOrder{
		ID:              row.ID,
		CarID:           row.CarID,
		Status:          storage.OrderStatus(row.Status),
		TotalPrice:      row.TotalPrice,
		RejectionReason: row.RejectionReason,
		ApprovalEventID: row.ApprovalEventID,
		CreatedBy:       row.CreatedBy,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		Version:         row.Version,
	}
	for _, rec := range items {
		item, err := rec.Item()
		if err != nil {
			return o, fmt.Errorf("order %d position %d: %w", row.ID, rec.Position, err)
		}
		o.Items = append(o.Items, item)
	}
	return o, nil
}

func (r *repo) CreateOrder(ctx context.Context, order *storage.ServiceOrder) error {
	const op = "storage.mysql.CreateOrder"

	res, err := r.ext.ExecContext(ctx, `
		INSERT INTO service_orders (car_id, status, total_price, rejection_reason, approval_event_id, created_by, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		order.CarID, order.Status, order.TotalPrice, order.RejectionReason, order.ApprovalEventID,
		order.CreatedBy, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: ошибка создания заказа: %w", op, err)
	}

	if order.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	order.Version = 1

	if err := r.insertItems(ctx, order); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *repo) insertItems(ctx context.Context, order *storage.ServiceOrder) error {
	for _, rec := range order.Records() {
		_, err := r.ext.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, name, price, quantity, category, part_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			order.ID, rec.Position, rec.Name, rec.Price, rec.Quantity, rec.Category, rec.PartID,
		)
		if err != nil {
			return fmt.Errorf("ошибка вставки позиции %d: %w", rec.Position, err)
		}
	}
	return nil
}

func (r *repo) GetOrder(ctx context.Context, id int64) (*storage.ServiceOrder, error) {
	const op = "storage.mysql.GetOrder"

	var row orderRow
	err := sqlx.GetContext(ctx, r.ext, &row, `SELECT `+orderColumns+` FROM service_orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: order %d: %w", op, id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := r.itemsByOrder(ctx, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order, err := row.order(items[id])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &order, nil
}

func (r *repo) itemsByOrder(ctx context.Context, ids []int64) (map[int64][]storage.ItemRecord, error) {
	res := make(map[int64][]storage.ItemRecord, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	query, args, err := sqlx.In(`
		SELECT order_id, position, name, price, quantity, category, part_id
		FROM order_items WHERE order_id IN (?) ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, err
	}

	var rows []itemRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, r.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("ошибка получения позиций: %w", err)
	}
	for _, row := range rows {
		res[row.OrderID] = append(res[row.OrderID], row.ItemRecord)
	}
	return res, nil
}

// UpdateOrder пишет заказ только если версия в базе совпадает, позиции
// переписываются целиком.
func (r *repo) UpdateOrder(ctx context.Context, order *storage.ServiceOrder) error {
	const op = "storage.mysql.UpdateOrder"

	res, err := r.ext.ExecContext(ctx, `
		UPDATE service_orders
		SET status = ?, total_price = ?, rejection_reason = ?, approval_event_id = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		order.Status, order.TotalPrice, order.RejectionReason, order.ApprovalEventID, order.UpdatedAt,
		order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		if _, err := r.GetOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: order %d: %w", op, order.ID, storage.ErrStaleVersion)
	}
	order.Version++

	if _, err := r.ext.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, order.ID); err != nil {
		return fmt.Errorf("%s: ошибка удаления позиций: %w", op, err)
	}
	if err := r.insertItems(ctx, order); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *repo) ListOrders(ctx context.Context, filter storage.OrderFilter) ([]storage.ServiceOrder, error) {
	const op = "storage.mysql.ListOrders"

	query := `SELECT ` + orderColumns + ` FROM service_orders WHERE 1=1`
	var args []interface{}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.CarID != 0 {
		query += ` AND car_id = ?`
		args = append(args, filter.CarID)
	}
	query += ` ORDER BY id DESC`

	var rows []orderRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: ошибка получения заказов: %w", op, err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	items, err := r.itemsByOrder(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders := make([]storage.ServiceOrder, 0, len(rows))
	for _, row := range rows {
		o, err := row.order(items[row.ID])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}
