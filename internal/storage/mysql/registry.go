package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"autoservice/internal/storage"
)

func (r *repo) GetCar(ctx context.Context, id int64) (*storage.Car, error) {
	const op = "storage.mysql.GetCar"

	var c storage.Car
	err := sqlx.GetContext(ctx, r.ext, &c, `SELECT id, make, model, plate, owner FROM cars WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: car %d: %w", op, id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

func (r *repo) GetUser(ctx context.Context, id int64) (*storage.User, error) {
	const op = "storage.mysql.GetUser"

	var u storage.User
	err := sqlx.GetContext(ctx, r.ext, &u, `SELECT id, name, role, earnings FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: user %d: %w", op, id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}
