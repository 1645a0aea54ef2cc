package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"autoservice/internal/storage"
)

const partColumns = `id, name, price, category, stock, usage_count`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *repo) SearchParts(ctx context.Context, query string, limit int) ([]storage.SparePart, error) {
	const op = "storage.mysql.SearchParts"

	q := likeEscaper.Replace(strings.TrimSpace(query))
	stmt := `SELECT ` + partColumns + ` FROM spare_parts
		WHERE name LIKE CONCAT('%', ?, '%')
		ORDER BY (name LIKE CONCAT(?, '%')) DESC, usage_count DESC, name`
	args := []interface{}{q, q}
	if limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, limit)
	}

	var parts []storage.SparePart
	if err := sqlx.SelectContext(ctx, r.ext, &parts, stmt, args...); err != nil {
		return nil, fmt.Errorf("%s: ошибка поиска запчастей: %w", op, err)
	}
	return parts, nil
}

func (r *repo) GetPart(ctx context.Context, id int64) (*storage.SparePart, error) {
	const op = "storage.mysql.GetPart"

	var p storage.SparePart
	err := sqlx.GetContext(ctx, r.ext, &p, `SELECT `+partColumns+` FROM spare_parts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: part %d: %w", op, id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// GetPartByName сравнивает без учета регистра за счет _ci collation.
func (r *repo) GetPartByName(ctx context.Context, name string) (*storage.SparePart, error) {
	const op = "storage.mysql.GetPartByName"

	var p storage.SparePart
	err := sqlx.GetContext(ctx, r.ext, &p, `SELECT `+partColumns+` FROM spare_parts WHERE name = ?`, strings.TrimSpace(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %q: %w", op, name, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

func (r *repo) CreatePart(ctx context.Context, part *storage.SparePart) error {
	const op = "storage.mysql.CreatePart"

	res, err := r.ext.ExecContext(ctx,
		`INSERT INTO spare_parts (name, price, category, stock, usage_count) VALUES (?, ?, ?, ?, ?)`,
		part.Name, part.Price, part.Category, part.Stock, part.UsageCount,
	)
	if isDuplicate(err) {
		return fmt.Errorf("%s: %q: %w", op, part.Name, storage.ErrDuplicateName)
	}
	if err != nil {
		return fmt.Errorf("%s: ошибка создания запчасти: %w", op, err)
	}

	if part.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ConsumeStock - условный UPDATE, поэтому параллельные списания не уводят склад в минус.
func (r *repo) ConsumeStock(ctx context.Context, id int64, qty int) error {
	const op = "storage.mysql.ConsumeStock"

	res, err := r.ext.ExecContext(ctx,
		`UPDATE spare_parts SET stock = stock - ?, usage_count = usage_count + 1 WHERE id = ? AND stock >= ?`,
		qty, id, qty,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return nil
	}

	if _, err := r.GetPart(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: part %d, need %d: %w", op, id, qty, storage.ErrOutOfStock)
}

func (r *repo) AddStock(ctx context.Context, id int64, qty int) error {
	const op = "storage.mysql.AddStock"

	res, err := r.ext.ExecContext(ctx, `UPDATE spare_parts SET stock = stock + ? WHERE id = ?`, qty, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: part %d: %w", op, id, storage.ErrNotFound)
	}
	return nil
}
