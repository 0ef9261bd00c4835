package tariffs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/dbx"
	"github.com/dmitrijs2005/vat/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const columns = `id, name, minutes, price_cents, currency, description, is_popular, is_active`

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Tariff, error) {
	t := &models.Tariff{}
	if err := row.Scan(&t.ID, &t.Name, &t.Minutes, &t.PriceCents, &t.Currency,
		&t.Description, &t.IsPopular, &t.IsActive); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context) ([]*models.Tariff, error) {
	query := `SELECT ` + columns + ` FROM tariffs WHERE is_active ORDER BY sort_order, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Tariff
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetActive(ctx context.Context, id string) (*models.Tariff, error) {
	query := `SELECT ` + columns + ` FROM tariffs WHERE id = $1 AND is_active`

	t, err := scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
