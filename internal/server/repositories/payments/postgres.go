package payments

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/vat/internal/dbx"
	"github.com/dmitrijs2005/vat/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	query := `
		INSERT INTO payments (user_id, tariff_id, amount_cents, currency, minutes_added, tariff_description, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING id, status, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.UserID, p.TariffID, p.AmountCents, p.Currency, p.MinutesAdded, p.TariffDescription).
		Scan(&p.ID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Payment, error) {
	query := `
		SELECT id, user_id, tariff_id, amount_cents, currency, minutes_added,
			tariff_description, status, created_at, updated_at
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		var tariffID sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &tariffID, &p.AmountCents, &p.Currency, &p.MinutesAdded,
			&p.TariffDescription, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		p.TariffID = tariffID.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
