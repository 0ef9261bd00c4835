package users

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

const userColumns = `id, telegram_id, username, first_name, last_name, photo_url,
		balance_minutes, agreed_to_personal_data, agreed_to_terms,
		onboarding_completed, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, extra ...any) (*models.User, error) {
	u := &models.User{}
	dest := []any{
		&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &u.PhotoURL,
		&u.BalanceMinutes, &u.AgreedToPersonalData, &u.AgreedToTerms,
		&u.OnboardingCompleted, &u.CreatedAt, &u.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return u, nil
}

// Upsert relies on the unique telegram_id constraint, so two concurrent
// first logins of the same account converge on one row. Logging in through
// the widget implies consent, so new rows start with both consent flags set.
// Balance and onboarding flags are never touched on conflict.
func (r *PostgresRepository) Upsert(ctx context.Context, u *models.User, startingBalance int) (*models.User, bool, error) {
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name, photo_url, balance_minutes,
			agreed_to_personal_data, agreed_to_terms)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, TRUE)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			photo_url = EXCLUDED.photo_url,
			updated_at = now()
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted
	`
	var created bool
	got, err := scanUser(r.db.QueryRowContext(ctx, query,
		u.TelegramID, u.Username, u.FirstName, u.LastName, u.PhotoURL, startingBalance), &created)
	if err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}
	return got, created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) CompleteOnboarding(ctx context.Context, id string) error {
	query := `
		UPDATE users SET onboarding_completed = TRUE, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
