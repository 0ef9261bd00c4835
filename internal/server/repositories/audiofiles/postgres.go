package audiofiles

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

const fileColumns = `id, user_id, original_file_name, storage_key, size_bytes,
		duration_seconds, status, error_message, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*models.AudioFile, error) {
	f := &models.AudioFile{}
	var duration sql.NullInt32
	err := row.Scan(&f.ID, &f.UserID, &f.OriginalFileName, &f.StorageKey, &f.SizeBytes,
		&duration, &f.Status, &f.ErrorMessage, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if duration.Valid {
		d := int(duration.Int32)
		f.DurationSeconds = &d
	}
	return f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.AudioFile) (*models.AudioFile, error) {
	query := `
		INSERT INTO audio_files (id, user_id, original_file_name, storage_key, size_bytes, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		f.ID, f.UserID, f.OriginalFileName, f.StorageKey, f.SizeBytes, f.Status).
		Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.AudioFile, error) {
	query := `SELECT ` + fileColumns + ` FROM audio_files WHERE id = $1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetForUser(ctx context.Context, id, userID string) (*models.AudioFile, error) {
	query := `SELECT ` + fileColumns + ` FROM audio_files
		WHERE id = $1 AND user_id = $2 AND status <> 'deleted'`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.AudioFile, error) {
	query := `SELECT ` + fileColumns + ` FROM audio_files
		WHERE user_id = $1 AND status <> 'deleted'
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.AudioFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) SetDuration(ctx context.Context, id string, seconds int) error {
	query := `
		UPDATE audio_files SET duration_seconds = $2, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, seconds)
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status models.AudioFileStatus, errMsg string) error {
	query := `
		UPDATE audio_files SET status = $2, error_message = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, status, errMsg)
}

func (r *PostgresRepository) MarkProcessingFailed(ctx context.Context, id, errMsg string) (bool, error) {
	query := `
		UPDATE audio_files SET status = $2, error_message = $3, updated_at = now()
		WHERE id = $1 AND status <> $4
	`
	res, err := r.db.ExecContext(ctx, query, id, models.AudioProcessingFailed, errMsg, models.AudioDeleted)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) Usage(ctx context.Context, userID string) (int, int64, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(duration_seconds), 0)
		FROM audio_files
		WHERE user_id = $1
	`
	var files int
	var seconds int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&files, &seconds); err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}
	return files, seconds, nil
}

// execOne runs an UPDATE and maps zero affected rows to common.ErrorNotFound.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
