package transcriptions

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

const columns = `t.id, t.file_id, t.text_key, t.text, t.speakers_count, t.language,
		t.status, t.error_message, t.created_at, t.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Transcription, error) {
	t := &models.Transcription{}
	var speakers sql.NullInt32
	err := row.Scan(&t.ID, &t.FileID, &t.TextKey, &t.Text, &speakers, &t.Language,
		&t.Status, &t.ErrorMessage, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if speakers.Valid {
		n := int(speakers.Int32)
		t.SpeakersCount = &n
	}
	return t, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Transcription, error) {
	t, err := scan(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transcription) (*models.Transcription, error) {
	query := `
		INSERT INTO transcriptions (file_id, status)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	t.Status = models.StatusPending
	err := r.db.QueryRowContext(ctx, query, t.FileID, t.Status).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Transcription, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM transcriptions t WHERE t.id = $1`, id)
}

func (r *PostgresRepository) GetByFileID(ctx context.Context, fileID string) (*models.Transcription, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM transcriptions t WHERE t.file_id = $1`, fileID)
}

func (r *PostgresRepository) GetForUser(ctx context.Context, id, userID string) (*models.Transcription, error) {
	query := `SELECT ` + columns + ` FROM transcriptions t
		JOIN audio_files f ON f.id = t.file_id
		WHERE t.id = $1 AND f.user_id = $2 AND f.status <> 'deleted'`
	return r.getOne(ctx, query, id, userID)
}

func (r *PostgresRepository) GetByFileForUser(ctx context.Context, fileID, userID string) (*models.Transcription, error) {
	query := `SELECT ` + columns + ` FROM transcriptions t
		JOIN audio_files f ON f.id = t.file_id
		WHERE t.file_id = $1 AND f.user_id = $2 AND f.status <> 'deleted'`
	return r.getOne(ctx, query, fileID, userID)
}

func (r *PostgresRepository) MarkProcessing(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE transcriptions SET status = 'processing', updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`
	return r.execGuarded(ctx, query, id)
}

func (r *PostgresRepository) Finish(ctx context.Context, id string, status models.ProcessingStatus, errMsg string) (bool, error) {
	if !status.IsTerminal() {
		return false, fmt.Errorf("%w: %q is not terminal", common.ErrUnknownStatus, status)
	}
	query := `
		UPDATE transcriptions SET status = $2, error_message = $3, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'processing')
	`
	return r.execGuarded(ctx, query, id, status, errMsg)
}

func (r *PostgresRepository) SetResult(ctx context.Context, id string, res models.TranscriptionResult) error {
	query := `
		UPDATE transcriptions SET
			text_key = COALESCE(NULLIF($2, ''), text_key),
			text = COALESCE(NULLIF($3, ''), text),
			speakers_count = COALESCE($4, speakers_count),
			language = COALESCE(NULLIF($5, ''), language),
			updated_at = now()
		WHERE id = $1
	`
	var speakers sql.NullInt32
	if res.SpeakersCount != nil {
		speakers = sql.NullInt32{Int32: int32(*res.SpeakersCount), Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, query, id, res.TextKey, res.Text, speakers, res.Language); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) execGuarded(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
