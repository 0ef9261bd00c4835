package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
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

const columns = `a.id, a.transcription_id, a.analysis_type, a.docx_key, a.pdf_key, a.text,
		a.summary, a.key_points, a.status, a.error_message, a.created_at, a.updated_at`

// returning mirrors columns for INSERT ... RETURNING, where the alias is not in scope.
const returning = `id, transcription_id, analysis_type, docx_key, pdf_key, text,
		summary, key_points, status, error_message, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Analysis, error) {
	a := &models.Analysis{}
	var keyPoints []byte
	err := row.Scan(&a.ID, &a.TranscriptionID, &a.Type, &a.DocxKey, &a.PdfKey, &a.Text,
		&a.Summary, &keyPoints, &a.Status, &a.ErrorMessage, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(keyPoints) > 0 {
		if err := json.Unmarshal(keyPoints, &a.KeyPoints); err != nil {
			return nil, fmt.Errorf("decode key_points: %w", err)
		}
	}
	return a, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Analysis, error) {
	a, err := scan(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, transcriptionID string, t models.AnalysisType) (*models.Analysis, bool, error) {
	query := `
		INSERT INTO analyses (transcription_id, analysis_type, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (transcription_id, analysis_type) DO NOTHING
		RETURNING ` + returning

	a, err := scan(r.db.QueryRowContext(ctx, query, transcriptionID, t))
	if err == nil {
		return a, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("db error: %w", err)
	}

	// The conflicting row is committed by the time DO NOTHING fires.
	existing, err := r.getOne(ctx, `SELECT `+columns+` FROM analyses a
		WHERE a.transcription_id = $1 AND a.analysis_type = $2`, transcriptionID, t)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Analysis, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM analyses a WHERE a.id = $1`, id)
}

func (r *PostgresRepository) GetForUser(ctx context.Context, id, userID string) (*models.Analysis, error) {
	query := `SELECT ` + columns + ` FROM analyses a
		JOIN transcriptions t ON t.id = a.transcription_id
		JOIN audio_files f ON f.id = t.file_id
		WHERE a.id = $1 AND f.user_id = $2 AND f.status <> 'deleted'`
	return r.getOne(ctx, query, id, userID)
}

func (r *PostgresRepository) ListByTranscription(ctx context.Context, transcriptionID string) ([]*models.Analysis, error) {
	query := `SELECT ` + columns + ` FROM analyses a
		WHERE a.transcription_id = $1
		ORDER BY a.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, transcriptionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Analysis
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) MarkProcessing(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE analyses SET status = 'processing', updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`
	return r.execGuarded(ctx, query, id)
}

func (r *PostgresRepository) Finish(ctx context.Context, id string, status models.ProcessingStatus, errMsg string) (bool, error) {
	if !status.IsTerminal() {
		return false, fmt.Errorf("%w: %q is not terminal", common.ErrUnknownStatus, status)
	}
	query := `
		UPDATE analyses SET status = $2, error_message = $3, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'processing')
	`
	return r.execGuarded(ctx, query, id, status, errMsg)
}

func (r *PostgresRepository) SetResult(ctx context.Context, id string, res models.AnalysisResult) error {
	query := `
		UPDATE analyses SET
			docx_key = COALESCE(NULLIF($2, ''), docx_key),
			pdf_key = COALESCE(NULLIF($3, ''), pdf_key),
			text = COALESCE(NULLIF($4, ''), text),
			summary = COALESCE(NULLIF($5, ''), summary),
			updated_at = now()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, res.DocxKey, res.PdfKey, res.Text, res.Summary); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountCompletedForUser(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM analyses a
		JOIN transcriptions t ON t.id = a.transcription_id
		JOIN audio_files f ON f.id = t.file_id
		WHERE f.user_id = $1 AND a.status = 'completed'
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
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
