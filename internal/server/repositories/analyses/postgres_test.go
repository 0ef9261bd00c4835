package analyses

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

var cols = []string{"id", "transcription_id", "analysis_type", "docx_key", "pdf_key", "text",
	"summary", "key_points", "status", "error_message", "created_at", "updated_at"}

const insertQ = `(?s)INSERT\s+INTO\s+analyses\s*\(transcription_id,\s*analysis_type,\s*status\).*ON\s+CONFLICT\s+\(transcription_id,\s*analysis_type\)\s+DO\s+NOTHING\s+RETURNING`
const existingQ = `(?s)FROM\s+analyses\s+a\s+WHERE\s+a\.transcription_id\s*=\s*\$1\s+AND\s+a\.analysis_type\s*=\s*\$2`

func row(id string, at models.AnalysisType, status string, created time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(cols).
		AddRow(id, "t1", string(at), "", "", "", "", []byte(`[]`), status, "", created, created)
}

func TestCreateIfAbsent_Inserted(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(insertQ).
		WithArgs("t1", models.AnalysisKP).
		WillReturnRows(row("a1", models.AnalysisKP, "pending", now))

	a, created, err := repo.CreateIfAbsent(context.Background(), "t1", models.AnalysisKP)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, models.AnalysisKP, a.Type)
	assert.Empty(t, a.KeyPoints)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIfAbsent_ReturnsExisting(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(insertQ).
		WithArgs("t1", models.AnalysisKP).
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(existingQ).
		WithArgs("t1", models.AnalysisKP).
		WillReturnRows(row("a1", models.AnalysisKP, "processing", now))

	a, created, err := repo.CreateIfAbsent(context.Background(), "t1", models.AnalysisKP)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, models.StatusProcessing, a.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIfAbsent_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, _, err := repo.CreateIfAbsent(context.Background(), "t1", models.AnalysisKP)
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestGetByID_KeyPoints(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)FROM\s+analyses\s+a\s+WHERE\s+a\.id\s*=\s*\$1$`).WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a1", "t1", "protocol", "d", "p", "txt", "sum", []byte(`["one","two"]`), "completed", "", now, now))

	a, err := repo.GetByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, a.KeyPoints)
	assert.Equal(t, "d", a.DocxKey)
}

func TestGetForUser_NotOwned(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)JOIN\s+transcriptions\s+t.*JOIN\s+audio_files\s+f.*WHERE\s+a\.id\s*=\s*\$1\s+AND\s+f\.user_id\s*=\s*\$2`).
		WithArgs("a1", "u2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetForUser(context.Background(), "a1", "u2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListByTranscription(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)WHERE\s+a\.transcription_id\s*=\s*\$1\s+ORDER\s+BY\s+a\.created_at\s+DESC`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a2", "t1", "protocol", "", "", "", "", nil, "pending", "", now, now).
			AddRow("a1", "t1", "kp", "", "", "", "", []byte(`[]`), "completed", "", now.Add(-time.Minute), now))

	list, err := repo.ListByTranscription(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.AnalysisProtocol, list[0].Type)
	assert.Nil(t, list[0].KeyPoints)
}

func TestFinish_TerminalGuard(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)UPDATE\s+analyses\s+SET\s+status\s*=\s*\$2.*WHERE\s+id\s*=\s*\$1\s+AND\s+status\s+IN\s*\('pending',\s*'processing'\)`

	mock.ExpectExec(q).WithArgs("a1", models.StatusCompleted, "").WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err := repo.Finish(context.Background(), "a1", models.StatusCompleted, "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Finish(context.Background(), "a1", models.StatusPending, "")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestMarkProcessing(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)UPDATE\s+analyses\s+SET\s+status\s*=\s*'processing'.*status\s*=\s*'pending'`).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.MarkProcessing(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetResult(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)UPDATE\s+analyses\s+SET\s+docx_key\s*=\s*COALESCE`).
		WithArgs("a1", "analyses/2026/01/a1.docx", "", "body", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetResult(context.Background(), "a1", models.AnalysisResult{DocxKey: "analyses/2026/01/a1.docx", Text: "body"})
	require.NoError(t, err)
}

func TestCountCompletedForUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT\s+COUNT\(\*\)\s+FROM\s+analyses.*a\.status\s*=\s*'completed'`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountCompletedForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
