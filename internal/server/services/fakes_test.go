package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/dmitrijs2005/vat/internal/dbx"
	"github.com/dmitrijs2005/vat/internal/logging"
	"github.com/dmitrijs2005/vat/internal/server/auth"
	"github.com/dmitrijs2005/vat/internal/server/blobstore"
	"github.com/dmitrijs2005/vat/internal/server/config"
	"github.com/dmitrijs2005/vat/internal/server/dispatch"
	"github.com/dmitrijs2005/vat/internal/server/models"
	"github.com/dmitrijs2005/vat/internal/server/repositories/analyses"
	"github.com/dmitrijs2005/vat/internal/server/repositories/audiofiles"
	"github.com/dmitrijs2005/vat/internal/server/repositories/payments"
	"github.com/dmitrijs2005/vat/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/vat/internal/server/repositories/tariffs"
	"github.com/dmitrijs2005/vat/internal/server/repositories/transcriptions"
	"github.com/dmitrijs2005/vat/internal/server/repositories/users"
)

// fakeData is an in-memory stand-in for the database. Guards mirror the SQL
// ones (status filters, unique keys) and the mutex plays the part of row
// locking, so concurrent callers see the same outcomes they would in
// PostgreSQL.
type fakeData struct {
	mu    sync.Mutex
	seq   int
	clock time.Time

	users    map[string]*models.User
	sessions map[string]*models.Session
	files    map[string]*models.AudioFile
	trs      map[string]*models.Transcription
	analyses map[string]*models.Analysis
	tariffs  map[string]*models.Tariff
	payments []*models.Payment

	// failures keyed by "<repo>.<method>"
	fail map[string]error
}

func newFakeData() *fakeData {
	return &fakeData{
		clock:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		users:    map[string]*models.User{},
		sessions: map[string]*models.Session{},
		files:    map[string]*models.AudioFile{},
		trs:      map[string]*models.Transcription{},
		analyses: map[string]*models.Analysis{},
		tariffs:  map[string]*models.Tariff{},
		fail:     map[string]error{},
	}
}

// tick returns a strictly increasing timestamp. Callers hold mu.
func (d *fakeData) tick() time.Time {
	d.clock = d.clock.Add(time.Second)
	return d.clock
}

func (d *fakeData) nextID(prefix string) string {
	d.seq++
	return fmt.Sprintf("%s-%d", prefix, d.seq)
}

func (d *fakeData) failure(name string) error {
	return d.fail[name]
}

func (d *fakeData) countAnalyses(trID string, at models.AnalysisType) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, a := range d.analyses {
		if a.TranscriptionID == trID && a.Type == at {
			n++
		}
	}
	return n
}

func (d *fakeData) transcription(id string) models.Transcription {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.trs[id]
}

func (d *fakeData) transcriptionByFile(fileID string) *models.Transcription {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.trs {
		if t.FileID == fileID {
			c := *t
			return &c
		}
	}
	return nil
}

func (d *fakeData) file(id string) models.AudioFile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.files[id]
}

func (d *fakeData) analysis(id string) models.Analysis {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.analyses[id]
}

func (d *fakeData) rowCounts() (files, trs int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.files), len(d.trs)
}

// --- repomanager ---

type fakeRM struct{ d *fakeData }

func (m *fakeRM) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRM) Users(dbx.DBTX) users.Repository                 { return &fakeUsers{m.d} }
func (m *fakeRM) Sessions(dbx.DBTX) sessions.Repository           { return &fakeSessions{m.d} }
func (m *fakeRM) AudioFiles(dbx.DBTX) audiofiles.Repository       { return &fakeFiles{m.d} }
func (m *fakeRM) Transcriptions(dbx.DBTX) transcriptions.Repository {
	return &fakeTranscriptions{m.d}
}
func (m *fakeRM) Analyses(dbx.DBTX) analyses.Repository { return &fakeAnalyses{m.d} }
func (m *fakeRM) Tariffs(dbx.DBTX) tariffs.Repository   { return &fakeTariffs{m.d} }
func (m *fakeRM) Payments(dbx.DBTX) payments.Repository { return &fakePayments{m.d} }

// --- users ---

type fakeUsers struct{ d *fakeData }

func (r *fakeUsers) Upsert(_ context.Context, u *models.User, startingBalance int) (*models.User, bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if err := r.d.failure("users.Upsert"); err != nil {
		return nil, false, err
	}
	for _, existing := range r.d.users {
		if existing.TelegramID == u.TelegramID {
			existing.Username = u.Username
			existing.FirstName = u.FirstName
			existing.LastName = u.LastName
			existing.PhotoURL = u.PhotoURL
			existing.UpdatedAt = r.d.tick()
			c := *existing
			return &c, false, nil
		}
	}
	now := r.d.tick()
	nu := *u
	nu.ID = r.d.nextID("user")
	nu.BalanceMinutes = startingBalance
	nu.AgreedToPersonalData = true
	nu.AgreedToTerms = true
	nu.CreatedAt, nu.UpdatedAt = now, now
	r.d.users[nu.ID] = &nu
	c := nu
	return &c, true, nil
}

func (r *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUsers) CompleteOnboarding(_ context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.OnboardingCompleted = true
	return nil
}

// --- sessions ---

type fakeSessions struct{ d *fakeData }

func (r *fakeSessions) Create(_ context.Context, s *models.Session) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.sessions[s.Token]; ok {
		return common.ErrorAlreadyExists
	}
	c := *s
	r.d.sessions[s.Token] = &c
	return nil
}

func (r *fakeSessions) Find(_ context.Context, token string) (*models.Session, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	s, ok := r.d.sessions[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *s
	return &c, nil
}

func (r *fakeSessions) Delete(_ context.Context, token string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	delete(r.d.sessions, token)
	return nil
}

func (r *fakeSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var n int64
	for k, s := range r.d.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.d.sessions, k)
			n++
		}
	}
	return n, nil
}

// --- audio files ---

type fakeFiles struct{ d *fakeData }

func (r *fakeFiles) Create(_ context.Context, f *models.AudioFile) (*models.AudioFile, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if err := r.d.failure("files.Create"); err != nil {
		return nil, err
	}
	if _, ok := r.d.files[f.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	now := r.d.tick()
	c := *f
	c.CreatedAt, c.UpdatedAt = now, now
	r.d.files[c.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeFiles) GetByID(_ context.Context, id string) (*models.AudioFile, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	f, ok := r.d.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *f
	return &c, nil
}

func (r *fakeFiles) GetForUser(_ context.Context, id, userID string) (*models.AudioFile, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	f, ok := r.d.files[id]
	if !ok || f.UserID != userID || f.Status == models.AudioDeleted {
		return nil, common.ErrorNotFound
	}
	c := *f
	return &c, nil
}

func (r *fakeFiles) ListForUser(_ context.Context, userID string) ([]*models.AudioFile, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []*models.AudioFile
	for _, f := range r.d.files {
		if f.UserID == userID && f.Status != models.AudioDeleted {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeFiles) SetDuration(_ context.Context, id string, seconds int) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	f, ok := r.d.files[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.DurationSeconds = &seconds
	f.UpdatedAt = r.d.tick()
	return nil
}

func (r *fakeFiles) SetStatus(_ context.Context, id string, status models.AudioFileStatus, errMsg string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	f, ok := r.d.files[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.Status = status
	f.ErrorMessage = errMsg
	f.UpdatedAt = r.d.tick()
	return nil
}

func (r *fakeFiles) MarkProcessingFailed(_ context.Context, id, errMsg string) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	f, ok := r.d.files[id]
	if !ok || f.Status == models.AudioDeleted {
		return false, nil
	}
	f.Status = models.AudioProcessingFailed
	f.ErrorMessage = errMsg
	f.UpdatedAt = r.d.tick()
	return true, nil
}

func (r *fakeFiles) Usage(_ context.Context, userID string) (int, int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var files int
	var seconds int64
	for _, f := range r.d.files {
		if f.UserID != userID {
			continue
		}
		files++
		if f.DurationSeconds != nil {
			seconds += int64(*f.DurationSeconds)
		}
	}
	return files, seconds, nil
}

// --- transcriptions ---

type fakeTranscriptions struct{ d *fakeData }

func (r *fakeTranscriptions) Create(_ context.Context, t *models.Transcription) (*models.Transcription, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if err := r.d.failure("transcriptions.Create"); err != nil {
		return nil, err
	}
	for _, existing := range r.d.trs {
		if existing.FileID == t.FileID {
			return nil, common.ErrorAlreadyExists
		}
	}
	now := r.d.tick()
	c := *t
	c.ID = r.d.nextID("tr")
	c.Status = models.StatusPending
	c.CreatedAt, c.UpdatedAt = now, now
	r.d.trs[c.ID] = &c
	out := c
	return &out, nil
}

func (r *fakeTranscriptions) GetByID(_ context.Context, id string) (*models.Transcription, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	t, ok := r.d.trs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r *fakeTranscriptions) GetByFileID(_ context.Context, fileID string) (*models.Transcription, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, t := range r.d.trs {
		if t.FileID == fileID {
			c := *t
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeTranscriptions) owned(t *models.Transcription, userID string) bool {
	f, ok := r.d.files[t.FileID]
	return ok && f.UserID == userID && f.Status != models.AudioDeleted
}

func (r *fakeTranscriptions) GetForUser(_ context.Context, id, userID string) (*models.Transcription, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	t, ok := r.d.trs[id]
	if !ok || !r.owned(t, userID) {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r *fakeTranscriptions) GetByFileForUser(_ context.Context, fileID, userID string) (*models.Transcription, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, t := range r.d.trs {
		if t.FileID == fileID && r.owned(t, userID) {
			c := *t
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeTranscriptions) MarkProcessing(_ context.Context, id string) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	t, ok := r.d.trs[id]
	if !ok || t.Status != models.StatusPending {
		return false, nil
	}
	t.Status = models.StatusProcessing
	t.UpdatedAt = r.d.tick()
	return true, nil
}

func (r *fakeTranscriptions) Finish(_ context.Context, id string, status models.ProcessingStatus, errMsg string) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if !status.IsTerminal() {
		return false, common.ErrUnknownStatus
	}
	t, ok := r.d.trs[id]
	if !ok || t.Status.IsTerminal() {
		return false, nil
	}
	t.Status = status
	t.ErrorMessage = errMsg
	t.UpdatedAt = r.d.tick()
	return true, nil
}

func (r *fakeTranscriptions) SetResult(_ context.Context, id string, res models.TranscriptionResult) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	t, ok := r.d.trs[id]
	if !ok {
		return common.ErrorNotFound
	}
	if res.TextKey != "" {
		t.TextKey = res.TextKey
	}
	if res.Text != "" {
		t.Text = res.Text
	}
	if res.SpeakersCount != nil {
		t.SpeakersCount = res.SpeakersCount
	}
	if res.Language != "" {
		t.Language = res.Language
	}
	return nil
}

// --- analyses ---

type fakeAnalyses struct{ d *fakeData }

// CreateIfAbsent stands in for the uq_analyses_transcription_type constraint
// with the fake's mutex. The SQL side (ON CONFLICT DO NOTHING, then fetch) is
// covered in repositories/analyses.
func (r *fakeAnalyses) CreateIfAbsent(_ context.Context, trID string, at models.AnalysisType) (*models.Analysis, bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if err := r.d.failure("analyses.CreateIfAbsent"); err != nil {
		return nil, false, err
	}
	for _, a := range r.d.analyses {
		if a.TranscriptionID == trID && a.Type == at {
			c := *a
			return &c, false, nil
		}
	}
	now := r.d.tick()
	a := &models.Analysis{
		ID:              r.d.nextID("an"),
		TranscriptionID: trID,
		Type:            at,
		KeyPoints:       []string{},
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.d.analyses[a.ID] = a
	c := *a
	return &c, true, nil
}

func (r *fakeAnalyses) GetByID(_ context.Context, id string) (*models.Analysis, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	a, ok := r.d.analyses[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *a
	return &c, nil
}

func (r *fakeAnalyses) GetForUser(_ context.Context, id, userID string) (*models.Analysis, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	a, ok := r.d.analyses[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	t, ok := r.d.trs[a.TranscriptionID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	f, ok := r.d.files[t.FileID]
	if !ok || f.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *a
	return &c, nil
}

func (r *fakeAnalyses) ListByTranscription(_ context.Context, trID string) ([]*models.Analysis, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []*models.Analysis
	for _, a := range r.d.analyses {
		if a.TranscriptionID == trID {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeAnalyses) MarkProcessing(_ context.Context, id string) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	a, ok := r.d.analyses[id]
	if !ok || a.Status != models.StatusPending {
		return false, nil
	}
	a.Status = models.StatusProcessing
	a.UpdatedAt = r.d.tick()
	return true, nil
}

func (r *fakeAnalyses) Finish(_ context.Context, id string, status models.ProcessingStatus, errMsg string) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if !status.IsTerminal() {
		return false, common.ErrUnknownStatus
	}
	a, ok := r.d.analyses[id]
	if !ok || a.Status.IsTerminal() {
		return false, nil
	}
	a.Status = status
	a.ErrorMessage = errMsg
	a.UpdatedAt = r.d.tick()
	return true, nil
}

func (r *fakeAnalyses) SetResult(_ context.Context, id string, res models.AnalysisResult) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	a, ok := r.d.analyses[id]
	if !ok {
		return common.ErrorNotFound
	}
	if res.DocxKey != "" {
		a.DocxKey = res.DocxKey
	}
	if res.PdfKey != "" {
		a.PdfKey = res.PdfKey
	}
	if res.Text != "" {
		a.Text = res.Text
	}
	if res.Summary != "" {
		a.Summary = res.Summary
	}
	return nil
}

func (r *fakeAnalyses) CountCompletedForUser(_ context.Context, userID string) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	n := 0
	for _, a := range r.d.analyses {
		t := r.d.trs[a.TranscriptionID]
		if t == nil || a.Status != models.StatusCompleted {
			continue
		}
		if f := r.d.files[t.FileID]; f != nil && f.UserID == userID {
			n++
		}
	}
	return n, nil
}

// --- tariffs & payments ---

type fakeTariffs struct{ d *fakeData }

func (r *fakeTariffs) ListActive(context.Context) ([]*models.Tariff, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []*models.Tariff
	for _, t := range r.d.tariffs {
		if t.IsActive {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Minutes < out[j].Minutes })
	return out, nil
}

func (r *fakeTariffs) GetActive(_ context.Context, id string) (*models.Tariff, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	t, ok := r.d.tariffs[id]
	if !ok || !t.IsActive {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

type fakePayments struct{ d *fakeData }

func (r *fakePayments) Create(_ context.Context, p *models.Payment) (*models.Payment, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	now := r.d.tick()
	c := *p
	c.ID = r.d.nextID("pay")
	c.Status = models.PaymentPending
	c.CreatedAt, c.UpdatedAt = now, now
	r.d.payments = append(r.d.payments, &c)
	out := c
	return &out, nil
}

func (r *fakePayments) ListForUser(_ context.Context, userID string) ([]*models.Payment, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []*models.Payment
	for i := len(r.d.payments) - 1; i >= 0; i-- {
		if p := r.d.payments[i]; p.UserID == userID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

// --- dispatcher ---

type fakeDispatcher struct {
	mu             sync.Mutex
	transcriptions []dispatch.TranscriptionTask
	analyses       []dispatch.AnalysisTask

	failTranscription error
	failAnalysis      map[models.AnalysisType]error
	// onAnalysis runs before an analysis dispatch returns, outside the lock.
	onAnalysis func(dispatch.AnalysisTask)
}

func (f *fakeDispatcher) DispatchTranscription(_ context.Context, task dispatch.TranscriptionTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcriptions = append(f.transcriptions, task)
	return f.failTranscription
}

func (f *fakeDispatcher) DispatchAnalysis(_ context.Context, task dispatch.AnalysisTask) error {
	f.mu.Lock()
	f.analyses = append(f.analyses, task)
	err := f.failAnalysis[task.AnalysisType]
	hook := f.onAnalysis
	f.mu.Unlock()
	if hook != nil {
		hook(task)
	}
	return err
}

func (f *fakeDispatcher) analysisCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.analyses)
}

// --- fixture ---

const testCallbackSecret = "callback-secret"

type fixture struct {
	db     *sql.DB
	mock   sqlmock.Sqlmock
	data   *fakeData
	rm     *fakeRM
	store  *blobstore.Memory
	disp   *fakeDispatcher
	tokens *auth.CallbackTokens
	cfg    *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AppBaseURL = "https://vat.example/"

	data := newFakeData()
	return &fixture{
		db:     db,
		mock:   mock,
		data:   data,
		rm:     &fakeRM{d: data},
		store:  blobstore.NewMemory(),
		disp:   &fakeDispatcher{failAnalysis: map[models.AnalysisType]error{}},
		tokens: auth.NewCallbackTokens(testCallbackSecret, time.Hour),
		cfg:    cfg,
	}
}

func (f *fixture) files() *FileService {
	return NewFileService(f.db, f.rm, f.store, f.disp, f.tokens, f.cfg, logging.Nop())
}

func (f *fixture) analysesSvc() *AnalysisService {
	return NewAnalysisService(f.db, f.rm, f.store, f.disp, f.tokens, f.cfg, logging.Nop())
}

func (f *fixture) webhooks() *WebhookService {
	return NewWebhookService(f.db, f.rm, f.store, f.tokens, logging.Nop())
}

// seedTranscription stores a file owned by userID with a transcription in
// the given status.
func (f *fixture) seedTranscription(userID string, status models.ProcessingStatus, textKey string) *models.Transcription {
	d := f.data
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.tick()
	file := &models.AudioFile{
		ID:         d.nextID("file"),
		UserID:     userID,
		StorageKey: "audio/" + userID + "/seed.mp3",
		SizeBytes:  1024,
		Status:     models.AudioUploaded,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	d.files[file.ID] = file
	tr := &models.Transcription{
		ID:        d.nextID("tr"),
		FileID:    file.ID,
		TextKey:   textKey,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.trs[tr.ID] = tr
	c := *tr
	return &c
}

// seedAnalysis stores an analysis in the given status.
func (f *fixture) seedAnalysis(trID string, at models.AnalysisType, status models.ProcessingStatus) *models.Analysis {
	d := f.data
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.tick()
	a := &models.Analysis{
		ID:              d.nextID("an"),
		TranscriptionID: trID,
		Type:            at,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	d.analyses[a.ID] = a
	c := *a
	return &c
}
