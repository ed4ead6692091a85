package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfest/inkfest-api/internal/models"
	"github.com/inkfest/inkfest-api/pkg/jobs"
	"github.com/inkfest/inkfest-api/pkg/storage"
)

type mockExportRepo struct {
	jobs map[string]*models.ExportJob
}

func newMockExportRepo() *mockExportRepo {
	return &mockExportRepo{jobs: map[string]*models.ExportJob{}}
}

func (m *mockExportRepo) Create(_ context.Context, job *models.ExportJob) error {
	job.ID = uuid.NewString()
	job.CreatedAt = time.Now().UTC()
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *mockExportRepo) FindByID(_ context.Context, id string) (*models.ExportJob, error) {
	j, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *j
	return &copied, nil
}

func (m *mockExportRepo) List(_ context.Context, limit int) ([]models.ExportJob, error) {
	var out []models.ExportJob
	for _, j := range m.jobs {
		out = append(out, *j)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockExportRepo) UpdateStatus(_ context.Context, id string, status models.ExportStatus, progress int) error {
	if j, ok := m.jobs[id]; ok {
		j.Status = status
		j.Progress = progress
	}
	return nil
}

func (m *mockExportRepo) MarkFinished(_ context.Context, id, resultURL string) error {
	if j, ok := m.jobs[id]; ok {
		j.Status = models.ExportStatusFinished
		j.Progress = 100
		j.ResultURL = &resultURL
		now := time.Now().UTC()
		j.FinishedAt = &now
	}
	return nil
}

func (m *mockExportRepo) MarkFailed(_ context.Context, id, message string) error {
	if j, ok := m.jobs[id]; ok {
		j.Status = models.ExportStatusFailed
		j.ErrorMessage = &message
	}
	return nil
}

func (m *mockExportRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for id, j := range m.jobs {
		if j.CreatedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed, nil
}

type mockReportBuilder struct {
	report *models.ResultsReport
	scopes []models.ResultsScope
}

func (m *mockReportBuilder) BuildReport(_ context.Context, scope models.ResultsScope) (*models.ResultsReport, error) {
	m.scopes = append(m.scopes, scope)
	return m.report, nil
}

type captureEnqueuer struct {
	jobs []jobs.Job
	full bool
}

func (c *captureEnqueuer) Enqueue(job jobs.Job) error {
	if c.full {
		return errors.New("queue exports not started")
	}
	c.jobs = append(c.jobs, job)
	return nil
}

func exportTestReport() *models.ResultsReport {
	nickname := "inkwell"
	place := 1
	return &models.ResultsReport{
		GeneratedAt: time.Now().UTC(),
		Days: []models.DayResults{
			{
				Day: models.EventDay{
					ID:       uuid.NewString(),
					Date:     time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
					DayOrder: 1,
				},
				Contests: []models.ContestResults{
					{
						Contest: models.TimeSlot{
							ID:   uuid.NewString(),
							Type: models.SlotJudging,
							Judging: &models.JudgingDetails{
								Category: models.CategoryFresh,
								Template: &models.NominationTemplate{Name: "Best Color"},
							},
						},
						Pro: []models.ParticipationAggregate{
							{
								ParticipationID: uuid.NewString(),
								EntryNumber:     1,
								User:            &models.User{Nickname: &nickname},
								FinalScore:      9.25,
								ConfirmedPlace:  &place,
								Category:        models.CategoryPro,
							},
						},
					},
				},
			},
		},
	}
}

func newExportFixture(t *testing.T) (*ExportService, *mockExportRepo, *captureEnqueuer) {
	t.Helper()
	repo := newMockExportRepo()
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewDownloadSigner("export-test-secret", time.Hour)
	svc := NewExportService(repo, &mockReportBuilder{report: exportTestReport()}, fs, signer, ExportConfig{
		APIPrefix: "/api/v1",
	}, nil, nil)
	queue := &captureEnqueuer{}
	svc.SetQueue(queue)
	return svc, repo, queue
}

func TestCreateJobEnqueues(t *testing.T) {
	svc, repo, queue := newExportFixture(t)

	job, err := svc.CreateJob(context.Background(), uuid.NewString(), models.CreateExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	assert.Equal(t, models.ExportStatusQueued, job.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, job.ID, queue.jobs[0].ID)
	assert.Contains(t, repo.jobs, job.ID)
}

func TestCreateJobWithoutQueue(t *testing.T) {
	repo := newMockExportRepo()
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc := NewExportService(repo, &mockReportBuilder{report: exportTestReport()}, fs,
		storage.NewDownloadSigner("s", time.Hour), ExportConfig{}, nil, nil)

	_, err = svc.CreateJob(context.Background(), uuid.NewString(), models.CreateExportRequest{Format: models.ExportFormatCSV})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestCreateJobQueueFull(t *testing.T) {
	svc, repo, queue := newExportFixture(t)
	queue.full = true

	_, err := svc.CreateJob(context.Background(), uuid.NewString(), models.CreateExportRequest{Format: models.ExportFormatPDF})
	require.Error(t, err)

	// the persisted job records the failure
	for _, j := range repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, j.Status)
	}
}

func TestHandleRendersCSV(t *testing.T) {
	svc, repo, _ := newExportFixture(t)

	job, err := svc.CreateJob(context.Background(), uuid.NewString(), models.CreateExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	require.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: job.ID, Type: "results_export"}))

	stored := repo.jobs[job.ID]
	assert.Equal(t, models.ExportStatusFinished, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	require.NotNil(t, stored.ResultURL)
	assert.True(t, strings.HasPrefix(*stored.ResultURL, "/api/v1/exports/download/"))
	require.NotNil(t, stored.FinishedAt)
}

func TestHandleRendersPDF(t *testing.T) {
	svc, repo, _ := newExportFixture(t)

	job, err := svc.CreateJob(context.Background(), uuid.NewString(), models.CreateExportRequest{Format: models.ExportFormatPDF})
	require.NoError(t, err)

	require.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: job.ID}))
	assert.Equal(t, models.ExportStatusFinished, repo.jobs[job.ID].Status)
}

func TestHandleSkipsFinishedJob(t *testing.T) {
	svc, repo, _ := newExportFixture(t)

	job, err := svc.CreateJob(context.Background(), uuid.NewString(), models.CreateExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	url := "/api/v1/exports/download/settled"
	require.NoError(t, repo.MarkFinished(context.Background(), job.ID, url))

	require.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: job.ID}))
	assert.Equal(t, url, *repo.jobs[job.ID].ResultURL)
}

func TestHandleUnknownJob(t *testing.T) {
	svc, _, _ := newExportFixture(t)

	err := svc.Handle(context.Background(), jobs.Job{ID: uuid.NewString()})
	require.Error(t, err)
}

func TestDownloadRoundTrip(t *testing.T) {
	svc, repo, _ := newExportFixture(t)

	job, err := svc.CreateJob(context.Background(), uuid.NewString(), models.CreateExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	require.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: job.ID}))

	url := *repo.jobs[job.ID].ResultURL
	token := url[strings.LastIndex(url, "/")+1:]

	file, err := svc.OpenByToken(token)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "Best Color")
	assert.Contains(t, text, "inkwell")
	assert.Contains(t, text, "9.25")
}

func TestDownloadInvalidToken(t *testing.T) {
	svc, _, _ := newExportFixture(t)

	_, err := svc.OpenByToken("not-a-valid-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download link")
}

func TestFlattenReportRows(t *testing.T) {
	dataset := flattenReport(exportTestReport())

	assert.Equal(t, resultHeaders, dataset.Headers)
	require.Len(t, dataset.Rows, 1)
	row := dataset.Rows[0]
	assert.Equal(t, "2026-09-12", row["Day"])
	assert.Equal(t, "Best Color", row["Contest"])
	assert.Equal(t, "fresh", row["Category"])
	assert.Equal(t, "pro", row["Division"])
	assert.Equal(t, "9.25", row["Score"])
	assert.Equal(t, "1", row["Place"])
}

func TestReportSectionsEmptyScope(t *testing.T) {
	sections := reportSections(&models.ResultsReport{})

	require.Len(t, sections, 1)
	assert.Equal(t, "No contests in scope", sections[0].Heading)
	assert.Empty(t, sections[0].Data.Rows)
}
