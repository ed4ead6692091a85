package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/inkfest/inkfest-api/internal/models"
	appErrors "github.com/inkfest/inkfest-api/pkg/errors"
	"github.com/inkfest/inkfest-api/pkg/export"
	"github.com/inkfest/inkfest-api/pkg/jobs"
	"github.com/inkfest/inkfest-api/pkg/storage"
)

type exportRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	List(ctx context.Context, limit int) ([]models.ExportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ExportStatus, progress int) error
	MarkFinished(ctx context.Context, id, resultURL string) error
	MarkFailed(ctx context.Context, id, message string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type reportBuilder interface {
	BuildReport(ctx context.Context, scope models.ResultsScope) (*models.ResultsReport, error)
}

type exportEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	RenderSections(title string, sections []export.Section) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService queues results exports and renders them in the background.
type ExportService struct {
	repo      exportRepository
	reports   reportBuilder
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.DownloadSigner
	queue     exportEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportRepository, reports reportBuilder, fs fileStorage, signer *storage.DownloadSigner, cfg ExportConfig, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		repo:      repo,
		reports:   reports,
		storage:   fs,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// SetQueue wires the background dispatcher.
func (s *ExportService) SetQueue(queue exportEnqueuer) {
	s.queue = queue
}

// CreateJob persists a queued export and hands it to the worker pool.
func (s *ExportService) CreateJob(ctx context.Context, userID string, req models.CreateExportRequest) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled")
	}

	job := &models.ExportJob{
		FestivalID: req.FestivalID,
		DayID:      req.DayID,
		Format:     req.Format,
		Status:     models.ExportStatusQueued,
		CreatedBy:  userID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "results_export"}); err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, "queue is full"); markErr != nil {
			s.logger.Warn("failed to mark export failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	s.logger.Info("export queued", zap.String("job_id", job.ID), zap.String("format", string(job.Format)))
	return job, nil
}

// GetJob returns an export job's current state.
func (s *ExportService) GetJob(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// ListJobs returns recent export jobs.
func (s *ExportService) ListJobs(ctx context.Context, limit int) ([]models.ExportJob, error) {
	list, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list export jobs")
	}
	return list, nil
}

// Handle is the queue worker entrypoint: it renders and stores one export.
func (s *ExportService) Handle(ctx context.Context, queued jobs.Job) error {
	job, err := s.repo.FindByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.ID, err)
	}
	if job.Status == models.ExportStatusFinished {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, job.ID, models.ExportStatusProcessing, 10); err != nil {
		return fmt.Errorf("mark export processing: %w", err)
	}

	url, err := s.generate(ctx, job)
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			s.logger.Warn("failed to mark export failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return err
	}
	if err := s.repo.MarkFinished(ctx, job.ID, url); err != nil {
		return fmt.Errorf("mark export finished: %w", err)
	}
	s.logger.Info("export finished", zap.String("job_id", job.ID), zap.String("url", url))
	return nil
}

func (s *ExportService) generate(ctx context.Context, job *models.ExportJob) (string, error) {
	scope := models.ResultsScope{}
	if job.FestivalID != nil {
		scope.FestivalID = *job.FestivalID
	}
	if job.DayID != nil {
		scope.DayID = *job.DayID
	}
	report, err := s.reports.BuildReport(ctx, scope)
	if err != nil {
		return "", fmt.Errorf("build results report: %w", err)
	}

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(flattenReport(report))
	case models.ExportFormatPDF:
		payload, err = s.pdf.RenderSections("Contest Results", reportSections(report))
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("results_%s.%s", time.Now().UTC().Format("20060102_150405"), job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return "", fmt.Errorf("store export: %w", err)
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return "", fmt.Errorf("sign export url: %w", err)
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/exports/download/%s", prefix, token), nil
}

// OpenByToken validates a download token and opens the referenced file.
func (s *ExportService) OpenByToken(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	return file, nil
}

// Cleanup removes stale export files and finished job records.
func (s *ExportService) Cleanup(ctx context.Context) {
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("export file cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("export files removed", zap.Int("count", len(removed)))
	}
	cutoff := time.Now().UTC().Add(-s.cfg.ResultTTL)
	if _, err := s.repo.DeleteOlderThan(ctx, cutoff); err != nil {
		s.logger.Warn("export job cleanup failed", zap.Error(err))
	}
}

const scoreFormat = "%.2f"

var resultHeaders = []string{"Day", "Contest", "Category", "Division", "Entry", "Participant", "Score", "Place"}

func flattenReport(report *models.ResultsReport) export.Dataset {
	rows := make([]map[string]string, 0)
	for _, day := range report.Days {
		for _, contest := range day.Contests {
			rows = append(rows, contestRows(day, contest)...)
		}
	}
	return export.Dataset{Headers: resultHeaders, Rows: rows}
}

func reportSections(report *models.ResultsReport) []export.Section {
	sections := make([]export.Section, 0)
	for _, day := range report.Days {
		for _, contest := range day.Contests {
			heading := fmt.Sprintf("Day %d - %s", day.Day.DayOrder, contestName(contest))
			sections = append(sections, export.Section{
				Heading: heading,
				Data:    export.Dataset{Headers: resultHeaders, Rows: contestRows(day, contest)},
			})
		}
	}
	if len(sections) == 0 {
		sections = append(sections, export.Section{
			Heading: "No contests in scope",
			Data:    export.Dataset{Headers: resultHeaders},
		})
	}
	return sections
}

func contestRows(day models.DayResults, contest models.ContestResults) []map[string]string {
	rows := make([]map[string]string, 0, len(contest.Pro)+len(contest.Junior))
	appendGroup := func(division string, aggregates []models.ParticipationAggregate) {
		for _, aggregate := range aggregates {
			participant := ""
			if aggregate.User != nil {
				participant = aggregate.User.DisplayName()
			}
			place := ""
			if aggregate.ConfirmedPlace != nil {
				place = fmt.Sprintf("%d", *aggregate.ConfirmedPlace)
			}
			category := ""
			if contest.Contest.Judging != nil {
				category = string(contest.Contest.Judging.Category)
			}
			rows = append(rows, map[string]string{
				"Day":         day.Day.Date.Format("2006-01-02"),
				"Contest":     contestName(contest),
				"Category":    category,
				"Division":    division,
				"Entry":       fmt.Sprintf("%d", aggregate.EntryNumber),
				"Participant": participant,
				"Score":       fmt.Sprintf(scoreFormat, aggregate.FinalScore),
				"Place":       place,
			})
		}
	}
	appendGroup("pro", contest.Pro)
	appendGroup("junior", contest.Junior)
	return rows
}

func contestName(contest models.ContestResults) string {
	if contest.Contest.Judging != nil && contest.Contest.Judging.Template != nil {
		return contest.Contest.Judging.Template.Name
	}
	return contest.Contest.ID
}
