package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-search-api/internal/models"
	appErrors "github.com/noah-isme/timetable-search-api/pkg/errors"
	"github.com/noah-isme/timetable-search-api/pkg/export"
	"github.com/noah-isme/timetable-search-api/pkg/jobs"
	"github.com/noah-isme/timetable-search-api/pkg/storage"
)

// ExportService renders search result snapshots to CSV synchronously and to
// PDF through a background worker queue. Finished PDFs are fetched with a
// short-lived signed link.
type ExportService struct {
	search  *SearchService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	queue   *jobs.Queue
	logger  *zap.Logger

	mu      sync.RWMutex
	tracked map[string]*models.ExportJob
}

// ExportOptions configures the export worker pool.
type ExportOptions struct {
	WorkerConcurrency int
	WorkerRetries     int
}

// NewExportService constructs the export pipeline. Call Start before
// enqueueing PDF jobs and Stop on shutdown.
func NewExportService(search *SearchService, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger, opts ExportOptions) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		search:  search,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		storage: store,
		signer:  signer,
		logger:  logger,
		tracked: map[string]*models.ExportJob{},
	}
	s.queue = jobs.NewQueue("pdf-export", s.processPDFJob, jobs.Options{
		Workers:    opts.WorkerConcurrency,
		MaxRetries: opts.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// ExportCSV runs the search and renders the results as CSV.
func (s *ExportService) ExportCSV(ctx context.Context, req models.SearchRequest) ([]byte, string, error) {
	results, err := s.search.Search(ctx, req)
	if err != nil {
		return nil, "", err
	}

	payload, err := s.csv.Render(resultDataset(results))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV")
	}
	return payload, exportFileName(req.Query, "csv"), nil
}

// EnqueuePDF registers a PDF export job and queues it for rendering.
func (s *ExportService) EnqueuePDF(ctx context.Context, req models.SearchRequest) (*models.ExportJob, error) {
	job := &models.ExportJob{
		ID:        uuid.NewString(),
		Format:    models.ExportFormatPDF,
		Status:    models.ExportStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.tracked[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: "pdf-export", Payload: req}); err != nil {
		s.setFailed(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}
	return s.snapshot(job.ID), nil
}

// Job returns the current state of an export job, attaching a signed
// download link once rendering has completed.
func (s *ExportService) Job(id string) (*models.ExportJob, error) {
	job := s.snapshot(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if job.Status == models.ExportStatusCompleted {
		token, expires, err := s.signer.Generate(job.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
		}
		job.DownloadURL = "/search/export/download/" + token
		job.URLExpires = &expires
	}
	return job, nil
}

// OpenDownload validates a signed token and opens the rendered file.
func (s *ExportService) OpenDownload(token string) (*os.File, string, error) {
	jobID, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrLinkExpired, "download link is invalid or expired")
	}

	job := s.snapshot(jobID)
	if job == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if job.Status != models.ExportStatusCompleted {
		return nil, "", appErrors.Clone(appErrors.ErrExportNotReady, "export is still being rendered")
	}

	file, err := s.storage.Open(job.FileName)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return file, job.FileName, nil
}

func (s *ExportService) processPDFJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(models.SearchRequest)
	if !ok {
		s.setFailed(job.ID, fmt.Errorf("unexpected payload type %T", job.Payload))
		return nil
	}

	s.setStatus(job.ID, models.ExportStatusProcessing)

	results, err := s.search.Search(ctx, req)
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	title := "Timetable search results"
	if strings.TrimSpace(req.Query) != "" {
		title = fmt.Sprintf("Timetable search results for %q", strings.TrimSpace(req.Query))
	}
	payload, err := s.pdf.Render(resultDataset(results), title)
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	fileName := exportFileName(req.Query, "pdf")
	if _, err := s.storage.Save(fileName, payload); err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if tracked := s.tracked[job.ID]; tracked != nil {
		tracked.Status = models.ExportStatusCompleted
		tracked.FileName = fileName
		tracked.CompletedAt = &now
		tracked.Error = ""
	}
	s.mu.Unlock()
	return nil
}

func (s *ExportService) snapshot(id string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.tracked[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (s *ExportService) setStatus(id string, status models.ExportStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job := s.tracked[id]; job != nil {
		job.Status = status
	}
}

func (s *ExportService) setFailed(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job := s.tracked[id]; job != nil {
		job.Status = models.ExportStatusFailed
		job.Error = err.Error()
	}
}

func resultDataset(results models.ResultSet) export.Dataset {
	records := make([][]string, 0, len(results.Teachers)+len(results.Classes)+len(results.Subjects))
	for _, t := range results.Teachers {
		records = append(records, []string{"teacher", t.Name, strings.Join(t.Subjects, ", "), strconv.Itoa(t.PeriodCount)})
	}
	for _, c := range results.Classes {
		records = append(records, []string{"class", c.Name, strings.Join(c.Days, ", "), ""})
	}
	for _, sub := range results.Subjects {
		records = append(records, []string{"subject", sub.Name, strings.Join(sub.Teachers, ", "), strconv.Itoa(sub.Occurrences)})
	}
	return export.Dataset{
		Headers: []string{"Type", "Name", "Details", "Count"},
		Records: records,
	}
}

func exportFileName(query, ext string) string {
	slug := strings.ToLower(strings.TrimSpace(query))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "all"
	}
	return fmt.Sprintf("search-%s-%s.%s", slug, time.Now().UTC().Format("20060102-150405"), ext)
}
