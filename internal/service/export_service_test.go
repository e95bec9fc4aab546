package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-search-api/internal/models"
	appErrors "github.com/noah-isme/timetable-search-api/pkg/errors"
	"github.com/noah-isme/timetable-search-api/pkg/storage"
)

func newExportFixture(t *testing.T) (*ExportService, func()) {
	t.Helper()
	engine := serviceFixtureEngine(t)
	searchSvc := NewSearchService(engine, nil, 0, nil, nil, nil)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	svc := NewExportService(searchSvc, store, signer, nil, ExportOptions{WorkerConcurrency: 1})
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	return svc, func() {
		svc.Stop()
		cancel()
		engine.Close()
	}
}

func waitForJob(t *testing.T, svc *ExportService, id string) *models.ExportJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.Job(id)
		require.NoError(t, err)
		if job.Status == models.ExportStatusCompleted || job.Status == models.ExportStatusFailed {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("export job %s never finished", id)
	return nil
}

func TestExportCSV(t *testing.T) {
	svc, cleanup := newExportFixture(t)
	defer cleanup()

	payload, name, err := svc.ExportCSV(context.Background(), models.SearchRequest{Query: "rahma"})
	require.NoError(t, err)

	content := string(payload)
	assert.Contains(t, content, "Type,Name,Details,Count")
	assert.Contains(t, content, "teacher,Rahma,Mathematics,1")
	assert.True(t, strings.HasPrefix(name, "search-rahma-"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
}

func TestExportPDFLifecycle(t *testing.T) {
	svc, cleanup := newExportFixture(t)
	defer cleanup()

	job, err := svc.EnqueuePDF(context.Background(), models.SearchRequest{Query: "sari"})
	require.NoError(t, err)
	assert.Equal(t, models.ExportFormatPDF, job.Format)

	finished := waitForJob(t, svc, job.ID)
	require.Equal(t, models.ExportStatusCompleted, finished.Status)
	require.NotEmpty(t, finished.DownloadURL)

	token := strings.TrimPrefix(finished.DownloadURL, "/search/export/download/")
	file, name, err := svc.OpenDownload(token)
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	assert.True(t, strings.HasSuffix(name, ".pdf"))
}

func TestExportDownloadBadToken(t *testing.T) {
	svc, cleanup := newExportFixture(t)
	defer cleanup()

	_, _, err := svc.OpenDownload("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLinkExpired.Code, appErrors.FromError(err).Code)
}

func TestExportJobNotFound(t *testing.T) {
	svc, cleanup := newExportFixture(t)
	defer cleanup()

	_, err := svc.Job("missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
