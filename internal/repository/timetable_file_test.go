package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timetable.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTimetableFile(t *testing.T) {
	path := writeSnapshot(t, `{
		"version": 1,
		"days": {
			"Monday": {
				"10A": [
					{"subject": "Mathematics", "teacher": "Rahma"},
					{"subject": "", "teacher": ""}
				]
			}
		}
	}`)

	tt, err := LoadTimetableFile(path)
	require.NoError(t, err)
	require.Contains(t, tt, "Monday")
	assert.Equal(t, "Rahma", tt["Monday"]["10A"][0].Teacher)
	assert.True(t, tt["Monday"]["10A"][1].IsFree())
}

func TestLoadTimetableFileVersionMismatch(t *testing.T) {
	path := writeSnapshot(t, `{"version": 2, "days": {}}`)
	_, err := LoadTimetableFile(path)
	assert.ErrorContains(t, err, "unsupported version")
}

func TestLoadTimetableFileMissingDays(t *testing.T) {
	path := writeSnapshot(t, `{"version": 1}`)
	_, err := LoadTimetableFile(path)
	assert.ErrorContains(t, err, "missing days")
}

func TestLoadTimetableFileBadJSON(t *testing.T) {
	path := writeSnapshot(t, `{not json`)
	_, err := LoadTimetableFile(path)
	assert.Error(t, err)

	_, err = LoadTimetableFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
