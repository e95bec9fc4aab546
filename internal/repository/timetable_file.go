package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/noah-isme/timetable-search-api/internal/models"
)

const timetableFileVersion = 1

type timetableFile struct {
	Version int              `json:"version"`
	Days    models.Timetable `json:"days"`
}

// LoadTimetableFile reads a timetable snapshot exported as JSON. Used by
// deployments without a database, and by local development.
func LoadTimetableFile(path string) (models.Timetable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timetable file: %w", err)
	}

	var doc timetableFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse timetable file %s: %w", path, err)
	}
	if doc.Version != timetableFileVersion {
		return nil, fmt.Errorf("timetable file %s: unsupported version %d", path, doc.Version)
	}
	if doc.Days == nil {
		return nil, fmt.Errorf("timetable file %s: missing days", path)
	}
	return doc.Days, nil
}
