package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-search-api/internal/models"
)

// TimetableRepository loads published timetable slots from Postgres and
// assembles them into the in-memory structure the search engine scans.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

type timetableSlotRow struct {
	DayOfWeek   string         `db:"day_of_week"`
	ClassName   string         `db:"class_name"`
	PeriodIndex int            `db:"period_index"`
	Subject     sql.NullString `db:"subject"`
	Teacher     sql.NullString `db:"teacher"`
}

// Load reads every slot for the given term. Rows with an out-of-range period
// index or an unknown weekday are skipped; missing indices stay free periods.
func (r *TimetableRepository) Load(ctx context.Context, termID string) (models.Timetable, error) {
	query := `SELECT day_of_week, class_name, period_index, subject, teacher
		FROM timetable_slots WHERE term_id = $1
		ORDER BY day_of_week, class_name, period_index`

	var rows []timetableSlotRow
	if err := r.db.SelectContext(ctx, &rows, query, termID); err != nil {
		return nil, fmt.Errorf("load timetable slots for term %s: %w", termID, err)
	}

	weekdays := make(map[string]bool, len(models.Weekdays))
	for _, day := range models.Weekdays {
		weekdays[day] = true
	}

	tt := models.Timetable{}
	for _, row := range rows {
		if !weekdays[row.DayOfWeek] || row.PeriodIndex < 0 || row.PeriodIndex >= models.PeriodsPerDay {
			continue
		}
		classes := tt[row.DayOfWeek]
		if classes == nil {
			classes = map[string][]models.Period{}
			tt[row.DayOfWeek] = classes
		}
		periods := classes[row.ClassName]
		if periods == nil {
			periods = make([]models.Period, models.PeriodsPerDay)
		}
		periods[row.PeriodIndex] = models.Period{
			Subject: row.Subject.String,
			Teacher: row.Teacher.String,
		}
		classes[row.ClassName] = periods
	}
	return tt, nil
}
