package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-search-api/internal/models"
)

func newTimetableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableRepositoryLoad(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"day_of_week", "class_name", "period_index", "subject", "teacher"}).
		AddRow("Monday", "10A", 0, "Mathematics", "Rahma").
		AddRow("Monday", "10A", 2, "Physics/Chemistry", "Adi/Bima").
		AddRow("Monday", "10A", 1, nil, nil).
		AddRow("Tuesday", "11B", 0, "English", "Sari")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT day_of_week, class_name, period_index, subject, teacher")).
		WithArgs("term-2026-1").
		WillReturnRows(rows)

	tt, err := repo.Load(context.Background(), "term-2026-1")
	require.NoError(t, err)

	periods := tt["Monday"]["10A"]
	require.Len(t, periods, models.PeriodsPerDay)
	assert.Equal(t, "Mathematics", periods[0].Subject)
	assert.True(t, periods[1].IsFree())
	assert.Equal(t, "Adi/Bima", periods[2].Teacher)
	assert.Equal(t, "English", tt["Tuesday"]["11B"][0].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryLoadSkipsMalformedRows(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"day_of_week", "class_name", "period_index", "subject", "teacher"}).
		AddRow("Funday", "10A", 0, "Math", "Rahma").
		AddRow("Monday", "10A", 99, "Math", "Rahma").
		AddRow("Monday", "10A", -1, "Math", "Rahma")
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_slots WHERE term_id = $1")).
		WithArgs("term-2026-1").
		WillReturnRows(rows)

	tt, err := repo.Load(context.Background(), "term-2026-1")
	require.NoError(t, err)
	assert.Empty(t, tt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryLoadQueryError(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery("FROM timetable_slots").
		WillReturnError(assert.AnError)

	_, err := repo.Load(context.Background(), "term-2026-1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
