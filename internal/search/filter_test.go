package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-search-api/internal/models"
)

func intPtr(v int) *int { return &v }

func TestFilterSetNormalize(t *testing.T) {
	f := models.FilterSet{PeriodEnd: intPtr(4)}.Normalize()
	require.NotNil(t, f.PeriodStart)
	assert.Equal(t, 4, *f.PeriodStart)
	assert.Equal(t, 4, *f.PeriodEnd)

	f = models.FilterSet{PeriodStart: intPtr(2)}.Normalize()
	require.NotNil(t, f.PeriodEnd)
	assert.Equal(t, 2, *f.PeriodEnd)

	f = models.FilterSet{PeriodStart: intPtr(5), PeriodEnd: intPtr(1)}.Normalize()
	assert.Equal(t, 5, *f.PeriodEnd)

	assert.True(t, models.FilterSet{}.Normalize().IsZero())
}

func TestTeacherPredicateDayPresence(t *testing.T) {
	details := models.BuildTeacherDetails(fixtureTimetable())
	sari := details["Sari"]
	require.NotNil(t, sari)

	assert.True(t, teacherMatchesFilters(sari, models.FilterSet{Day: "Tuesday"}))
	assert.False(t, teacherMatchesFilters(details["Dewi"], models.FilterSet{Day: "Tuesday"}))
}

func TestTeacherPredicateAvailabilityWindow(t *testing.T) {
	details := models.BuildTeacherDetails(fixtureTimetable())
	rahma := details["Rahma"]
	require.NotNil(t, rahma)

	free := models.FilterSet{
		Day:              "Monday",
		PeriodStart:      intPtr(3),
		PeriodEnd:        intPtr(5),
		TeacherAvailable: true,
	}
	assert.True(t, teacherMatchesFilters(rahma, free))

	busy := models.FilterSet{
		Day:              "Monday",
		PeriodStart:      intPtr(1),
		PeriodEnd:        intPtr(3),
		TeacherAvailable: true,
	}
	assert.False(t, teacherMatchesFilters(rahma, busy))

	// Availability without a range start is ignored.
	assert.True(t, teacherMatchesFilters(rahma, models.FilterSet{Day: "Monday", TeacherAvailable: true}))
}

func TestClassPredicateRangeAndSubject(t *testing.T) {
	tt := fixtureTimetable()

	assert.True(t, classMatchesFilters(tt, "10A", models.FilterSet{}))
	assert.False(t, classMatchesFilters(tt, "11B", models.FilterSet{Day: "Tuesday"}))

	occupied := models.FilterSet{Day: "Monday", PeriodStart: intPtr(4), PeriodEnd: intPtr(7)}.Normalize()
	assert.True(t, classMatchesFilters(tt, "10A", occupied))
	assert.False(t, classMatchesFilters(tt, "11B", occupied))

	// Range clipped to the day's actual period count.
	wide := models.FilterSet{Day: "Monday", PeriodStart: intPtr(4), PeriodEnd: intPtr(99)}.Normalize()
	assert.True(t, classMatchesFilters(tt, "10A", wide))

	withSubject := models.FilterSet{Day: "Monday", Subject: "biology"}.Normalize()
	assert.True(t, classMatchesFilters(tt, "10A", withSubject))
	assert.False(t, classMatchesFilters(tt, "11B", withSubject))
}

func TestSubjectPredicate(t *testing.T) {
	assert.True(t, subjectMatchesFilters("Chemistry", models.FilterSet{}))
	assert.True(t, subjectMatchesFilters("Chemistry", models.FilterSet{Subject: "chem"}))
	assert.False(t, subjectMatchesFilters("Biology", models.FilterSet{Subject: "chem"}))
}
