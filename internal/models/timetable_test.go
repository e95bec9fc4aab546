package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitComposite(t *testing.T) {
	assert.Nil(t, SplitComposite(""))
	assert.Equal(t, []string{"Physics"}, SplitComposite("Physics"))
	assert.Equal(t, []string{"Physics", "Chemistry"}, SplitComposite("Physics/Chemistry"))
	assert.Equal(t, []string{"A", "B"}, SplitComposite(" A / B /"))
}

func TestPeriodIsFree(t *testing.T) {
	assert.True(t, Period{}.IsFree())
	assert.False(t, Period{Subject: "Math"}.IsFree())
	assert.False(t, Period{Teacher: "Rahma"}.IsFree())
}

func TestBuildTeacherDetails(t *testing.T) {
	tt := Timetable{
		"Monday": {
			"10A": {
				{Subject: "Mathematics", Teacher: "Rahma"},
				{Subject: "Physics/Chemistry", Teacher: "Adi/Bima"},
				{},
			},
			"11B": {
				{Subject: "Mathematics", Teacher: "Rahma"},
				{}, {},
			},
		},
		"Wednesday": {
			"10A": {
				{Subject: "Mathematics", Teacher: "Rahma"},
				{}, {},
			},
		},
	}

	details := BuildTeacherDetails(tt)
	require.Len(t, details, 3)

	rahma := details["Rahma"]
	require.NotNil(t, rahma)
	assert.Equal(t, []string{"Mathematics"}, rahma.Subjects)
	// Monday slot 0 is shared by both classes and counts once.
	assert.Equal(t, 2, rahma.PeriodCount)
	assert.True(t, rahma.Schedule["Monday"][0])
	assert.True(t, rahma.Schedule["Wednesday"][0])
	assert.False(t, rahma.Schedule["Monday"][1])

	adi := details["Adi"]
	require.NotNil(t, adi)
	assert.Equal(t, []string{"Chemistry", "Physics"}, adi.Subjects)
	assert.Equal(t, 1, adi.PeriodCount)

	bima := details["Bima"]
	require.NotNil(t, bima)
	assert.True(t, bima.Schedule["Monday"][1])
}

func TestClassDaysWeekdayOrder(t *testing.T) {
	tt := Timetable{
		"Friday": {"10A": {{Subject: "Art", Teacher: "Sari"}}},
		"Monday": {"10A": {{Subject: "Math", Teacher: "Rahma"}}},
	}
	assert.Equal(t, []string{"Monday", "Friday"}, tt.ClassDays("10A"))
	assert.Empty(t, tt.ClassDays("12C"))
}

func TestFilterSetCacheKeyStable(t *testing.T) {
	start, end := 1, 3
	f := FilterSet{Day: "Monday", PeriodStart: &start, PeriodEnd: &end, Subject: "Math"}
	assert.Equal(t, f.CacheKey(), f.CacheKey())
	assert.NotEqual(t, f.CacheKey(), FilterSet{}.CacheKey())
}
