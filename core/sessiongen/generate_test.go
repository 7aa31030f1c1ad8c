package sessiongen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rosterplan/core/model"
)

func TestGenerate(t *testing.T) {
	locations := []model.Location{
		{ID: "L1", Name: "One"},
		{ID: "L2", Name: "Two", DefaultStart: model.MustClock("08:00"), DefaultEnd: model.MustClock("12:00")},
	}
	rules := []model.WeekRule{
		{DoctorID: "d1", WeekOfMonth: 1, Weekday: model.Monday, LocationID: "L2"},
		{DoctorID: "d2", WeekOfMonth: 1, Weekday: model.Monday, LocationID: "L1"},
		{DoctorID: "d3", WeekOfMonth: 1, Weekday: model.Monday, LocationID: "L1"},
		{DoctorID: "d1", WeekOfMonth: 1, Weekday: model.Monday, LocationID: "X"},
	}
	rooms := []model.Room{{ID: "r1", LocationID: "L1", Name: "Room 1"}, {ID: "r2", LocationID: "L2"}, {ID: "r3", LocationID: "L2"}}

	out, err := Generate(locations, rules, rooms, Options{
		From:     model.MustDate("2024-03-04"),
		To:       model.MustDate("2024-03-11"),
		Existing: []string{"GEN-20240304-L1"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "GEN-20240304-L1-2", out[0].ID)
	assert.Equal(t, "L1", out[0].LocationID)
	assert.Equal(t, "09:00", out[0].Start.String())
	assert.Equal(t, "17:00", out[0].End.String())
	assert.Equal(t, "Room 1", out[0].Room)
	assert.Empty(t, out[0].RequiredSkill)

	assert.Equal(t, "GEN-20240304-L2", out[1].ID)
	assert.Equal(t, "08:00", out[1].Start.String())
	assert.Empty(t, out[1].Room, "two rooms means no automatic choice")
}

func TestGenerate_CustomDefaultsAndRange(t *testing.T) {
	locations := []model.Location{{ID: "L1"}}
	rules := []model.WeekRule{{DoctorID: "d1", WeekOfMonth: 2, Weekday: model.Wednesday, LocationID: "L1"}}
	out, err := Generate(locations, rules, nil, Options{
		From:         model.MustDate("2024-03-01"),
		To:           model.MustDate("2024-03-31"),
		DefaultStart: model.MustClock("13:00"),
		DefaultEnd:   model.MustClock("18:00"),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.MustDate("2024-03-13"), out[0].Date)
	assert.Equal(t, "13:00", out[0].Start.String())

	_, err = Generate(locations, rules, nil, Options{From: model.MustDate("2024-03-02"), To: model.MustDate("2024-03-01")})
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = Generate(locations, rules, nil, Options{From: model.MustDate("2020-01-01"), To: model.MustDate("2024-01-01")})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestMerge_KeepsLastDuplicate(t *testing.T) {
	a := model.Session{ID: "a", LocationID: "old"}
	b := model.Session{ID: "b"}
	a2 := model.Session{ID: "a", LocationID: "new"}
	out := Merge([]model.Session{a, b}, []model.Session{a2})
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "new", out[1].LocationID)
}

func TestLoadRules(t *testing.T) {
	src := `rules:
  - doctor_id: d1
    week_of_month: 1
    weekday: ma
    location_id: L1
  - doctor_id: d2
    week_of_month: 3
    weekday: 5
    location_id: L2
`
	rules, err := LoadRules(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, model.Monday, rules[0].Weekday)
	assert.Equal(t, model.Friday, rules[1].Weekday)

	_, err = LoadRules(strings.NewReader("rules:\n  - doctor_id: d1\n    week_of_month: 6\n    weekday: ma\n"))
	assert.Error(t, err)
	_, err = LoadRules(strings.NewReader("rules:\n  - doctor_id: d1\n    week_of_month: 1\n    weekday: someday\n"))
	assert.Error(t, err)

	rules, err = LoadRules(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rules)
}
