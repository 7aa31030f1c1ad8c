package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rosterplan/core/model"
)

func session(id, date, loc string) model.Session {
	return model.Session{
		ID:         id,
		Date:       model.MustDate(date),
		LocationID: loc,
		Start:      model.MustClock("09:00"),
		End:        model.MustClock("12:00"),
	}
}

func snapshot(t *testing.T, in model.Input) *model.Snapshot {
	t.Helper()
	snap, err := model.NewSnapshot(in)
	require.NoError(t, err)
	return snap
}

func TestEvaluate_AllRulesPass(t *testing.T) {
	snap := snapshot(t, model.Input{
		Doctors:  []model.Doctor{{ID: "d1", MaxSessions: 2}},
		Sessions: []model.Session{session("s1", "2024-03-04", "L1"), session("s2", "2024-03-05", "L1")},
	})
	res := NewEvaluator().Evaluate(snap)
	assert.Len(t, res.Pairs, 2)
	assert.Equal(t, []int{0, 1}, res.ByDoctor[0])
	assert.Empty(t, res.Unreachable())
	assert.Equal(t, []string{"d1"}, res.DoctorsFor("s2"))
}

func TestEvaluate_Reasons(t *testing.T) {
	wed := "2024-03-06" // week 1, Wednesday
	cardio := session("cardio", wed, "L1")
	cardio.RequiredSkill = "cardio"

	cases := []struct {
		name   string
		doctor model.Doctor
		extra  model.Input
		sess   model.Session
		want   Reason
	}{
		{
			name:   "unavailable",
			doctor: model.Doctor{ID: "d", Unavailable: model.NewDateSet(model.MustDate(wed))},
			sess:   session("s", wed, "L1"),
			want:   ReasonUnavailable,
		},
		{
			name:   "unavailable beats explicit availability",
			doctor: model.Doctor{ID: "d", Unavailable: model.NewDateSet(model.MustDate(wed)), Available: model.NewDateSet(model.MustDate(wed))},
			sess:   session("s", wed, "L1"),
			want:   ReasonUnavailable,
		},
		{
			name:   "skill",
			doctor: model.Doctor{ID: "d", Skills: model.NewSkillSet("echo")},
			sess:   cardio,
			want:   ReasonSkill,
		},
		{
			name:   "rhythm",
			doctor: model.Doctor{ID: "d"},
			extra:  model.Input{Workdays: []model.WorkdayRule{{DoctorID: "d", Weekday: model.Monday}}},
			sess:   session("s", wed, "L1"),
			want:   ReasonRhythm,
		},
		{
			name:   "week rule",
			doctor: model.Doctor{ID: "d"},
			extra:  model.Input{WeekRules: []model.WeekRule{{DoctorID: "d", WeekOfMonth: 1, Weekday: model.Wednesday, LocationID: "L2"}}},
			sess:   session("s", wed, "L1"),
			want:   ReasonWeekRule,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := c.extra
			in.Doctors = []model.Doctor{c.doctor}
			in.Sessions = []model.Session{c.sess}
			res := NewEvaluator().Evaluate(snapshot(t, in))
			assert.Empty(t, res.Pairs)
			assert.Equal(t, []int{0}, res.Unreachable())
			require.Len(t, res.Exclusions[0], 1)
			assert.Equal(t, Exclusion{DoctorID: "d", Reason: c.want}, res.Exclusions[0][0])
		})
	}
}

func TestEvaluate_RhythmOverriddenByAvailableDate(t *testing.T) {
	wed := model.MustDate("2024-03-13")
	snap := snapshot(t, model.Input{
		Doctors: []model.Doctor{{ID: "d", MaxSessions: 5, Available: model.NewDateSet(wed)}},
		Workdays: []model.WorkdayRule{
			{DoctorID: "d", Weekday: model.Monday},
			{DoctorID: "d", Weekday: model.Tuesday},
		},
		Sessions: []model.Session{
			session("override", "2024-03-13", "L1"),
			session("other-wed", "2024-03-20", "L1"),
			session("tuesday", "2024-03-12", "L1"),
		},
	})
	res := NewEvaluator().Evaluate(snap)
	assert.ElementsMatch(t, []string{"d"}, res.DoctorsFor("override"))
	assert.Empty(t, res.DoctorsFor("other-wed"))
	assert.ElementsMatch(t, []string{"d"}, res.DoctorsFor("tuesday"))
}

func TestEvaluate_WeekRuleOnlyAppliesToMatchingBucket(t *testing.T) {
	snap := snapshot(t, model.Input{
		Doctors: []model.Doctor{{ID: "d", MaxSessions: 5}},
		WeekRules: []model.WeekRule{
			{DoctorID: "d", WeekOfMonth: 2, Weekday: model.Monday, LocationID: "A"},
			{DoctorID: "d", WeekOfMonth: 2, Weekday: model.Monday, LocationID: "B"},
		},
		Sessions: []model.Session{
			session("w2-a", "2024-03-11", "A"),
			session("w2-b", "2024-03-11", "B"),
			session("w2-c", "2024-03-11", "C"),
			session("w1-c", "2024-03-04", "C"),
		},
	})
	res := NewEvaluator().Evaluate(snap)
	assert.NotEmpty(t, res.DoctorsFor("w2-a"))
	assert.NotEmpty(t, res.DoctorsFor("w2-b"))
	assert.Empty(t, res.DoctorsFor("w2-c"))
	assert.NotEmpty(t, res.DoctorsFor("w1-c"))
}

func TestEvaluator_WithRules(t *testing.T) {
	snap := snapshot(t, model.Input{
		Doctors:  []model.Doctor{{ID: "d1"}, {ID: "d2"}},
		Sessions: []model.Session{session("s1", "2024-03-04", "L1")},
	})
	noD1 := RuleFunc{Name: "blocked", Fn: func(_ *model.Snapshot, d model.Doctor, _ model.Session) bool {
		return d.ID != "d1"
	}}
	base := NewEvaluator()
	res := base.WithRules(noD1).Evaluate(snap)
	assert.Equal(t, []string{"d2"}, res.DoctorsFor("s1"))
	assert.Equal(t, []Exclusion{{DoctorID: "d1", Reason: "blocked"}}, res.Exclusions[0])

	assert.Len(t, base.Evaluate(snap).Pairs, 2, "WithRules must not alter the receiver")
}
