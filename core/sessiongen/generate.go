// Package sessiongen materialises sessions from week rules: every location
// that some doctor's rule permits on a date becomes one session that day.
package sessiongen

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kilianp07/rosterplan/core/model"
)

// MaxDays bounds the generated range.
const MaxDays = 366 * 2

// ErrInvalidRange is returned when To precedes From or the range is too long.
var ErrInvalidRange = errors.New("invalid date range")

// Options configures a generation run.
type Options struct {
	From model.Date
	To   model.Date
	// DefaultStart and DefaultEnd apply to locations without their own
	// default times. Zero values mean 09:00 and 17:00.
	DefaultStart model.Clock
	DefaultEnd   model.Clock
	// Existing holds session IDs that generated IDs must not collide with.
	Existing []string
}

func (o *Options) setDefaults() {
	if o.DefaultStart == 0 && o.DefaultEnd == 0 {
		o.DefaultStart = model.MustClock("09:00")
		o.DefaultEnd = model.MustClock("17:00")
	}
}

// Generate emits one session per (date, location) in [From, To] for every
// location referenced by a week rule matching that date. Unknown locations
// are skipped. Generated sessions have no required skill; the room is set
// when the location has exactly one.
func Generate(locations []model.Location, rules []model.WeekRule, rooms []model.Room, opts Options) ([]model.Session, error) {
	opts.setDefaults()
	if opts.To.Before(opts.From) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, opts.To, opts.From)
	}
	if days := daysBetween(opts.From, opts.To); days > MaxDays {
		return nil, fmt.Errorf("%w: %d days exceeds %d", ErrInvalidRange, days, MaxDays)
	}

	known := make(map[string]model.Location, len(locations))
	for _, l := range locations {
		known[l.ID] = l
	}
	roomsByLoc := make(map[string][]model.Room)
	for _, r := range rooms {
		roomsByLoc[r.LocationID] = append(roomsByLoc[r.LocationID], r)
	}
	type bucket struct {
		week int
		wd   model.Weekday
	}
	byBucket := make(map[bucket]map[string]struct{})
	for _, r := range rules {
		if _, ok := known[r.LocationID]; !ok {
			continue
		}
		b := bucket{r.WeekOfMonth, r.Weekday}
		if byBucket[b] == nil {
			byBucket[b] = make(map[string]struct{})
		}
		byBucket[b][r.LocationID] = struct{}{}
	}

	taken := make(map[string]struct{}, len(opts.Existing))
	for _, id := range opts.Existing {
		taken[id] = struct{}{}
	}

	var out []model.Session
	for day := opts.From; !opts.To.Before(day); day = day.AddDays(1) {
		set := byBucket[bucket{day.WeekOfMonth(), day.Weekday()}]
		locs := make([]string, 0, len(set))
		for id := range set {
			locs = append(locs, id)
		}
		sort.Strings(locs)
		for _, id := range locs {
			loc := known[id]
			s := model.Session{
				ID:         uniqueID(fmt.Sprintf("GEN-%04d%02d%02d-%s", day.Year, int(day.Month), day.Day, id), taken),
				Date:       day,
				LocationID: id,
				Start:      opts.DefaultStart,
				End:        opts.DefaultEnd,
			}
			if loc.DefaultStart != 0 || loc.DefaultEnd != 0 {
				s.Start, s.End = loc.DefaultStart, loc.DefaultEnd
			}
			if rs := roomsByLoc[id]; len(rs) == 1 {
				s.Room = rs[0].Name
				if s.Room == "" {
					s.Room = rs[0].ID
				}
			}
			out = append(out, s)
		}
	}
	return out, nil
}

func uniqueID(id string, taken map[string]struct{}) string {
	candidate := id
	for k := 2; ; k++ {
		if _, ok := taken[candidate]; !ok {
			taken[candidate] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", id, k)
	}
}

func daysBetween(a, b model.Date) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}

// Merge concatenates existing and generated sessions and drops duplicate
// IDs, keeping the last occurrence at its position.
func Merge(existing, generated []model.Session) []model.Session {
	all := make([]model.Session, 0, len(existing)+len(generated))
	all = append(all, existing...)
	all = append(all, generated...)
	last := make(map[string]int, len(all))
	for i, s := range all {
		last[s.ID] = i
	}
	out := make([]model.Session, 0, len(last))
	for i, s := range all {
		if last[s.ID] == i {
			out = append(out, s)
		}
	}
	return out
}
