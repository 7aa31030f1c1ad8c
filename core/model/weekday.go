package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday is an ISO weekday, 1=Monday through 7=Sunday.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = map[string]Weekday{
	"mo": Monday, "mon": Monday, "monday": Monday, "ma": Monday, "maandag": Monday,
	"tu": Tuesday, "tue": Tuesday, "tuesday": Tuesday, "di": Tuesday, "dinsdag": Tuesday,
	"we": Wednesday, "wed": Wednesday, "wednesday": Wednesday, "wo": Wednesday, "woensdag": Wednesday,
	"th": Thursday, "thu": Thursday, "thursday": Thursday, "do": Thursday, "donderdag": Thursday,
	"fr": Friday, "fri": Friday, "friday": Friday, "vr": Friday, "vrijdag": Friday,
	"sa": Saturday, "sat": Saturday, "saturday": Saturday, "za": Saturday, "zaterdag": Saturday,
	"su": Sunday, "sun": Sunday, "sunday": Sunday, "zo": Sunday, "zondag": Sunday,
}

// ParseWeekday accepts 1..7 or a day name or abbreviation (English or Dutch).
func ParseWeekday(s string) (Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if wd, ok := weekdayNames[key]; ok {
		return wd, nil
	}
	if n, err := strconv.Atoi(key); err == nil && Weekday(n).Valid() {
		return Weekday(n), nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// Valid reports whether wd is within 1..7.
func (wd Weekday) Valid() bool { return wd >= Monday && wd <= Sunday }

func (wd Weekday) String() string {
	switch wd {
	case Monday:
		return "Monday"
	case Tuesday:
		return "Tuesday"
	case Wednesday:
		return "Wednesday"
	case Thursday:
		return "Thursday"
	case Friday:
		return "Friday"
	case Saturday:
		return "Saturday"
	case Sunday:
		return "Sunday"
	default:
		return "Weekday(" + strconv.Itoa(int(wd)) + ")"
	}
}

// MarshalText encodes the weekday as its number.
func (wd Weekday) MarshalText() ([]byte, error) { return []byte(strconv.Itoa(int(wd))), nil }

// UnmarshalText accepts anything ParseWeekday does.
func (wd *Weekday) UnmarshalText(b []byte) error {
	v, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*wd = v
	return nil
}
