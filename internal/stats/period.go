package stats

import (
	"fmt"
	"time"
)

// Period vocabulary for stats queries.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodAll   = "all"
)

const weekDays = 7

// ValidPeriod reports whether p is one of the supported period tokens.
func ValidPeriod(p string) bool {
	switch p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodAll:
		return true
	default:
		return false
	}
}

// PeriodRange resolves a period token into a half-open [since, until)
// range relative to now. PeriodAll returns zero times: no constraint.
func PeriodRange(period string, now time.Time) (since, until time.Time, err error) {
	switch period {
	case PeriodToday:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return midnight, now, nil
	case PeriodWeek:
		return now.AddDate(0, 0, -weekDays), now, nil
	case PeriodMonth:
		return now.AddDate(0, -1, 0), now, nil
	case PeriodAll:
		return time.Time{}, time.Time{}, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown period %q", period)
	}
}
