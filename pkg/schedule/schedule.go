package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule returns the next activation time after a given time.
type Schedule = cron.Schedule

type every struct {
	interval time.Duration
}

// Every fires at a fixed interval.
func Every(d time.Duration) Schedule {
	return every{interval: d}
}

func (s every) Next(from time.Time) time.Time {
	return from.Add(s.interval)
}

type daily struct {
	hour, minute int
	loc          *time.Location
}

// Daily fires once a day at hour:minute UTC.
func Daily(hour, minute int) Schedule {
	return daily{hour: hour, minute: minute, loc: time.UTC}
}

func (s daily) Next(from time.Time) time.Time {
	from = from.In(s.loc)
	next := time.Date(from.Year(), from.Month(), from.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

type weekly struct {
	day          time.Weekday
	hour, minute int
	loc          *time.Location
}

// Weekly fires once a week on day at hour:minute UTC.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return weekly{day: day, hour: hour, minute: minute, loc: time.UTC}
}

func (s weekly) Next(from time.Time) time.Time {
	from = from.In(s.loc)
	ahead := (int(s.day) - int(from.Weekday()) + 7) % 7
	next := time.Date(from.Year(), from.Month(), from.Day()+ahead, s.hour, s.minute, 0, 0, s.loc)
	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// Cron parses a five-field cron expression or a descriptor such as "@hourly".
func Cron(expr string) (Schedule, error) {
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("jobs: invalid cron expression %q: %w", expr, err)
	}
	return s, nil
}
