package domain

import (
	"fmt"
	"time"
)

// Period keys bucket author counters. Counters roll over at period
// boundaries (UTC calendar day, ISO calendar week) by virtue of the key
// changing, not by decaying counts.

// DayKey returns the UTC calendar-day bucket for t, e.g. "d:2026-08-29".
func DayKey(t time.Time) string {
	return "d:" + t.UTC().Format("2006-01-02")
}

// WeekKey returns the ISO calendar-week bucket for t, e.g. "w:2026-W35".
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("w:%04d-W%02d", year, week)
}

// DayEnd returns the instant the day bucket of t rolls over.
func DayEnd(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}

// WeekEnd returns the instant the ISO week bucket of t rolls over.
func WeekEnd(t time.Time) time.Time {
	u := t.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	// ISO weeks start on Monday.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, 7-offset)
}

// Counter is one author's post count inside one period bucket of one group.
type Counter struct {
	ChatID    int64     `json:"chat_id"`
	AuthorID  int64     `json:"author_id"`
	PeriodKey string    `json:"period_key"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expires_at"`
}
