package tui

import (
	"testing"
	"time"

	"github.com/voxscholar/voxscholar/internal/model"
)

func TestFormatTime(t *testing.T) {
	cases := []struct {
		secs int
		want string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{30, "0:30"},
		{60, "1:00"},
		{90, "1:30"},
		{120, "2:00"},
		{605, "10:05"},
		{-3, "0:00"},
	}
	for _, c := range cases {
		if got := FormatTime(c.secs); got != c.want {
			t.Errorf("FormatTime(%d) = %q, want %q", c.secs, got, c.want)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		examDate  string
		wantLabel string
		wantValue string
	}{
		{"2026-08-31", "Exam is today", "Good luck!"},
		{"2026-09-01", "Exam tomorrow", "1 day"},
		{"2026-09-10", "Days until exam", "10 days"},
		{"2026-08-28", "Exam date passed", "3 days ago"},
		// Full timestamps use only the date part.
		{"2026-09-01T08:00:00Z", "Exam tomorrow", "1 day"},
	}
	for _, c := range cases {
		got, ok := FormatCountdown(c.examDate, now)
		if !ok {
			t.Errorf("FormatCountdown(%q) not ok", c.examDate)
			continue
		}
		if got.Label != c.wantLabel || got.Value != c.wantValue {
			t.Errorf("FormatCountdown(%q) = %+v, want {%s %s}", c.examDate, got, c.wantLabel, c.wantValue)
		}
	}

	if _, ok := FormatCountdown("not-a-date", now); ok {
		t.Error("FormatCountdown should reject unparseable dates")
	}
}

func TestFormatCountdownAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	// Spring forward on 2026-03-08 makes the two-day interval 47 hours;
	// the count must still come out as two full days.
	now := time.Date(2026, 3, 7, 12, 0, 0, 0, loc)
	got, ok := FormatCountdown("2026-03-09", now)
	if !ok {
		t.Fatal("FormatCountdown not ok")
	}
	if got.Label != "Days until exam" || got.Value != "2 days" {
		t.Errorf("got %+v, want {Days until exam 2 days}", got)
	}
}

func TestComputeQuickStats(t *testing.T) {
	stats := ComputeQuickStats(nil)
	if stats.SessionsCompleted != 0 || stats.CurrentStreak != 0 || stats.MostPracticed != "" {
		t.Errorf("empty stats = %+v", stats)
	}

	history := []model.HistoryEntry{
		{Topic: "Clinical case", Completed: true, Date: "2026-08-31T10:00:00Z"},
		{Topic: "Clinical case", Completed: false, Date: "2026-08-30T19:00:00Z"},
		{Topic: "Clinical case", Completed: true, Date: "2026-08-30T12:00:00Z"},
		{Topic: "Thesis defense", Completed: true, Date: "2026-08-30T08:00:00Z"},
		{Topic: "Thesis defense", Completed: true, Date: "2026-08-27T08:00:00Z"},
	}
	stats = ComputeQuickStats(history)
	if stats.SessionsCompleted != 5 {
		t.Errorf("sessions = %d, want 5", stats.SessionsCompleted)
	}
	// 31st and 30th are consecutive; the gap at the 29th ends the streak.
	if stats.CurrentStreak != 2 {
		t.Errorf("streak = %d, want 2", stats.CurrentStreak)
	}
	if stats.MostPracticed != "Clinical case" {
		t.Errorf("most practiced = %q", stats.MostPracticed)
	}
}
