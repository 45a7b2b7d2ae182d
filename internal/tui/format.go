package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/voxscholar/voxscholar/internal/model"
)

// timeNow is overridable in tests.
var timeNow = time.Now

// FormatTime renders seconds as m:ss for the countdown timers.
func FormatTime(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Countdown is the exam-date widget content.
type Countdown struct {
	Label string
	Value string
}

// FormatCountdown renders the days-until-exam widget. The date part of
// examDate is compared against now's date; time of day is ignored.
func FormatCountdown(examDate string, now time.Time) (Countdown, bool) {
	datePart := examDate
	if len(datePart) > 10 {
		datePart = datePart[:10]
	}
	exam, err := time.ParseInLocation("2006-01-02", datePart, now.Location())
	if err != nil {
		return Countdown{}, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	// Ceil, not truncate: a DST transition leaves the interval short of
	// a whole multiple of 24h.
	days := int(math.Ceil(exam.Sub(today).Hours() / 24))

	switch {
	case days < 0:
		return Countdown{Label: "Exam date passed", Value: fmt.Sprintf("%d days ago", -days)}, true
	case days == 0:
		return Countdown{Label: "Exam is today", Value: "Good luck!"}, true
	case days == 1:
		return Countdown{Label: "Exam tomorrow", Value: "1 day"}, true
	default:
		return Countdown{Label: "Days until exam", Value: fmt.Sprintf("%d days", days)}, true
	}
}

// QuickStats summarizes the session history for the home screen.
type QuickStats struct {
	SessionsCompleted int
	CurrentStreak     int
	MostPracticed     string
}

// ComputeQuickStats counts sessions, finds the most practiced topic and
// the streak of consecutive practice days ending at the most recent one.
func ComputeQuickStats(history []model.HistoryEntry) QuickStats {
	stats := QuickStats{SessionsCompleted: len(history)}
	if len(history) == 0 {
		return stats
	}

	byTopic := map[string]int{}
	days := map[string]bool{}
	for _, h := range history {
		byTopic[h.Topic]++
		if len(h.Date) >= 10 {
			days[h.Date[:10]] = true
		}
	}

	best, bestCount := "", 0
	topics := make([]string, 0, len(byTopic))
	for topic := range byTopic {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	for _, topic := range topics {
		if byTopic[topic] > bestCount {
			best, bestCount = topic, byTopic[topic]
		}
	}
	stats.MostPracticed = best

	var sortedDays []string
	for d := range days {
		sortedDays = append(sortedDays, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(sortedDays)))
	if len(sortedDays) > 0 {
		recent, err := time.Parse("2006-01-02", sortedDays[0])
		if err == nil {
			for i := 0; i < 365; i++ {
				day := recent.AddDate(0, 0, -i).Format("2006-01-02")
				if !days[day] {
					break
				}
				stats.CurrentStreak++
			}
		}
	}
	return stats
}

// progressBar renders session progress as a fixed-width bar.
func progressBar(done, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
