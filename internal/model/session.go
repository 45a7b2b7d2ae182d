package model

// Bounded-list caps enforced on every write, FIFO eviction beyond the cap.
const (
	MaxHistoryEntries = 20
	MaxWeakAreas      = 30
)

// Question is a single practice prompt with the points a good answer
// should touch. Immutable once loaded from the bank or generated.
type Question struct {
	Question  string   `json:"question"`
	KeyPoints []string `json:"keyPoints"`
}

// SessionSnapshot is the minimal durable state needed to resume an
// interrupted practice session. Overwritten on every phase advance,
// deleted on completion or explicit end.
type SessionSnapshot struct {
	Topic         string `json:"topic"`
	CurrentIndex  int    `json:"currentIndex"`
	QuestionOrder []int  `json:"questionOrder"`
	Timestamp     int64  `json:"timestamp"`
}

// HistoryEntry records one finished or abandoned session, newest first.
type HistoryEntry struct {
	Topic     string `json:"topic"`
	Completed bool   `json:"completed"`
	Date      string `json:"date"`
}

// WeakArea is a question the user flagged for extra review,
// deduplicated by (topic, question).
type WeakArea struct {
	Topic    string `json:"topic"`
	Question string `json:"question"`
}
