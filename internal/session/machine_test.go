package session

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/voxscholar/voxscholar/internal/model"
)

type recordedHistory struct {
	topic     string
	completed bool
}

type fakePersister struct {
	snapshots []model.SessionSnapshot
	cleared   int
	history   []recordedHistory
}

func (f *fakePersister) SaveSnapshot(snap model.SessionSnapshot) {
	f.snapshots = append(f.snapshots, snap)
}

func (f *fakePersister) ClearSnapshot() { f.cleared++ }

func (f *fakePersister) AppendHistory(topic string, completed bool) {
	f.history = append(f.history, recordedHistory{topic: topic, completed: completed})
}

func bank(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{Question: string(rune('A' + i))}
	}
	return qs
}

func newTestMachine(p Persister) *Machine {
	return NewMachine(Config{ThinkSeconds: 30, AnswerSeconds: 120}, p, rand.New(rand.NewSource(1)))
}

func TestStartShufflesWithOrderPreserved(t *testing.T) {
	src := bank(8)
	m := newTestMachine(nil)
	if err := m.Start("Thesis defense", src); err != nil {
		t.Fatalf("Start: %v", err)
	}

	order := m.Order()
	if len(order) != len(src) {
		t.Fatalf("order length = %d", len(order))
	}

	// The order must be a permutation of the bank indices.
	sorted := append([]int(nil), order...)
	sort.Ints(sorted)
	for i, v := range sorted {
		if v != i {
			t.Fatalf("order is not a permutation: %v", order)
		}
	}

	// Position p holds bank[order[p]].
	for p, src2 := range order {
		q := m.questions[p]
		if q.Question != src[src2].Question {
			t.Errorf("position %d = %q, want %q", p, q.Question, src[src2].Question)
		}
	}

	if m.Phase() != PhaseThink || m.Index() != 0 {
		t.Errorf("phase = %v index = %d after start", m.Phase(), m.Index())
	}
}

func TestStartRejectsEmptyBank(t *testing.T) {
	m := newTestMachine(nil)
	if err := m.Start("Empty", nil); err != ErrNoQuestions {
		t.Errorf("err = %v, want ErrNoQuestions", err)
	}
}

func TestFullSessionCompletes(t *testing.T) {
	p := &fakePersister{}
	m := newTestMachine(p)
	if err := m.Start("Interview prep", bank(2)); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := m.BeginAnswer(); err != nil {
			t.Fatalf("BeginAnswer q%d: %v", i, err)
		}
		m.AppendTranscript("first chunk")
		m.AppendTranscript("second chunk")
		if err := m.ShowFeedback(); err != nil {
			t.Fatalf("ShowFeedback q%d: %v", i, err)
		}
		if err := m.Advance(); err != nil {
			t.Fatalf("Advance q%d: %v", i, err)
		}
	}

	if m.Phase() != PhaseComplete {
		t.Fatalf("phase = %v, want complete", m.Phase())
	}
	if m.Index() != m.Total() {
		t.Errorf("index = %d, want %d", m.Index(), m.Total())
	}
	if m.Current() != nil {
		t.Error("Current should be nil once complete")
	}
	if m.Summary() != `You completed 2 questions on "Interview prep". Great work.` {
		t.Errorf("summary = %q", m.Summary())
	}

	transcripts := m.Transcripts()
	for i, tr := range transcripts {
		if tr != "first chunk second chunk" {
			t.Errorf("transcript %d = %q", i, tr)
		}
	}

	// Start + one mid-session advance persisted snapshots, completion
	// cleared and recorded a completed entry.
	if len(p.snapshots) != 2 {
		t.Errorf("snapshot saves = %d, want 2", len(p.snapshots))
	}
	if p.cleared != 1 {
		t.Errorf("snapshot clears = %d, want 1", p.cleared)
	}
	if len(p.history) != 1 || !p.history[0].completed || p.history[0].topic != "Interview prep" {
		t.Errorf("history = %+v", p.history)
	}
}

func TestIllegalTransitions(t *testing.T) {
	m := newTestMachine(nil)

	if err := m.BeginAnswer(); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("BeginAnswer from idle: %v", err)
	}
	if err := m.ShowFeedback(); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("ShowFeedback from idle: %v", err)
	}
	if err := m.Advance(); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("Advance from idle: %v", err)
	}
	if err := m.End(); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("End from idle: %v", err)
	}

	if err := m.Start("Teaching demo", bank(2)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.ShowFeedback(); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("ShowFeedback from think: %v", err)
	}
	if err := m.Advance(); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("Advance from think: %v", err)
	}
	if err := m.Start("Teaching demo", bank(2)); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("Start mid-session: %v", err)
	}
}

func TestEndMidAnswerRecordsIncomplete(t *testing.T) {
	p := &fakePersister{}
	m := newTestMachine(p)
	m.Start("Clinical case", bank(3))
	m.BeginAnswer()
	m.AppendTranscript("partial answer")

	if err := m.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if m.Phase() != PhaseIdle {
		t.Errorf("phase = %v", m.Phase())
	}
	if len(p.history) != 1 || p.history[0].completed {
		t.Errorf("history = %+v, want one incomplete entry", p.history)
	}
	if p.cleared != 1 {
		t.Errorf("snapshot clears = %d", p.cleared)
	}
	if m.Transcripts()[0] != "partial answer" {
		t.Errorf("transcript not frozen on end: %q", m.Transcripts()[0])
	}
}

func TestResumeReconstruction(t *testing.T) {
	src := bank(4)
	m := newTestMachine(nil)
	snap := model.SessionSnapshot{
		Topic:         "Policy & ethics",
		CurrentIndex:  2,
		QuestionOrder: []int{3, 1, 0, 2},
	}
	if err := m.Resume(snap, src); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if m.Phase() != PhaseThink || m.Index() != 2 {
		t.Fatalf("phase = %v index = %d", m.Phase(), m.Index())
	}
	if q := m.Current(); q == nil || q.Question != src[0].Question {
		t.Errorf("current = %+v, want bank[0]", m.Current())
	}
}

func TestResumeRejectsBadSnapshots(t *testing.T) {
	src := bank(2)
	cases := []model.SessionSnapshot{
		{Topic: "x"},                                          // no order
		{Topic: "x", CurrentIndex: 2, QuestionOrder: []int{0, 1}}, // index == len
		{Topic: "x", CurrentIndex: -1, QuestionOrder: []int{0}},   // negative index
		{Topic: "x", CurrentIndex: 0, QuestionOrder: []int{0, 5}}, // order out of range
	}
	for i, snap := range cases {
		m := newTestMachine(nil)
		if err := m.Resume(snap, src); err != ErrBadSnapshot {
			t.Errorf("case %d: err = %v, want ErrBadSnapshot", i, err)
		}
	}
}

func TestTimersFloorsAndNoAutoAdvance(t *testing.T) {
	m := NewMachine(Config{ThinkSeconds: 1, AnswerSeconds: 10}, nil, rand.New(rand.NewSource(1)))
	m.Start("Thesis defense", bank(1))

	// Think floor is 5s even when configured lower.
	if m.Remaining() != MinThinkSeconds {
		t.Fatalf("think remaining = %d, want %d", m.Remaining(), MinThinkSeconds)
	}

	for i := 0; i < 10; i++ {
		m.Tick()
	}
	if !m.Expired() {
		t.Error("think timer should be expired")
	}
	if m.Phase() != PhaseThink {
		t.Fatalf("expiry must not advance the phase, got %v", m.Phase())
	}

	m.BeginAnswer()
	if m.Remaining() != MinAnswerSeconds {
		t.Fatalf("answer remaining = %d, want floor %d", m.Remaining(), MinAnswerSeconds)
	}
	if !m.Warning() {
		t.Error("answer timer at 30s should already be in warning")
	}
	for i := 0; i < 100; i++ {
		m.Tick()
	}
	if m.Phase() != PhaseAnswer {
		t.Errorf("answer expiry must not advance the phase, got %v", m.Phase())
	}
	if m.Remaining() != 0 {
		t.Errorf("remaining = %d", m.Remaining())
	}
}

func TestWarningThreshold(t *testing.T) {
	m := newTestMachine(nil)
	m.Start("Thesis defense", bank(1))
	m.BeginAnswer()

	if m.Warning() {
		t.Error("warning at 120s remaining")
	}
	for m.Remaining() > AnswerWarningSeconds {
		m.Tick()
	}
	if !m.Warning() {
		t.Errorf("no warning at %ds remaining", m.Remaining())
	}
}

func TestTranscriptIgnoredOutsideAnswer(t *testing.T) {
	m := newTestMachine(nil)
	m.Start("Thesis defense", bank(1))
	m.AppendTranscript("spoken during think")
	m.BeginAnswer()
	m.AppendTranscript("the real answer")
	m.ShowFeedback()
	m.AppendTranscript("spoken during feedback")

	if got := m.Transcripts()[0]; got != "the real answer" {
		t.Errorf("transcript = %q", got)
	}
}

func TestRestartAfterComplete(t *testing.T) {
	m := newTestMachine(nil)
	m.Start("Thesis defense", bank(1))
	m.BeginAnswer()
	m.ShowFeedback()
	m.Advance()
	if m.Phase() != PhaseComplete {
		t.Fatalf("phase = %v", m.Phase())
	}

	if err := m.Start("Interview prep", bank(2)); err != nil {
		t.Fatalf("Start after complete: %v", err)
	}
	if m.Topic() != "Interview prep" || m.Index() != 0 || m.Phase() != PhaseThink {
		t.Errorf("machine not reset: topic=%q index=%d phase=%v", m.Topic(), m.Index(), m.Phase())
	}
}
