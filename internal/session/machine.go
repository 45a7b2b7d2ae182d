// Package session implements the practice session state machine:
// think, answer, feedback for each question in turn, then complete.
// Phase changes go through a single transition check; anything else is
// an error rather than a silent no-op.
package session

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/voxscholar/voxscholar/internal/model"
)

// Phase is the session lifecycle position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseThink
	PhaseAnswer
	PhaseFeedback
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseThink:
		return "think"
	case PhaseAnswer:
		return "answer"
	case PhaseFeedback:
		return "feedback"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Timer defaults and floors, in seconds. Configured values below the
// floor are raised to it.
const (
	DefaultThinkSeconds  = 30
	DefaultAnswerSeconds = 120
	MinThinkSeconds      = 5
	MinAnswerSeconds     = 30

	// AnswerWarningSeconds is the threshold at which the answer timer
	// switches to its warning rendering.
	AnswerWarningSeconds = 30
)

var (
	ErrIllegalTransition = errors.New("illegal phase transition")
	ErrNoQuestions       = errors.New("no questions for session")
	ErrBadSnapshot       = errors.New("snapshot does not match question bank")
)

// Config carries the user's timer preferences.
type Config struct {
	ThinkSeconds  int
	AnswerSeconds int
}

func (c Config) thinkSeconds() int {
	secs := c.ThinkSeconds
	if secs == 0 {
		secs = DefaultThinkSeconds
	}
	if secs < MinThinkSeconds {
		secs = MinThinkSeconds
	}
	return secs
}

func (c Config) answerSeconds() int {
	secs := c.AnswerSeconds
	if secs == 0 {
		secs = DefaultAnswerSeconds
	}
	if secs < MinAnswerSeconds {
		secs = MinAnswerSeconds
	}
	return secs
}

// Persister receives the machine's durable side effects. A nil
// Persister turns them off.
type Persister interface {
	SaveSnapshot(snap model.SessionSnapshot)
	ClearSnapshot()
	AppendHistory(topic string, completed bool)
}

// Machine holds one session. Not safe for concurrent use; the TUI
// drives it from a single goroutine.
type Machine struct {
	cfg     Config
	persist Persister
	rng     *rand.Rand

	phase       Phase
	topic       string
	questions   []model.Question
	order       []int
	index       int
	transcripts []string
	current     strings.Builder
	remaining   int
	summary     string
}

func NewMachine(cfg Config, persist Persister, rng *rand.Rand) *Machine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Machine{cfg: cfg, persist: persist, rng: rng, phase: PhaseIdle}
}

func (m *Machine) Phase() Phase    { return m.phase }
func (m *Machine) Topic() string   { return m.topic }
func (m *Machine) Index() int      { return m.index }
func (m *Machine) Total() int      { return len(m.questions) }
func (m *Machine) Summary() string { return m.summary }

// Current returns the active question. Nil once the session is
// complete or before it starts.
func (m *Machine) Current() *model.Question {
	if m.index < 0 || m.index >= len(m.questions) {
		return nil
	}
	q := m.questions[m.index]
	return &q
}

// Order returns the shuffle applied to the source bank.
func (m *Machine) Order() []int {
	out := make([]int, len(m.order))
	copy(out, m.order)
	return out
}

// Transcripts returns the per-question answer transcripts captured so
// far. Index positions without an answer stay empty.
func (m *Machine) Transcripts() []string {
	out := make([]string, len(m.transcripts))
	copy(out, m.transcripts)
	return out
}

// transition is the only way the phase changes.
func (m *Machine) transition(to Phase) error {
	legal := false
	switch to {
	case PhaseThink:
		legal = m.phase == PhaseIdle || m.phase == PhaseComplete || m.phase == PhaseFeedback
	case PhaseAnswer:
		legal = m.phase == PhaseThink
	case PhaseFeedback:
		legal = m.phase == PhaseAnswer
	case PhaseComplete:
		legal = m.phase == PhaseFeedback
	case PhaseIdle:
		legal = m.phase == PhaseThink || m.phase == PhaseAnswer || m.phase == PhaseFeedback
	}
	if !legal {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.phase, to)
	}
	m.phase = to
	return nil
}

// Start shuffles the bank and opens the think phase on the first
// question. Legal from idle or complete.
func (m *Machine) Start(topic string, bank []model.Question) error {
	if len(bank) == 0 {
		return ErrNoQuestions
	}
	if m.phase != PhaseIdle && m.phase != PhaseComplete {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.phase, PhaseThink)
	}

	order := m.rng.Perm(len(bank))
	questions := make([]model.Question, len(bank))
	for pos, src := range order {
		questions[pos] = bank[src]
	}

	m.topic = topic
	m.questions = questions
	m.order = order
	m.index = 0
	m.transcripts = make([]string, len(questions))
	m.current.Reset()
	m.summary = ""
	m.phase = PhaseThink
	m.remaining = m.cfg.thinkSeconds()
	m.saveSnapshot()
	return nil
}

// Resume rebuilds an interrupted session from its snapshot and the
// topic's bank, positioned at the saved question in the think phase.
func (m *Machine) Resume(snap model.SessionSnapshot, bank []model.Question) error {
	if m.phase != PhaseIdle && m.phase != PhaseComplete {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.phase, PhaseThink)
	}
	if len(snap.QuestionOrder) == 0 {
		return ErrBadSnapshot
	}
	if snap.CurrentIndex < 0 || snap.CurrentIndex >= len(snap.QuestionOrder) {
		return ErrBadSnapshot
	}

	questions := make([]model.Question, len(snap.QuestionOrder))
	for pos, src := range snap.QuestionOrder {
		if src < 0 || src >= len(bank) {
			return ErrBadSnapshot
		}
		questions[pos] = bank[src]
	}

	m.topic = snap.Topic
	m.questions = questions
	m.order = append([]int(nil), snap.QuestionOrder...)
	m.index = snap.CurrentIndex
	m.transcripts = make([]string, len(questions))
	m.current.Reset()
	m.summary = ""
	m.phase = PhaseThink
	m.remaining = m.cfg.thinkSeconds()
	return nil
}

// BeginAnswer moves think -> answer and starts the answer countdown.
func (m *Machine) BeginAnswer() error {
	if err := m.transition(PhaseAnswer); err != nil {
		return err
	}
	m.current.Reset()
	m.remaining = m.cfg.answerSeconds()
	return nil
}

// AppendTranscript records a recognized speech chunk for the current
// answer. Ignored outside the answer phase.
func (m *Machine) AppendTranscript(chunk string) {
	if m.phase != PhaseAnswer {
		return
	}
	chunk = strings.TrimSpace(chunk)
	if chunk == "" {
		return
	}
	if m.current.Len() > 0 {
		m.current.WriteByte(' ')
	}
	m.current.WriteString(chunk)
}

// ShowFeedback moves answer -> feedback and freezes the transcript for
// the current question.
func (m *Machine) ShowFeedback() error {
	if err := m.transition(PhaseFeedback); err != nil {
		return err
	}
	m.freezeTranscript()
	m.remaining = 0
	return nil
}

// Advance moves to the next question's think phase, or to complete when
// the last question is done. Each advance persists the snapshot;
// completion clears it and records the session.
func (m *Machine) Advance() error {
	if m.phase != PhaseFeedback {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.phase, PhaseThink)
	}
	m.index++
	if m.index >= len(m.questions) {
		m.phase = PhaseComplete
		m.remaining = 0
		m.summary = completionSummary(len(m.questions), m.topic)
		if m.persist != nil {
			m.persist.ClearSnapshot()
			m.persist.AppendHistory(m.topic, true)
		}
		return nil
	}
	m.phase = PhaseThink
	m.remaining = m.cfg.thinkSeconds()
	m.saveSnapshot()
	return nil
}

// End abandons the session from any active phase. The snapshot is
// cleared and an incomplete history entry recorded.
func (m *Machine) End() error {
	if m.phase == PhaseAnswer {
		m.freezeTranscript()
	}
	if err := m.transition(PhaseIdle); err != nil {
		return err
	}
	if m.persist != nil {
		m.persist.ClearSnapshot()
		m.persist.AppendHistory(m.topic, false)
	}
	m.remaining = 0
	return nil
}

func (m *Machine) freezeTranscript() {
	if m.index >= 0 && m.index < len(m.transcripts) {
		m.transcripts[m.index] = m.current.String()
	}
	m.current.Reset()
}

func (m *Machine) saveSnapshot() {
	if m.persist == nil {
		return
	}
	m.persist.SaveSnapshot(model.SessionSnapshot{
		Topic:         m.topic,
		CurrentIndex:  m.index,
		QuestionOrder: m.Order(),
		Timestamp:     time.Now().UnixMilli(),
	})
}

// Tick counts the active timer down one second. Reaching zero is a cue
// for the UI only; the phase does not change.
func (m *Machine) Tick() {
	if m.phase != PhaseThink && m.phase != PhaseAnswer {
		return
	}
	if m.remaining > 0 {
		m.remaining--
	}
}

// Remaining is the seconds left on the active timer.
func (m *Machine) Remaining() int { return m.remaining }

// Expired reports whether the active timer has run out.
func (m *Machine) Expired() bool {
	return (m.phase == PhaseThink || m.phase == PhaseAnswer) && m.remaining == 0
}

// Warning reports whether the answer timer is in its final stretch.
func (m *Machine) Warning() bool {
	return m.phase == PhaseAnswer && m.remaining <= AnswerWarningSeconds
}

func completionSummary(n int, topic string) string {
	noun := "questions"
	if n == 1 {
		noun = "question"
	}
	return fmt.Sprintf("You completed %d %s on %q. Great work.", n, noun, topic)
}
