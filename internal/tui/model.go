// Package tui is the terminal practice client: subject selection,
// the think/answer/feedback session loop with countdowns and voice,
// and the performance, weak-area and settings screens.
package tui

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/library"
	"github.com/voxscholar/voxscholar/internal/model"
	"github.com/voxscholar/voxscholar/internal/questions"
	"github.com/voxscholar/voxscholar/internal/session"
	"github.com/voxscholar/voxscholar/internal/store"
	"github.com/voxscholar/voxscholar/internal/voice"
)

type screen int

const (
	screenHome screen = iota
	screenSubjects
	screenLibrary
	screenLibraryItems
	screenSession
	screenPerformance
	screenWeakAreas
	screenSettings
)

type settingsField int

const (
	editNone settingsField = iota
	editExamDate
	editFocusToday
)

// Deps are the wired client services the model drives.
type Deps struct {
	Store      store.Store
	Items      library.ItemStore
	Bank       *questions.StaticBank
	Generated  questions.Source
	Speaker    *voice.Speaker
	Recognizer voice.Recognizer
	Timers     session.Config
	Log        zerolog.Logger

	// StartSubject skips the menu and begins practicing the named
	// subject immediately.
	StartSubject string
}

// Model is the bubbletea model for the practice client.
type Model struct {
	deps    Deps
	machine *session.Machine

	screen screen
	cursor int
	width  int
	height int

	subjects    []string
	lastSession *model.SessionSnapshot
	history     []model.HistoryEntry
	weakAreas   []model.WeakArea
	settings    model.Settings
	stats       QuickStats

	answerInput   textinput.Model
	settingsInput textinput.Model
	editing       settingsField

	libSubject string
	libItems   []model.Item
	libFolders []string
	libFilter  int // 0 is all folders
	libMode    libraryMode
	libEditID  string
	libDraft   string
	libInput   textinput.Model

	recogEvents chan recogEvent
	listening   bool

	loading bool
	status  string
	errText string
}

func NewModel(deps Deps) *Model {
	persist := newStorePersister(deps.Store, deps.Log)
	machine := session.NewMachine(deps.Timers, persist, rand.New(rand.NewSource(time.Now().UnixNano())))

	answerInput := textinput.New()
	answerInput.Placeholder = "Type your answer..."
	answerInput.CharLimit = 0

	settingsInput := textinput.New()
	settingsInput.CharLimit = 128

	libInput := textinput.New()
	libInput.CharLimit = 0

	m := &Model{
		deps:          deps,
		machine:       machine,
		screen:        screenHome,
		answerInput:   answerInput,
		settingsInput: settingsInput,
		libInput:      libInput,
		recogEvents:   make(chan recogEvent, 16),
	}
	m.refreshStoredState()
	return m
}

// refreshStoredState reloads everything the home and list screens show.
func (m *Model) refreshStoredState() {
	ctx := context.Background()
	if snap, err := m.deps.Store.LastSession(ctx); err == nil {
		m.lastSession = snap
	}
	if history, err := m.deps.Store.History(ctx); err == nil {
		m.history = history
	}
	if areas, err := m.deps.Store.WeakAreas(ctx); err == nil {
		m.weakAreas = areas
	}
	if settings, err := m.deps.Store.Settings(ctx); err == nil {
		m.settings = settings
	}
	m.stats = ComputeQuickStats(m.history)
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadSubjects(), listenWrites(m.deps.Store)}
	if m.deps.StartSubject != "" {
		if cmd := m.selectTopic(m.deps.StartSubject); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// loadSubjects merges built-in topics, custom subjects and library
// subjects into the practice list.
func (m *Model) loadSubjects() tea.Cmd {
	bank := m.deps.Bank
	items := m.deps.Items
	custom := append([]string(nil), m.settings.CustomSubjects...)
	return func() tea.Msg {
		subjects := bank.Topics()
		seen := map[string]bool{}
		for _, s := range subjects {
			seen[s] = true
		}
		add := func(list []string) {
			for _, s := range list {
				if s != "" && !seen[s] {
					seen[s] = true
					subjects = append(subjects, s)
				}
			}
		}
		add(custom)
		if items != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if fromLibrary, err := items.UniqueSubjects(ctx); err == nil {
				sort.Strings(fromLibrary)
				add(fromLibrary)
			}
		}
		return subjectsLoadedMsg{subjects: subjects}
	}
}

// selectTopic resolves the question source for a topic and starts the
// session when the questions are in hand.
func (m *Model) selectTopic(topic string) tea.Cmd {
	if m.deps.Bank.Has(topic) {
		qs, err := m.deps.Bank.Questions(context.Background(), topic)
		if err != nil {
			m.errText = err.Error()
			return nil
		}
		return m.startSession(topic, qs)
	}
	if m.deps.Generated == nil {
		m.errText = "Question generation needs the server; this subject has no built-in questions."
		return nil
	}
	m.loading = true
	m.errText = ""
	src := m.deps.Generated
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()
		qs, err := src.Questions(ctx, topic)
		if err != nil {
			return questionsFailedMsg{topic: topic, err: err}
		}
		return questionsLoadedMsg{topic: topic, questions: qs}
	}
}

func (m *Model) startSession(topic string, qs []model.Question) tea.Cmd {
	if err := m.machine.Start(topic, qs); err != nil {
		m.errText = err.Error()
		return nil
	}
	m.screen = screenSession
	m.errText = ""
	return tea.Batch(tick(), m.speakCurrentQuestion())
}

func (m *Model) resumeSession() tea.Cmd {
	snap := m.lastSession
	if snap == nil || !m.deps.Bank.Has(snap.Topic) {
		return nil
	}
	bank, err := m.deps.Bank.Questions(context.Background(), snap.Topic)
	if err != nil {
		m.errText = err.Error()
		return nil
	}
	if err := m.machine.Resume(*snap, bank); err != nil {
		m.errText = "Saved session no longer matches its question set."
		return nil
	}
	m.screen = screenSession
	m.errText = ""
	return tea.Batch(tick(), m.speakCurrentQuestion())
}

func (m *Model) speakCurrentQuestion() tea.Cmd {
	if m.deps.Speaker == nil {
		return nil
	}
	q := m.machine.Current()
	if q == nil {
		return nil
	}
	speaker := m.deps.Speaker
	text := q.Question
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		_ = speaker.Speak(ctx, text)
		return speechDoneMsg{}
	}
}

func (m *Model) startListening() tea.Cmd {
	rec := m.deps.Recognizer
	if rec == nil || !rec.Supported() {
		m.answerInput.SetValue("")
		m.answerInput.Focus()
		return nil
	}
	events := m.recogEvents
	err := rec.Start(context.Background(),
		func(chunk string) { events <- recogEvent{chunk: chunk} },
		func(err error) { events <- recogEvent{err: err} })
	if err != nil {
		m.answerInput.SetValue("")
		m.answerInput.Focus()
		return nil
	}
	m.listening = true
	return listenRecognizer(events)
}

func (m *Model) stopListening() {
	if m.listening && m.deps.Recognizer != nil {
		m.deps.Recognizer.Stop()
	}
	m.listening = false
}

// leaveAnswer captures a typed answer, stops capture and freezes the
// transcript via the machine.
func (m *Model) leaveAnswer() {
	if typed := m.answerInput.Value(); typed != "" {
		m.machine.AppendTranscript(typed)
		m.answerInput.SetValue("")
	}
	m.answerInput.Blur()
	m.stopListening()
}

func (m *Model) endSession() {
	if m.machine.Phase() == session.PhaseAnswer {
		m.leaveAnswer()
	}
	if err := m.machine.End(); err == nil {
		m.refreshStoredState()
		m.screen = screenHome
		m.cursor = 0
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		phase := m.machine.Phase()
		if m.screen == screenSession && (phase == session.PhaseThink || phase == session.PhaseAnswer) {
			m.machine.Tick()
			return m, tick()
		}
		return m, nil

	case subjectsLoadedMsg:
		m.subjects = msg.subjects
		return m, nil

	case libraryItemsMsg:
		m.loading = false
		m.libSubject = msg.subject
		m.libItems = msg.items
		m.libFolders = msg.folders
		if m.libFilter > len(m.libFolders) {
			m.libFilter = 0
		}
		if m.cursor >= len(m.visibleLibItems()) {
			m.cursor = 0
		}
		return m, nil

	case librarySavedMsg:
		m.status = msg.status
		return m, m.loadLibraryItems(msg.subject)

	case libraryErrMsg:
		m.loading = false
		m.errText = msg.err.Error()
		return m, nil

	case noteLoadedMsg:
		m.libMode = libEditNote
		m.libEditID = msg.id
		m.libInput.Placeholder = "Note content"
		m.libInput.SetValue(msg.content)
		m.libInput.Focus()
		return m, nil

	case questionsLoadedMsg:
		m.loading = false
		return m, m.startSession(msg.topic, msg.questions)

	case questionsFailedMsg:
		m.loading = false
		m.errText = generationErrorText(msg.err)
		return m, nil

	case transcriptMsg:
		m.machine.AppendTranscript(string(msg))
		return m, listenRecognizer(m.recogEvents)

	case recognizerErrMsg:
		m.listening = false
		m.status = "Voice capture stopped: " + msg.err.Error()
		m.answerInput.Focus()
		return m, listenRecognizer(m.recogEvents)

	case speechDoneMsg:
		return m, nil

	case writeResultMsg:
		if msg.Err != nil {
			m.status = "Sync failed for " + msg.Key + "; data kept locally for this session."
		}
		return m, listenWrites(m.deps.Store)

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.stopListening()
		return m, tea.Quit
	}

	switch m.screen {
	case screenHome:
		return m.updateHome(key)
	case screenSubjects:
		return m.updateSubjects(key)
	case screenLibrary:
		return m.updateLibrary(msg)
	case screenLibraryItems:
		return m.updateLibraryItems(msg)
	case screenSession:
		return m.updateSession(msg)
	case screenPerformance:
		if key == "esc" || key == "enter" || key == "q" {
			m.screen = screenHome
			m.cursor = 0
		}
		return m, nil
	case screenWeakAreas:
		return m.updateWeakAreas(key)
	case screenSettings:
		return m.updateSettings(msg)
	}
	return m, nil
}

func (m *Model) homeMenu() []string {
	menu := []string{"Practice a subject"}
	if m.lastSession != nil {
		menu = append(menu, "Continue last session")
	}
	menu = append(menu, "Library", "Performance", "Weak areas", "Settings", "Quit")
	return menu
}

func (m *Model) updateHome(key string) (tea.Model, tea.Cmd) {
	menu := m.homeMenu()
	switch key {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(menu)-1 {
			m.cursor++
		}
	case "enter":
		switch menu[m.cursor] {
		case "Practice a subject":
			m.screen = screenSubjects
			m.cursor = 0
			return m, m.loadSubjects()
		case "Continue last session":
			return m, m.resumeSession()
		case "Library":
			m.screen = screenLibrary
			m.cursor = 0
			m.libMode = libBrowse
			return m, m.loadSubjects()
		case "Performance":
			m.refreshStoredState()
			m.screen = screenPerformance
		case "Weak areas":
			m.refreshStoredState()
			m.screen = screenWeakAreas
			m.cursor = 0
		case "Settings":
			m.screen = screenSettings
			m.editing = editNone
		case "Quit":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) updateSubjects(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q":
		m.screen = screenHome
		m.cursor = 0
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.subjects)-1 {
			m.cursor++
		}
	case "enter":
		if m.loading || m.cursor >= len(m.subjects) {
			return m, nil
		}
		return m, m.selectTopic(m.subjects[m.cursor])
	}
	return m, nil
}

func (m *Model) updateSession(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	phase := m.machine.Phase()

	// Typed answers go to the input; only control keys fall through.
	if phase == session.PhaseAnswer && m.answerInput.Focused() && key != "enter" && key != "esc" {
		var cmd tea.Cmd
		m.answerInput, cmd = m.answerInput.Update(msg)
		return m, cmd
	}

	switch phase {
	case session.PhaseThink:
		switch key {
		case "enter":
			if err := m.machine.BeginAnswer(); err == nil {
				return m, tea.Batch(tick(), m.startListening())
			}
		case "e", "esc":
			m.endSession()
		}
	case session.PhaseAnswer:
		switch key {
		case "enter":
			m.leaveAnswer()
			if err := m.machine.ShowFeedback(); err == nil {
				m.status = ""
			}
		case "esc":
			m.endSession()
		}
	case session.PhaseFeedback:
		switch key {
		case "w":
			q := m.machine.Current()
			if q != nil {
				if err := addWeakArea(context.Background(), m.deps.Store, m.machine.Topic(), q.Question); err == nil {
					m.status = "Flagged for review."
				}
			}
		case "enter":
			if err := m.machine.Advance(); err == nil {
				m.status = ""
				if m.machine.Phase() == session.PhaseComplete {
					m.refreshStoredState()
					return m, nil
				}
				return m, tea.Batch(tick(), m.speakCurrentQuestion())
			}
		case "e", "esc":
			m.endSession()
		}
	case session.PhaseComplete:
		if key == "enter" || key == "esc" || key == "q" {
			m.screen = screenHome
			m.cursor = 0
		}
	}
	return m, nil
}

func (m *Model) updateWeakAreas(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q":
		m.screen = screenHome
		m.cursor = 0
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.weakAreas)-1 {
			m.cursor++
		}
	case "x", "d":
		if m.cursor < len(m.weakAreas) {
			if err := removeWeakArea(context.Background(), m.deps.Store, m.cursor); err == nil {
				m.refreshStoredState()
				if m.cursor >= len(m.weakAreas) && m.cursor > 0 {
					m.cursor--
				}
			}
		}
	}
	return m, nil
}

func (m *Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.editing != editNone {
		switch key {
		case "enter":
			m.commitSettingsEdit()
			return m, nil
		case "esc":
			m.editing = editNone
			m.settingsInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.settingsInput, cmd = m.settingsInput.Update(msg)
			return m, cmd
		}
	}

	switch key {
	case "esc", "q":
		m.screen = screenHome
		m.cursor = 0
	case "d":
		m.editing = editExamDate
		m.settingsInput.Placeholder = "YYYY-MM-DD (empty clears)"
		if m.settings.ExamDate != nil {
			m.settingsInput.SetValue(*m.settings.ExamDate)
		} else {
			m.settingsInput.SetValue("")
		}
		m.settingsInput.Focus()
	case "f":
		m.editing = editFocusToday
		m.settingsInput.Placeholder = "What will you focus on today?"
		if m.settings.FocusToday != nil {
			m.settingsInput.SetValue(m.settings.FocusToday.Text)
		} else {
			m.settingsInput.SetValue("")
		}
		m.settingsInput.Focus()
	}
	return m, nil
}

func (m *Model) commitSettingsEdit() {
	value := m.settingsInput.Value()
	switch m.editing {
	case editExamDate:
		if value == "" {
			m.settings.ExamDate = nil
		} else if _, ok := FormatCountdown(value, time.Now()); !ok {
			m.errText = "Exam date must look like 2026-09-15."
			return
		} else {
			m.settings.ExamDate = &value
		}
	case editFocusToday:
		m.settings.FocusToday = &model.FocusToday{
			Date: time.Now().Format("2006-01-02"),
			Text: value,
		}
	}
	m.errText = ""
	m.editing = editNone
	m.settingsInput.Blur()
	if err := m.deps.Store.SaveSettings(context.Background(), m.settings); err != nil {
		m.errText = "Could not save settings: " + err.Error()
	}
}

func generationErrorText(err error) string {
	if err == questions.ErrMaterialTooShort {
		return "Add notes or upload PDF readings to this folder so questions can be generated from your material. (Only text-based PDFs are read; scanned images are not supported.)"
	}
	return "Could not generate questions. Check that the server has a provider API key set."
}
