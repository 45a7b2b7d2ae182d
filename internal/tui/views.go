package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/voxscholar/voxscholar/internal/model"
	"github.com/voxscholar/voxscholar/internal/session"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	questionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1).MarginBottom(1)
	timerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	warningStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	keyPointStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

func (m *Model) View() string {
	var b strings.Builder
	switch m.screen {
	case screenHome:
		b.WriteString(m.viewHome())
	case screenSubjects:
		b.WriteString(m.viewSubjects())
	case screenLibrary:
		b.WriteString(m.viewLibrary())
	case screenLibraryItems:
		b.WriteString(m.viewLibraryItems())
	case screenSession:
		b.WriteString(m.viewSession())
	case screenPerformance:
		b.WriteString(m.viewPerformance())
	case screenWeakAreas:
		b.WriteString(m.viewWeakAreas())
	case screenSettings:
		b.WriteString(m.viewSettings())
	}
	if m.errText != "" {
		b.WriteString("\n" + errorStyle.Render(m.errText))
	}
	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status))
	}
	return b.String() + "\n"
}

func (m *Model) viewHome() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Vox Scholar"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Oral exam practice"))
	b.WriteString("\n\n")

	if m.settings.ExamDate != nil {
		if cd, ok := FormatCountdown(*m.settings.ExamDate, timeNow()); ok {
			b.WriteString(fmt.Sprintf("%s: %s\n", cd.Label, cd.Value))
		}
	}
	if m.settings.FocusToday != nil && m.settings.FocusToday.Text != "" {
		b.WriteString("Focus today: " + m.settings.FocusToday.Text + "\n")
	}
	if m.stats.SessionsCompleted > 0 {
		b.WriteString(fmt.Sprintf("Sessions: %d   Streak: %d day(s)", m.stats.SessionsCompleted, m.stats.CurrentStreak))
		if m.stats.MostPracticed != "" {
			b.WriteString("   Most practiced: " + m.stats.MostPracticed)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, item := range m.homeMenu() {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "+item) + "\n")
		} else {
			b.WriteString("  " + item + "\n")
		}
	}
	b.WriteString(helpStyle.Render("up/down to move, enter to select, q to quit"))
	return b.String()
}

func (m *Model) viewSubjects() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Choose a subject"))
	b.WriteString("\n")
	if m.loading {
		b.WriteString("Reading your material and generating questions…\n")
		return b.String()
	}
	for i, subject := range m.subjects {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		line := subject
		if !m.deps.Bank.Has(subject) {
			line += subtitleStyle.Render("  (from your notes)")
		}
		b.WriteString(marker + line + "\n")
	}
	b.WriteString(helpStyle.Render("enter to start, esc to go back"))
	return b.String()
}

func (m *Model) viewLibrary() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Library"))
	b.WriteString("\n")

	subjects := m.librarySubjects()
	if len(subjects) == 0 {
		b.WriteString(subtitleStyle.Render("No subjects yet. Press a to add one."))
		b.WriteString("\n")
	}
	for i, subject := range subjects {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		b.WriteString(marker + subject + "\n")
	}

	if m.libMode == libNewSubject {
		b.WriteString("\nNew subject: " + m.libInput.View() + "\n")
	}
	b.WriteString(helpStyle.Render("enter to open, a to add a subject, esc to go back"))
	return b.String()
}

func (m *Model) viewLibraryItems() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.libSubject))
	b.WriteString("\n")

	if m.loading {
		b.WriteString("Loading items…\n")
		return b.String()
	}

	folder := "All items"
	if f := m.currentFolder(); f != "" {
		folder = "Folder: " + f
	}
	b.WriteString(subtitleStyle.Render(folder))
	b.WriteString("\n\n")

	visible := m.visibleLibItems()
	if len(visible) == 0 {
		b.WriteString(subtitleStyle.Render("Nothing here yet."))
		b.WriteString("\n")
	}
	for i, it := range visible {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		icon := "📝"
		if it.Type == model.ItemTypeFile {
			icon = "📄"
		}
		line := icon + " " + it.Name
		if m.currentFolder() == "" && it.Subfolder != "" {
			line += subtitleStyle.Render("  [" + it.Subfolder + "]")
		}
		if it.Size != nil {
			line += subtitleStyle.Render(fmt.Sprintf("  %d KB", (*it.Size+1023)/1024))
		}
		b.WriteString(marker + line + "\n")
	}

	if m.libMode != libBrowse {
		label := map[libraryMode]string{
			libNoteName:    "Note title",
			libNoteContent: "Note content",
			libFilePath:    "File path",
			libEditNote:    "Edit note",
			libNewFolder:   "New folder",
		}[m.libMode]
		b.WriteString("\n" + label + ": " + m.libInput.View() + "\n")
	}
	b.WriteString(helpStyle.Render("n note  u import  e edit  x delete  f filter  c folder  esc back"))
	return b.String()
}

func (m *Model) viewSession() string {
	switch m.machine.Phase() {
	case session.PhaseThink:
		return m.viewThink()
	case session.PhaseAnswer:
		return m.viewAnswer()
	case session.PhaseFeedback:
		return m.viewFeedback()
	case session.PhaseComplete:
		return m.viewComplete()
	default:
		return ""
	}
}

func (m *Model) sessionHeader() string {
	return fmt.Sprintf("%s — question %d of %d\n%s\n",
		m.machine.Topic(), m.machine.Index()+1, m.machine.Total(),
		progressBar(m.machine.Index(), m.machine.Total(), 30))
}

func (m *Model) viewThink() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Think"))
	b.WriteString("\n" + m.sessionHeader())
	q := m.machine.Current()
	if q != nil {
		b.WriteString(questionStyle.Render(q.Question))
		b.WriteString("\n")
	}
	remaining := timerStyle.Render(FormatTime(m.machine.Remaining()))
	if m.machine.Expired() {
		remaining = warningStyle.Render("Time to answer!")
	}
	b.WriteString("\nThinking time: " + remaining + "\n")
	b.WriteString(helpStyle.Render("enter to start answering, e to end the session"))
	return b.String()
}

func (m *Model) viewAnswer() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Answer"))
	b.WriteString("\n" + m.sessionHeader())
	q := m.machine.Current()
	if q != nil {
		b.WriteString(questionStyle.Render(q.Question))
		b.WriteString("\n")
	}

	timer := timerStyle
	if m.machine.Warning() {
		timer = warningStyle
	}
	b.WriteString("\nTime left: " + timer.Render(FormatTime(m.machine.Remaining())) + "\n\n")

	if m.listening {
		b.WriteString("🎤 Listening… your answer will be shown after the session.\n")
	} else {
		b.WriteString("Speak recognition is off; type your answer:\n")
		b.WriteString(m.answerInput.View() + "\n")
	}
	b.WriteString(helpStyle.Render("enter for key points, esc to end the session"))
	return b.String()
}

func (m *Model) viewFeedback() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Key points to include"))
	b.WriteString("\n" + m.sessionHeader())
	q := m.machine.Current()
	if q != nil {
		b.WriteString(questionStyle.Render(q.Question))
		b.WriteString("\n")
		for _, kp := range q.KeyPoints {
			b.WriteString(keyPointStyle.Render("  • "+kp) + "\n")
		}
	}
	if transcripts := m.machine.Transcripts(); m.machine.Index() < len(transcripts) {
		if answer := transcripts[m.machine.Index()]; answer != "" {
			b.WriteString("\nYour answer: " + subtitleStyle.Render(answer) + "\n")
		}
	}
	b.WriteString(helpStyle.Render("enter to continue, w to flag as weak area, e to end"))
	return b.String()
}

func (m *Model) viewComplete() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Session complete"))
	b.WriteString("\n" + m.machine.Summary() + "\n")
	b.WriteString(helpStyle.Render("enter to go home"))
	return b.String()
}

func (m *Model) viewPerformance() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Performance"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Sessions: %d\nCurrent streak: %d day(s)\n", m.stats.SessionsCompleted, m.stats.CurrentStreak))
	if m.stats.MostPracticed != "" {
		b.WriteString("Most practiced: " + m.stats.MostPracticed + "\n")
	}
	b.WriteString("\nRecent sessions:\n")
	if len(m.history) == 0 {
		b.WriteString(subtitleStyle.Render("  No sessions yet.") + "\n")
	}
	for _, h := range m.history {
		mark := "✓"
		if !h.Completed {
			mark = "…"
		}
		date := h.Date
		if len(date) > 10 {
			date = date[:10]
		}
		b.WriteString(fmt.Sprintf("  %s %s  %s\n", mark, date, h.Topic))
	}
	b.WriteString(helpStyle.Render("esc to go back"))
	return b.String()
}

func (m *Model) viewWeakAreas() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Weak areas"))
	b.WriteString("\n")
	if len(m.weakAreas) == 0 {
		b.WriteString(subtitleStyle.Render("Nothing flagged yet. Use w on the feedback screen.") + "\n")
	}
	for i, area := range m.weakAreas {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		b.WriteString(marker + area.Question + "\n")
		b.WriteString("    " + subtitleStyle.Render(area.Topic) + "\n")
	}
	b.WriteString(helpStyle.Render("x to remove, esc to go back"))
	return b.String()
}

func (m *Model) viewSettings() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n")

	examDate := "not set"
	if m.settings.ExamDate != nil {
		examDate = *m.settings.ExamDate
		if cd, ok := FormatCountdown(examDate, timeNow()); ok {
			examDate += subtitleStyle.Render("  (" + cd.Label + ": " + cd.Value + ")")
		}
	}
	b.WriteString("Exam date: " + examDate + "\n")

	focus := "not set"
	if m.settings.FocusToday != nil && m.settings.FocusToday.Text != "" {
		focus = m.settings.FocusToday.Text
	}
	b.WriteString("Focus today: " + focus + "\n")
	b.WriteString(fmt.Sprintf("Think time: %ds   Answer time: %ds\n",
		m.deps.Timers.ThinkSeconds, m.deps.Timers.AnswerSeconds))

	if m.editing != editNone {
		b.WriteString("\n" + m.settingsInput.View() + "\n")
		b.WriteString(helpStyle.Render("enter to save, esc to cancel"))
	} else {
		b.WriteString(helpStyle.Render("d to set exam date, f to set focus, esc to go back"))
	}
	return b.String()
}
