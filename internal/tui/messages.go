package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/voxscholar/voxscholar/internal/model"
	"github.com/voxscholar/voxscholar/internal/store"
)

// tickMsg drives the countdown timers at one-second resolution.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// questionsLoadedMsg carries a generated question set for a subject.
type questionsLoadedMsg struct {
	topic     string
	questions []model.Question
}

// questionsFailedMsg reports that question loading or generation failed.
type questionsFailedMsg struct {
	topic string
	err   error
}

// subjectsLoadedMsg refreshes the practice subject list.
type subjectsLoadedMsg struct {
	subjects []string
}

// libraryItemsMsg carries a subject's items and subfolder names.
type libraryItemsMsg struct {
	subject string
	items   []model.Item
	folders []string
}

// librarySavedMsg reports a completed library mutation; the item list
// is reloaded in response.
type librarySavedMsg struct {
	subject string
	status  string
}

// libraryErrMsg surfaces a failed library operation.
type libraryErrMsg struct{ err error }

// noteLoadedMsg delivers a note's full content for editing.
type noteLoadedMsg struct {
	id      string
	content string
}

// transcriptMsg is one final chunk from the recognizer.
type transcriptMsg string

// recognizerErrMsg surfaces a capture failure (not a deliberate stop).
type recognizerErrMsg struct{ err error }

// speechDoneMsg signals that a Speak call finished.
type speechDoneMsg struct{}

// writeResultMsg surfaces an asynchronous store flush outcome.
type writeResultMsg store.WriteResult

func listenWrites(st store.Store) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-st.Results()
		if !ok {
			return nil
		}
		return writeResultMsg(res)
	}
}

// recogEvent funnels recognizer callbacks into the update loop.
type recogEvent struct {
	chunk string
	err   error
}

func listenRecognizer(events chan recogEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		if ev.err != nil {
			return recognizerErrMsg{err: ev.err}
		}
		return transcriptMsg(ev.chunk)
	}
}
