package tui

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/voxscholar/voxscholar/internal/model"
)

// libraryMode is the active input prompt on the library screens.
type libraryMode int

const (
	libBrowse libraryMode = iota
	libNewSubject
	libNoteName
	libNoteContent
	libFilePath
	libEditNote
	libNewFolder
)

// librarySubjects is the folder list: user subjects only, never the
// built-in topics.
func (m *Model) librarySubjects() []string {
	out := make([]string, 0, len(m.subjects))
	for _, s := range m.subjects {
		if !m.deps.Bank.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// currentFolder is the active subfolder filter, empty for all.
func (m *Model) currentFolder() string {
	if m.libFilter == 0 || m.libFilter > len(m.libFolders) {
		return ""
	}
	return m.libFolders[m.libFilter-1]
}

// visibleLibItems applies the subfolder filter to the loaded items.
func (m *Model) visibleLibItems() []model.Item {
	folder := m.currentFolder()
	if folder == "" {
		return m.libItems
	}
	out := make([]model.Item, 0, len(m.libItems))
	for _, it := range m.libItems {
		if it.Subfolder == folder {
			out = append(out, it)
		}
	}
	return out
}

func (m *Model) selectedLibItem() *model.Item {
	visible := m.visibleLibItems()
	if m.cursor >= len(visible) {
		return nil
	}
	return &visible[m.cursor]
}

func (m *Model) loadLibraryItems(subject string) tea.Cmd {
	items := m.deps.Items
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		list, err := items.GetAllBySubject(ctx, subject)
		if err != nil {
			return libraryErrMsg{err: err}
		}
		folders, err := items.Subfolders(ctx, subject)
		if err != nil {
			return libraryErrMsg{err: err}
		}
		return libraryItemsMsg{subject: subject, items: list, folders: folders}
	}
}

func (m *Model) addNote(subject, subfolder, name, content string) tea.Cmd {
	items := m.deps.Items
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := items.Add(ctx, model.Item{
			Subject:   subject,
			Subfolder: subfolder,
			Name:      name,
			Type:      model.ItemTypeNote,
			Content:   []byte(content),
		})
		if err != nil {
			return libraryErrMsg{err: err}
		}
		return librarySavedMsg{subject: subject, status: "Note saved."}
	}
}

func (m *Model) importFile(subject, subfolder, path string) tea.Cmd {
	items := m.deps.Items
	return func() tea.Msg {
		content, err := os.ReadFile(path)
		if err != nil {
			return libraryErrMsg{err: err}
		}
		it := model.Item{
			Subject:   subject,
			Subfolder: subfolder,
			Name:      filepath.Base(path),
			Type:      model.ItemTypeFile,
			Content:   content,
		}
		if mimeType := mime.TypeByExtension(filepath.Ext(path)); mimeType != "" {
			it.MimeType = &mimeType
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := items.Add(ctx, it); err != nil {
			return libraryErrMsg{err: err}
		}
		return librarySavedMsg{subject: subject, status: "Imported " + it.Name + "."}
	}
}

func (m *Model) saveNoteEdit(subject, id, content string) tea.Cmd {
	items := m.deps.Items
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := items.Update(ctx, id, model.UpdateItemRequest{Content: &content}); err != nil {
			return libraryErrMsg{err: err}
		}
		return librarySavedMsg{subject: subject, status: "Note updated."}
	}
}

func (m *Model) deleteLibItem(subject, id string) tea.Cmd {
	items := m.deps.Items
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := items.Delete(ctx, id); err != nil {
			return libraryErrMsg{err: err}
		}
		return librarySavedMsg{subject: subject, status: "Deleted."}
	}
}

// editSelectedNote fetches the full note before opening the editor;
// list responses carry no content.
func (m *Model) editSelectedNote() tea.Cmd {
	it := m.selectedLibItem()
	if it == nil || it.Type != model.ItemTypeNote {
		return nil
	}
	items := m.deps.Items
	id := it.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		full, err := items.Get(ctx, id)
		if err != nil {
			return libraryErrMsg{err: err}
		}
		return noteLoadedMsg{id: id, content: full.NoteContent()}
	}
}

func (m *Model) promptLibrary(mode libraryMode, placeholder string) {
	m.libMode = mode
	m.libInput.Placeholder = placeholder
	m.libInput.SetValue("")
	m.libInput.Focus()
	m.errText = ""
}

func (m *Model) closeLibraryPrompt() {
	m.libMode = libBrowse
	m.libDraft = ""
	m.libEditID = ""
	m.libInput.Blur()
}

func (m *Model) updateLibrary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.libMode == libNewSubject {
		switch key {
		case "enter":
			return m, m.commitNewSubject()
		case "esc":
			m.closeLibraryPrompt()
			return m, nil
		default:
			var cmd tea.Cmd
			m.libInput, cmd = m.libInput.Update(msg)
			return m, cmd
		}
	}

	subjects := m.librarySubjects()
	switch key {
	case "esc", "q":
		m.screen = screenHome
		m.cursor = 0
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(subjects)-1 {
			m.cursor++
		}
	case "a":
		m.promptLibrary(libNewSubject, "New subject name")
	case "enter":
		if m.cursor < len(subjects) {
			m.libSubject = subjects[m.cursor]
			m.libFilter = 0
			m.cursor = 0
			m.screen = screenLibraryItems
			m.loading = true
			return m, m.loadLibraryItems(m.libSubject)
		}
	}
	return m, nil
}

func (m *Model) commitNewSubject() tea.Cmd {
	name := strings.TrimSpace(m.libInput.Value())
	m.closeLibraryPrompt()
	if name == "" {
		return nil
	}
	for _, s := range m.subjects {
		if s == name {
			return nil
		}
	}
	m.settings.CustomSubjects = append(m.settings.CustomSubjects, name)
	if err := m.deps.Store.SaveSettings(context.Background(), m.settings); err != nil {
		m.errText = "Could not save settings: " + err.Error()
		return nil
	}
	return m.loadSubjects()
}

func (m *Model) updateLibraryItems(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.libMode != libBrowse {
		switch key {
		case "enter":
			return m, m.commitLibraryInput()
		case "esc":
			m.closeLibraryPrompt()
			return m, nil
		default:
			var cmd tea.Cmd
			m.libInput, cmd = m.libInput.Update(msg)
			return m, cmd
		}
	}

	visible := m.visibleLibItems()
	switch key {
	case "esc", "q":
		m.screen = screenLibrary
		m.cursor = 0
		m.status = ""
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case "n":
		m.promptLibrary(libNoteName, "Note title")
	case "u":
		m.promptLibrary(libFilePath, "Path to file (PDF or text)")
	case "e":
		return m, m.editSelectedNote()
	case "x", "d":
		if it := m.selectedLibItem(); it != nil {
			return m, m.deleteLibItem(m.libSubject, it.ID)
		}
	case "f":
		m.libFilter = (m.libFilter + 1) % (len(m.libFolders) + 1)
		m.cursor = 0
	case "c":
		m.promptLibrary(libNewFolder, "New folder name")
	}
	return m, nil
}

func (m *Model) commitLibraryInput() tea.Cmd {
	value := strings.TrimSpace(m.libInput.Value())
	switch m.libMode {
	case libNoteName:
		if value == "" {
			m.closeLibraryPrompt()
			return nil
		}
		m.libDraft = value
		m.promptLibrary(libNoteContent, "Note content")
		return nil
	case libNoteContent:
		name := m.libDraft
		m.closeLibraryPrompt()
		return m.addNote(m.libSubject, m.currentFolder(), name, value)
	case libFilePath:
		m.closeLibraryPrompt()
		if value == "" {
			return nil
		}
		return m.importFile(m.libSubject, m.currentFolder(), value)
	case libEditNote:
		id := m.libEditID
		m.closeLibraryPrompt()
		return m.saveNoteEdit(m.libSubject, id, value)
	case libNewFolder:
		m.closeLibraryPrompt()
		if value == "" {
			return nil
		}
		// The folder exists once something is placed in it; until then
		// it only acts as the active filter for new items.
		for _, f := range m.libFolders {
			if f == value {
				return nil
			}
		}
		m.libFolders = append(m.libFolders, value)
		m.libFilter = len(m.libFolders)
		m.cursor = 0
	}
	return nil
}
