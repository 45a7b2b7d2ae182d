package tui

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/library"
	"github.com/voxscholar/voxscholar/internal/model"
	"github.com/voxscholar/voxscholar/internal/questions"
	"github.com/voxscholar/voxscholar/internal/store"
)

// fakeItems records library mutations and serves a fixed item list.
type fakeItems struct {
	items   []model.Item
	added   []model.Item
	updated map[string]model.UpdateItemRequest
	deleted []string
}

func (f *fakeItems) GetAllBySubject(_ context.Context, subject string) ([]model.Item, error) {
	out := []model.Item{}
	for _, it := range f.items {
		if it.Subject == subject {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeItems) UniqueSubjects(context.Context) ([]string, error) {
	seen := map[string]bool{}
	out := []string{}
	for _, it := range f.items {
		if !seen[it.Subject] {
			seen[it.Subject] = true
			out = append(out, it.Subject)
		}
	}
	return out, nil
}

func (f *fakeItems) Get(_ context.Context, id string) (*model.Item, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			it := f.items[i]
			return &it, nil
		}
	}
	return nil, library.ErrItemNotFound
}

func (f *fakeItems) Add(_ context.Context, item model.Item) (string, error) {
	item.ID = "item_1756000000000_added00" + string(rune('a'+len(f.added)))
	f.added = append(f.added, item)
	f.items = append(f.items, item)
	return item.ID, nil
}

func (f *fakeItems) Update(_ context.Context, id string, updates model.UpdateItemRequest) error {
	if f.updated == nil {
		f.updated = map[string]model.UpdateItemRequest{}
	}
	f.updated[id] = updates
	return nil
}

func (f *fakeItems) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeItems) Subfolders(ctx context.Context, subject string) ([]string, error) {
	seen := map[string]bool{}
	out := []string{}
	items, _ := f.GetAllBySubject(ctx, subject)
	for _, it := range items {
		if it.Subfolder != "" && !seen[it.Subfolder] {
			seen[it.Subfolder] = true
			out = append(out, it.Subfolder)
		}
	}
	return out, nil
}

func newLibraryTestModel(t *testing.T, items *fakeItems) *Model {
	t.Helper()
	st, err := store.NewLocalStore(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return NewModel(Deps{
		Store: st,
		Items: items,
		Bank:  questions.NewStaticBank(),
		Log:   zerolog.Nop(),
	})
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func pressEnter(m *Model) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func press(m *Model, key rune) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{key}})
	return cmd
}

func TestLibraryAddNote(t *testing.T) {
	items := &fakeItems{}
	m := newLibraryTestModel(t, items)
	m.screen = screenLibraryItems
	m.libSubject = "Pharmacology"

	press(m, 'n')
	typeText(m, "Dosage rules")
	pressEnter(m)
	if m.libMode != libNoteContent {
		t.Fatalf("mode after title = %v", m.libMode)
	}
	typeText(m, "Adjust for renal clearance.")
	cmd := pressEnter(m)
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	if _, ok := cmd().(librarySavedMsg); !ok {
		t.Fatal("save command did not report success")
	}

	if len(items.added) != 1 {
		t.Fatalf("added = %d items", len(items.added))
	}
	got := items.added[0]
	if got.Subject != "Pharmacology" || got.Name != "Dosage rules" || got.Type != model.ItemTypeNote {
		t.Errorf("added item = %+v", got)
	}
	if string(got.Content) != "Adjust for renal clearance." {
		t.Errorf("note content = %q", got.Content)
	}
}

func TestLibraryDeleteItem(t *testing.T) {
	items := &fakeItems{items: []model.Item{
		{ID: "item_1_a", Subject: "Pharmacology", Name: "Old outline", Type: model.ItemTypeNote},
	}}
	m := newLibraryTestModel(t, items)
	m.screen = screenLibraryItems
	m.libSubject = "Pharmacology"
	loaded, _ := items.GetAllBySubject(context.Background(), "Pharmacology")
	m.Update(libraryItemsMsg{subject: "Pharmacology", items: loaded})

	cmd := press(m, 'x')
	if cmd == nil {
		t.Fatal("expected a delete command")
	}
	cmd()
	if len(items.deleted) != 1 || items.deleted[0] != "item_1_a" {
		t.Errorf("deleted = %v", items.deleted)
	}
}

func TestLibraryEditNote(t *testing.T) {
	items := &fakeItems{items: []model.Item{
		{ID: "item_1_a", Subject: "Pharmacology", Name: "Outline", Type: model.ItemTypeNote, Content: []byte("v1")},
	}}
	m := newLibraryTestModel(t, items)
	m.screen = screenLibraryItems
	m.libSubject = "Pharmacology"
	loaded, _ := items.GetAllBySubject(context.Background(), "Pharmacology")
	m.Update(libraryItemsMsg{subject: "Pharmacology", items: loaded})

	cmd := press(m, 'e')
	if cmd == nil {
		t.Fatal("expected a load command")
	}
	m.Update(cmd())
	if m.libMode != libEditNote || m.libInput.Value() != "v1" {
		t.Fatalf("editor not primed: mode=%v value=%q", m.libMode, m.libInput.Value())
	}
	typeText(m, " updated")
	saveCmd := pressEnter(m)
	if saveCmd == nil {
		t.Fatal("expected a save command")
	}
	saveCmd()

	upd, ok := items.updated["item_1_a"]
	if !ok || upd.Content == nil || *upd.Content != "v1 updated" {
		t.Errorf("update = %+v", upd)
	}
}

func TestLibrarySubfolderFilter(t *testing.T) {
	items := &fakeItems{items: []model.Item{
		{ID: "a", Subject: "Pharmacology", Name: "General", Type: model.ItemTypeNote},
		{ID: "b", Subject: "Pharmacology", Subfolder: "Renal", Name: "Clearance", Type: model.ItemTypeNote},
	}}
	m := newLibraryTestModel(t, items)
	m.screen = screenLibraryItems
	m.libSubject = "Pharmacology"
	loaded, _ := items.GetAllBySubject(context.Background(), "Pharmacology")
	folders, _ := items.Subfolders(context.Background(), "Pharmacology")
	m.Update(libraryItemsMsg{subject: "Pharmacology", items: loaded, folders: folders})

	if got := len(m.visibleLibItems()); got != 2 {
		t.Fatalf("unfiltered items = %d", got)
	}
	press(m, 'f')
	visible := m.visibleLibItems()
	if len(visible) != 1 || visible[0].Name != "Clearance" {
		t.Errorf("filtered items = %+v", visible)
	}
	press(m, 'f')
	if got := len(m.visibleLibItems()); got != 2 {
		t.Errorf("filter did not cycle back to all: %d", got)
	}
}

func TestLibraryNewSubject(t *testing.T) {
	items := &fakeItems{}
	m := newLibraryTestModel(t, items)
	m.screen = screenLibrary

	press(m, 'a')
	if m.libMode != libNewSubject {
		t.Fatalf("mode = %v", m.libMode)
	}
	typeText(m, "Anatomy")
	pressEnter(m)

	settings, err := m.deps.Store.Settings(context.Background())
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if len(settings.CustomSubjects) != 1 || settings.CustomSubjects[0] != "Anatomy" {
		t.Errorf("custom subjects = %v", settings.CustomSubjects)
	}
}
