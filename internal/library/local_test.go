package library

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/voxscholar/voxscholar/internal/model"
)

func newTestLocalItems(t *testing.T) *LocalItems {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "vox.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	l, err := NewLocalItems(db)
	if err != nil {
		t.Fatalf("NewLocalItems: %v", err)
	}
	return l
}

func TestNewItemIDFormat(t *testing.T) {
	re := regexp.MustCompile(`^item_\d+_[a-z0-9]{11}$`)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id := newItemID()
		if !re.MatchString(id) {
			t.Fatalf("id %q does not match expected format", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestLocalItemsNoteRoundTrip(t *testing.T) {
	l := newTestLocalItems(t)
	ctx := context.Background()

	id, err := l.Add(ctx, model.Item{
		Subject: "Anatomy",
		Name:    "Brachial plexus",
		Type:    model.ItemTypeNote,
		Content: []byte("Roots, trunks, divisions, cords, branches."),
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := l.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.NoteContent() != "Roots, trunks, divisions, cords, branches." {
		t.Errorf("content = %q", got.NoteContent())
	}
	if got.Subject != "Anatomy" || got.Type != model.ItemTypeNote {
		t.Errorf("unexpected item: %+v", got)
	}
}

func TestLocalItemsFileByteIdentity(t *testing.T) {
	l := newTestLocalItems(t)
	ctx := context.Background()

	blob := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff, 0x01, 0x80}
	mime := "application/pdf"
	size := int64(len(blob))
	id, err := l.Add(ctx, model.Item{
		Subject:  "Anatomy",
		Name:     "atlas.pdf",
		Type:     model.ItemTypeFile,
		Content:  blob,
		MimeType: &mime,
		Size:     &size,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := l.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got.Content, blob) {
		t.Errorf("file bytes changed: %v != %v", got.Content, blob)
	}
	if got.MimeType == nil || *got.MimeType != mime {
		t.Errorf("mime type = %v", got.MimeType)
	}
}

func TestLocalItemsUpdatePartialMerge(t *testing.T) {
	l := newTestLocalItems(t)
	ctx := context.Background()

	id, _ := l.Add(ctx, model.Item{
		Subject: "Law",
		Name:    "Torts outline",
		Type:    model.ItemTypeNote,
		Content: []byte("Duty, breach, causation, damages."),
	})

	newName := "Torts outline v2"
	if err := l.Update(ctx, id, model.UpdateItemRequest{Name: &newName}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := l.Get(ctx, id)
	if got.Name != newName {
		t.Errorf("name = %q", got.Name)
	}
	if got.NoteContent() != "Duty, breach, causation, damages." {
		t.Errorf("content lost on rename: %q", got.NoteContent())
	}

	if err := l.Update(ctx, "item_0_missing", model.UpdateItemRequest{Name: &newName}); err != ErrItemNotFound {
		t.Errorf("missing item err = %v, want ErrItemNotFound", err)
	}
}

func TestLocalItemsFileContentImmutable(t *testing.T) {
	l := newTestLocalItems(t)
	ctx := context.Background()

	blob := []byte{1, 2, 3}
	id, _ := l.Add(ctx, model.Item{Subject: "Law", Name: "doc.pdf", Type: model.ItemTypeFile, Content: blob})

	text := "overwritten"
	if err := l.Update(ctx, id, model.UpdateItemRequest{Content: &text}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := l.Get(ctx, id)
	if !bytes.Equal(got.Content, blob) {
		t.Errorf("file content must not change via update: %v", got.Content)
	}
}

func TestLocalItemsSubjectsAndSubfolders(t *testing.T) {
	l := newTestLocalItems(t)
	ctx := context.Background()

	add := func(subject, subfolder, name string) {
		t.Helper()
		_, err := l.Add(ctx, model.Item{Subject: subject, Subfolder: subfolder, Name: name, Type: model.ItemTypeNote})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	add("Anatomy", "Upper limb", "n1")
	add("Anatomy", "Thorax", "n2")
	add("Anatomy", "", "n3")
	add("Law", "", "n4")

	subjects, err := l.UniqueSubjects(ctx)
	if err != nil {
		t.Fatalf("UniqueSubjects: %v", err)
	}
	if len(subjects) != 2 || subjects[0] != "Anatomy" || subjects[1] != "Law" {
		t.Errorf("subjects = %v", subjects)
	}

	folders, err := l.Subfolders(ctx, "Anatomy")
	if err != nil {
		t.Fatalf("Subfolders: %v", err)
	}
	if len(folders) != 2 || folders[0] != "Thorax" || folders[1] != "Upper limb" {
		t.Errorf("subfolders = %v", folders)
	}

	items, _ := l.GetAllBySubject(ctx, "Law")
	if len(items) != 1 || items[0].Name != "n4" {
		t.Errorf("items = %+v", items)
	}

	if err := l.Delete(ctx, items[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	items, _ = l.GetAllBySubject(ctx, "Law")
	if len(items) != 0 {
		t.Errorf("items after delete = %+v", items)
	}
}
