package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/model"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "vox.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLocalStoreLastSessionRoundTrip(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	snap, err := s.LastSession(ctx)
	if err != nil {
		t.Fatalf("LastSession: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil snapshot on empty store, got %+v", snap)
	}

	want := model.SessionSnapshot{
		Topic:         "Thesis defense",
		CurrentIndex:  2,
		QuestionOrder: []int{2, 0, 1},
		Timestamp:     1724900000000,
	}
	if err := s.SaveLastSession(ctx, want); err != nil {
		t.Fatalf("SaveLastSession: %v", err)
	}

	got, err := s.LastSession(ctx)
	if err != nil {
		t.Fatalf("LastSession: %v", err)
	}
	if got == nil || got.Topic != want.Topic || got.CurrentIndex != want.CurrentIndex {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if len(got.QuestionOrder) != 3 || got.QuestionOrder[0] != 2 {
		t.Errorf("question order not preserved: %v", got.QuestionOrder)
	}

	if err := s.ClearLastSession(ctx); err != nil {
		t.Fatalf("ClearLastSession: %v", err)
	}
	if snap, _ := s.LastSession(ctx); snap != nil {
		t.Errorf("snapshot not cleared: %+v", snap)
	}
}

func TestLocalStoreCorruptedValueIgnored(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)`, KeyLastSession, "{not json")
	if err != nil {
		t.Fatalf("insert corrupted row: %v", err)
	}

	snap, err := s.LastSession(ctx)
	if err != nil {
		t.Fatalf("LastSession should not fail on corrupted value: %v", err)
	}
	if snap != nil {
		t.Errorf("corrupted value should read as absent, got %+v", snap)
	}
}

func TestLocalStoreHistoryAndWeakAreas(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	history := []model.HistoryEntry{
		{Topic: "Clinical case", Completed: true, Date: "2026-08-30"},
		{Topic: "Interview prep", Completed: false, Date: "2026-08-29"},
	}
	if err := s.SaveHistory(ctx, history); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	got, err := s.History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 2 || got[0].Topic != "Clinical case" || !got[0].Completed {
		t.Errorf("unexpected history: %+v", got)
	}

	areas := []model.WeakArea{{Topic: "Clinical case", Question: "A child presents with fever and rash. How do you approach the diagnosis?"}}
	if err := s.SaveWeakAreas(ctx, areas); err != nil {
		t.Fatalf("SaveWeakAreas: %v", err)
	}
	gotAreas, err := s.WeakAreas(ctx)
	if err != nil {
		t.Fatalf("WeakAreas: %v", err)
	}
	if len(gotAreas) != 1 || gotAreas[0].Topic != "Clinical case" {
		t.Errorf("unexpected weak areas: %+v", gotAreas)
	}
}

func TestLocalStoreSettings(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	settings, err := s.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if settings.ExamDate != nil || settings.FocusToday != nil {
		t.Fatalf("expected empty settings, got %+v", settings)
	}

	examDate := "2026-09-15"
	voice := "nova"
	if err := s.SaveSettings(ctx, model.Settings{
		ExamDate:       &examDate,
		FocusToday:     &model.FocusToday{Date: "2026-08-31", Text: "Review differentials"},
		CustomSubjects: []string{"Pharmacology"},
		SubjectRenames: map[string]string{"Clinical case": "Cases"},
		Voice:          &voice,
	}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	settings, err = s.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if settings.ExamDate == nil || *settings.ExamDate != examDate {
		t.Errorf("exam date = %v", settings.ExamDate)
	}
	if settings.FocusToday == nil || settings.FocusToday.Text != "Review differentials" {
		t.Errorf("focus today = %+v", settings.FocusToday)
	}
	if len(settings.CustomSubjects) != 1 || settings.CustomSubjects[0] != "Pharmacology" {
		t.Errorf("custom subjects = %v", settings.CustomSubjects)
	}
	if settings.SubjectRenames["Clinical case"] != "Cases" {
		t.Errorf("subject renames = %v", settings.SubjectRenames)
	}
	if settings.Voice == nil || *settings.Voice != "nova" {
		t.Errorf("voice = %v", settings.Voice)
	}

	// Clearing the exam date removes the stored key.
	if err := s.SaveSettings(ctx, model.Settings{CustomSubjects: []string{"Pharmacology"}}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	settings, _ = s.Settings(ctx)
	if settings.ExamDate != nil {
		t.Errorf("exam date should be cleared, got %v", *settings.ExamDate)
	}
	if settings.Voice != nil {
		t.Errorf("voice should be cleared, got %v", *settings.Voice)
	}
}
