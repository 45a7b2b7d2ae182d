package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/model"

	_ "modernc.org/sqlite"
)

// LocalStore keeps all state in a sqlite key-value table so practice
// works fully offline. Values are stored as JSON; a row that fails to
// decode is treated as absent.
type LocalStore struct {
	db      *sql.DB
	log     zerolog.Logger
	results chan WriteResult
}

func NewLocalStore(dbPath string, log zerolog.Logger) (*LocalStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &LocalStore{
		db:      db,
		log:     log.With().Str("component", "store").Logger(),
		results: make(chan WriteResult),
	}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

// DB exposes the underlying handle so the local item store can share
// the same file.
func (s *LocalStore) DB() *sql.DB {
	return s.db
}

// get decodes the JSON value at key into out. Missing keys and
// unreadable values leave out untouched and return false.
func (s *LocalStore) get(ctx context.Context, key string, out any) bool {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Local read failed")
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Corrupted local value, ignoring")
		return false
	}
	return true
}

func (s *LocalStore) put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(raw))
	return err
}

func (s *LocalStore) delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (s *LocalStore) LastSession(ctx context.Context) (*model.SessionSnapshot, error) {
	var snap model.SessionSnapshot
	if !s.get(ctx, KeyLastSession, &snap) {
		return nil, nil
	}
	return &snap, nil
}

func (s *LocalStore) SaveLastSession(ctx context.Context, snap model.SessionSnapshot) error {
	return s.put(ctx, KeyLastSession, snap)
}

func (s *LocalStore) ClearLastSession(ctx context.Context) error {
	return s.delete(ctx, KeyLastSession)
}

func (s *LocalStore) History(ctx context.Context) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	s.get(ctx, KeySessionHistory, &entries)
	return entries, nil
}

func (s *LocalStore) SaveHistory(ctx context.Context, entries []model.HistoryEntry) error {
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return s.put(ctx, KeySessionHistory, entries)
}

func (s *LocalStore) WeakAreas(ctx context.Context) ([]model.WeakArea, error) {
	var areas []model.WeakArea
	s.get(ctx, KeyWeakAreas, &areas)
	return areas, nil
}

func (s *LocalStore) SaveWeakAreas(ctx context.Context, areas []model.WeakArea) error {
	if areas == nil {
		areas = []model.WeakArea{}
	}
	return s.put(ctx, KeyWeakAreas, areas)
}

func (s *LocalStore) Settings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	var examDate string
	if s.get(ctx, KeyExamDate, &examDate) && examDate != "" {
		settings.ExamDate = &examDate
	}
	var focus model.FocusToday
	if s.get(ctx, KeyFocusToday, &focus) {
		settings.FocusToday = &focus
	}
	s.get(ctx, KeyCustomSubjects, &settings.CustomSubjects)
	s.get(ctx, KeySubjectRenames, &settings.SubjectRenames)
	var voice string
	if s.get(ctx, KeyVoice, &voice) && voice != "" {
		settings.Voice = &voice
	}
	return settings, nil
}

func (s *LocalStore) SaveSettings(ctx context.Context, settings model.Settings) error {
	if settings.ExamDate != nil && *settings.ExamDate != "" {
		if err := s.put(ctx, KeyExamDate, *settings.ExamDate); err != nil {
			return err
		}
	} else if err := s.delete(ctx, KeyExamDate); err != nil {
		return err
	}
	if settings.FocusToday != nil {
		if err := s.put(ctx, KeyFocusToday, settings.FocusToday); err != nil {
			return err
		}
	} else if err := s.delete(ctx, KeyFocusToday); err != nil {
		return err
	}
	if settings.CustomSubjects != nil {
		if err := s.put(ctx, KeyCustomSubjects, settings.CustomSubjects); err != nil {
			return err
		}
	}
	if settings.SubjectRenames != nil {
		if err := s.put(ctx, KeySubjectRenames, settings.SubjectRenames); err != nil {
			return err
		}
	}
	if settings.Voice != nil && *settings.Voice != "" {
		if err := s.put(ctx, KeyVoice, *settings.Voice); err != nil {
			return err
		}
	} else if err := s.delete(ctx, KeyVoice); err != nil {
		return err
	}
	return nil
}

// Results never delivers; local writes are synchronous.
func (s *LocalStore) Results() <-chan WriteResult {
	return s.results
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}
