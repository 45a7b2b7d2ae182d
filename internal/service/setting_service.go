package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/model"
	"github.com/voxscholar/voxscholar/internal/repository"
)

// Fixed key names in the app_settings table. The client's local store
// mirrors them under the oralExam_ prefix.
const (
	KeyLastSession    = "lastSession"
	KeySessionHistory = "sessionHistory"
	KeyWeakAreas      = "weakAreas"
	KeyExamDate       = "examDate"
	KeyFocusToday     = "focusToday"
	KeyCustomSubjects = "customSubjects"
	KeySubjectRenames = "subjectRenames"
	KeyVoice          = "voice"
)

// SettingService exposes typed operations over the key-value settings
// store: session snapshot, bounded history and weak-area lists, and the
// settings record.
type SettingService struct {
	settingRepo *repository.SettingRepository
	log         zerolog.Logger
}

func NewSettingService(settingRepo *repository.SettingRepository, log zerolog.Logger) *SettingService {
	return &SettingService{
		settingRepo: settingRepo,
		log:         log.With().Str("component", "setting_service").Logger(),
	}
}

// LastSession returns the stored snapshot, or nil when none exists.
func (s *SettingService) LastSession(ctx context.Context, userID int) (*model.SessionSnapshot, error) {
	raw, err := s.settingRepo.Get(ctx, userID, KeyLastSession)
	if err != nil || raw == nil {
		return nil, err
	}
	var snap model.SessionSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable last-session value")
		return nil, nil
	}
	return &snap, nil
}

func (s *SettingService) SaveLastSession(ctx context.Context, userID int, snap model.SessionSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.settingRepo.Upsert(ctx, userID, KeyLastSession, raw)
}

func (s *SettingService) ClearLastSession(ctx context.Context, userID int) error {
	return s.settingRepo.Delete(ctx, userID, KeyLastSession)
}

// History returns the session history, newest first.
func (s *SettingService) History(ctx context.Context, userID int) ([]model.HistoryEntry, error) {
	var history []model.HistoryEntry
	if err := s.getList(ctx, userID, KeySessionHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// ReplaceHistory stores the full history list, keeping only the newest
// MaxHistoryEntries entries.
func (s *SettingService) ReplaceHistory(ctx context.Context, userID int, history []model.HistoryEntry) error {
	history = CapHistory(history)
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return s.settingRepo.Upsert(ctx, userID, KeySessionHistory, raw)
}

// WeakAreas returns the flagged questions, most recent first.
func (s *SettingService) WeakAreas(ctx context.Context, userID int) ([]model.WeakArea, error) {
	var areas []model.WeakArea
	if err := s.getList(ctx, userID, KeyWeakAreas, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// ReplaceWeakAreas stores the full weak-area list after dedup and capping.
func (s *SettingService) ReplaceWeakAreas(ctx context.Context, userID int, areas []model.WeakArea) error {
	areas = DedupWeakAreas(areas)
	raw, err := json.Marshal(areas)
	if err != nil {
		return fmt.Errorf("encode weak areas: %w", err)
	}
	return s.settingRepo.Upsert(ctx, userID, KeyWeakAreas, raw)
}

// Settings assembles the settings record from its individual keys.
func (s *SettingService) Settings(ctx context.Context, userID int) (*model.Settings, error) {
	out := &model.Settings{
		CustomSubjects: []string{},
		SubjectRenames: map[string]string{},
	}
	if err := s.getKey(ctx, userID, KeyExamDate, &out.ExamDate); err != nil {
		return nil, err
	}
	if err := s.getKey(ctx, userID, KeyFocusToday, &out.FocusToday); err != nil {
		return nil, err
	}
	if err := s.getKey(ctx, userID, KeyCustomSubjects, &out.CustomSubjects); err != nil {
		return nil, err
	}
	if err := s.getKey(ctx, userID, KeySubjectRenames, &out.SubjectRenames); err != nil {
		return nil, err
	}
	if err := s.getKey(ctx, userID, KeyVoice, &out.Voice); err != nil {
		return nil, err
	}
	if out.CustomSubjects == nil {
		out.CustomSubjects = []string{}
	}
	if out.SubjectRenames == nil {
		out.SubjectRenames = map[string]string{}
	}
	return out, nil
}

// UpdateSettings merges the supplied fields over the stored record.
// Nil request fields keep their stored value.
func (s *SettingService) UpdateSettings(ctx context.Context, userID int, req model.UpdateSettingsRequest) error {
	if req.ExamDate != nil {
		if err := s.putKey(ctx, userID, KeyExamDate, *req.ExamDate); err != nil {
			return err
		}
	}
	if req.FocusToday != nil {
		if err := s.putKey(ctx, userID, KeyFocusToday, *req.FocusToday); err != nil {
			return err
		}
	}
	if req.CustomSubjects != nil {
		if err := s.putKey(ctx, userID, KeyCustomSubjects, req.CustomSubjects); err != nil {
			return err
		}
	}
	if req.SubjectRenames != nil {
		if err := s.putKey(ctx, userID, KeySubjectRenames, req.SubjectRenames); err != nil {
			return err
		}
	}
	if req.Voice != nil {
		if err := s.putKey(ctx, userID, KeyVoice, *req.Voice); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingService) getList(ctx context.Context, userID int, key string, dst interface{}) error {
	raw, err := s.settingRepo.Get(ctx, userID, key)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("discarding unreadable list value")
	}
	return nil
}

func (s *SettingService) getKey(ctx context.Context, userID int, key string, dst interface{}) error {
	raw, err := s.settingRepo.Get(ctx, userID, key)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("discarding unreadable setting value")
	}
	return nil
}

func (s *SettingService) putKey(ctx context.Context, userID int, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.settingRepo.Upsert(ctx, userID, key, raw)
}

// CapHistory keeps the newest MaxHistoryEntries entries (input is
// newest-first).
func CapHistory(history []model.HistoryEntry) []model.HistoryEntry {
	if history == nil {
		return []model.HistoryEntry{}
	}
	if len(history) > model.MaxHistoryEntries {
		history = history[:model.MaxHistoryEntries]
	}
	return history
}

// DedupWeakAreas removes duplicate (topic, question) pairs keeping the
// first (most recent) occurrence, then caps at MaxWeakAreas.
func DedupWeakAreas(areas []model.WeakArea) []model.WeakArea {
	seen := make(map[model.WeakArea]bool, len(areas))
	out := make([]model.WeakArea, 0, len(areas))
	for _, a := range areas {
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
		if len(out) == model.MaxWeakAreas {
			break
		}
	}
	return out
}
