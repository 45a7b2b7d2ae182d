package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/model"
)

// ErrWriteQueueFull reports a write dropped because the flush queue was
// at capacity.
var ErrWriteQueueFull = errors.New("write queue full")

// RemoteStore serves reads from a prefetched in-memory cache and flushes
// writes to the server from a single background goroutine. Flush
// outcomes are delivered on Results; a failed flush never blocks or
// interrupts the running session.
type RemoteStore struct {
	client *Client
	log    zerolog.Logger

	mu          sync.Mutex
	lastSession *model.SessionSnapshot
	history     []model.HistoryEntry
	weakAreas   []model.WeakArea
	settings    model.Settings

	jobs    chan flushJob
	results chan WriteResult
	done    chan struct{}
}

type flushJob struct {
	key string
	fn  func(ctx context.Context) error
}

// NewRemoteStore prefetches all storage keys so subsequent reads are
// memory-only.
func NewRemoteStore(ctx context.Context, client *Client, log zerolog.Logger) (*RemoteStore, error) {
	s := &RemoteStore{
		client:  client,
		log:     log.With().Str("component", "store").Logger(),
		jobs:    make(chan flushJob, 64),
		results: make(chan WriteResult, 64),
		done:    make(chan struct{}),
	}

	snap, err := client.LastSession(ctx)
	if err != nil {
		return nil, err
	}
	history, err := client.History(ctx)
	if err != nil {
		return nil, err
	}
	areas, err := client.WeakAreas(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := client.Settings(ctx)
	if err != nil {
		return nil, err
	}

	s.lastSession = snap
	s.history = history
	s.weakAreas = areas
	s.settings = normalizeSettings(settings)

	go s.flushLoop()
	return s, nil
}

func (s *RemoteStore) flushLoop() {
	defer close(s.done)
	for job := range s.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := job.fn(ctx)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("key", job.key).Msg("Remote write failed")
		}
		select {
		case s.results <- WriteResult{Key: job.key, Err: err}:
		default:
			// nobody draining results; don't stall the flush loop
		}
	}
}

func (s *RemoteStore) enqueue(key string, fn func(ctx context.Context) error) {
	select {
	case s.jobs <- flushJob{key: key, fn: fn}:
	default:
		s.log.Warn().Str("key", key).Msg("Write queue full, dropping flush")
		select {
		case s.results <- WriteResult{Key: key, Err: ErrWriteQueueFull}:
		default:
		}
	}
}

func (s *RemoteStore) Results() <-chan WriteResult {
	return s.results
}

func (s *RemoteStore) LastSession(context.Context) (*model.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSession == nil {
		return nil, nil
	}
	snap := *s.lastSession
	return &snap, nil
}

func (s *RemoteStore) SaveLastSession(_ context.Context, snap model.SessionSnapshot) error {
	s.mu.Lock()
	s.lastSession = &snap
	s.mu.Unlock()
	s.enqueue(KeyLastSession, func(ctx context.Context) error {
		return s.client.SaveLastSession(ctx, snap)
	})
	return nil
}

func (s *RemoteStore) ClearLastSession(context.Context) error {
	s.mu.Lock()
	s.lastSession = nil
	s.mu.Unlock()
	s.enqueue(KeyLastSession, func(ctx context.Context) error {
		return s.client.ClearLastSession(ctx)
	})
	return nil
}

func (s *RemoteStore) History(context.Context) ([]model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out, nil
}

func (s *RemoteStore) SaveHistory(_ context.Context, entries []model.HistoryEntry) error {
	stored := make([]model.HistoryEntry, len(entries))
	copy(stored, entries)
	s.mu.Lock()
	s.history = stored
	s.mu.Unlock()
	s.enqueue(KeySessionHistory, func(ctx context.Context) error {
		return s.client.ReplaceHistory(ctx, stored)
	})
	return nil
}

func (s *RemoteStore) WeakAreas(context.Context) ([]model.WeakArea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.WeakArea, len(s.weakAreas))
	copy(out, s.weakAreas)
	return out, nil
}

func (s *RemoteStore) SaveWeakAreas(_ context.Context, areas []model.WeakArea) error {
	stored := make([]model.WeakArea, len(areas))
	copy(stored, areas)
	s.mu.Lock()
	s.weakAreas = stored
	s.mu.Unlock()
	s.enqueue(KeyWeakAreas, func(ctx context.Context) error {
		return s.client.ReplaceWeakAreas(ctx, stored)
	})
	return nil
}

func (s *RemoteStore) Settings(context.Context) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

// SaveSettings writes the full record. A nil field here is an explicit
// clear: the server's partial merge keeps any field absent from the
// request, so clears must be flushed as empty values, never as nil.
func (s *RemoteStore) SaveSettings(_ context.Context, settings model.Settings) error {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	req := fullSettingsUpdate(settings)
	s.enqueue(KeySettings, func(ctx context.Context) error {
		return s.client.UpdateSettings(ctx, req)
	})
	return nil
}

func fullSettingsUpdate(settings model.Settings) model.UpdateSettingsRequest {
	req := model.UpdateSettingsRequest{
		ExamDate:       settings.ExamDate,
		FocusToday:     settings.FocusToday,
		CustomSubjects: settings.CustomSubjects,
		SubjectRenames: settings.SubjectRenames,
		Voice:          settings.Voice,
	}
	if req.ExamDate == nil {
		empty := ""
		req.ExamDate = &empty
	}
	if req.FocusToday == nil {
		req.FocusToday = &model.FocusToday{}
	}
	if req.Voice == nil {
		empty := ""
		req.Voice = &empty
	}
	if req.CustomSubjects == nil {
		req.CustomSubjects = []string{}
	}
	if req.SubjectRenames == nil {
		req.SubjectRenames = map[string]string{}
	}
	return req
}

// normalizeSettings maps the server's empty-value representation of a
// cleared field back to nil for the cache.
func normalizeSettings(s model.Settings) model.Settings {
	if s.ExamDate != nil && *s.ExamDate == "" {
		s.ExamDate = nil
	}
	if s.FocusToday != nil && s.FocusToday.Date == "" && s.FocusToday.Text == "" {
		s.FocusToday = nil
	}
	if s.Voice != nil && *s.Voice == "" {
		s.Voice = nil
	}
	return s
}

// Close drains pending flushes before returning.
func (s *RemoteStore) Close() error {
	close(s.jobs)
	<-s.done
	return nil
}
