// Package store is the client-side persistence layer. At startup the
// server is probed once: reachable means RemoteStore (server-backed,
// write-behind), unreachable means LocalStore (sqlite file). There is
// no mid-session switching or reconciliation.
package store

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/model"
)

// Storage keys, shared by the remote cache and the local kv table.
const (
	KeyLastSession    = "oralExam_lastSession"
	KeySessionHistory = "oralExam_sessionHistory"
	KeyWeakAreas      = "oralExam_weakAreas"
	KeyExamDate       = "oralExam_examDate"
	KeyFocusToday     = "oralExam_focusToday"
	KeyCustomSubjects = "oralExam_customSubjects"
	KeySubjectRenames = "oralExam_subjectRenames"
	KeyVoice          = "oralExam_voice"

	// KeySettings aggregates the settings keys for write reporting; the
	// server stores them individually.
	KeySettings = "oralExam_settings"
)

// WriteResult reports the outcome of one asynchronous flush.
type WriteResult struct {
	Key string
	Err error
}

// Store holds session and settings state. Reads return the caller's
// zero value on missing or unreadable data rather than failing; write
// failures on the remote path are surfaced through Results.
type Store interface {
	LastSession(ctx context.Context) (*model.SessionSnapshot, error)
	SaveLastSession(ctx context.Context, snap model.SessionSnapshot) error
	ClearLastSession(ctx context.Context) error

	History(ctx context.Context) ([]model.HistoryEntry, error)
	SaveHistory(ctx context.Context, entries []model.HistoryEntry) error

	WeakAreas(ctx context.Context) ([]model.WeakArea, error)
	SaveWeakAreas(ctx context.Context, areas []model.WeakArea) error

	Settings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, s model.Settings) error

	// Results delivers asynchronous write outcomes. Local stores write
	// synchronously and never deliver on it.
	Results() <-chan WriteResult

	Close() error
}

// Select probes the server once and returns the matching store.
func Select(ctx context.Context, client *Client, localPath string, log zerolog.Logger) (Store, error) {
	if err := client.Health(ctx); err == nil {
		remote, err := NewRemoteStore(ctx, client, log)
		if err == nil {
			return remote, nil
		}
		log.Warn().Err(err).Msg("Remote store prefetch failed, falling back to local")
	}
	return NewLocalStore(localPath, log)
}
