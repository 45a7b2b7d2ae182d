package tui

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/model"
	"github.com/voxscholar/voxscholar/internal/store"
)

// storePersister feeds the session machine's side effects into the
// selected store. The store itself handles async flushing; these calls
// stay cheap.
type storePersister struct {
	st  store.Store
	log zerolog.Logger
}

func newStorePersister(st store.Store, log zerolog.Logger) *storePersister {
	return &storePersister{st: st, log: log}
}

func (p *storePersister) SaveSnapshot(snap model.SessionSnapshot) {
	if err := p.st.SaveLastSession(context.Background(), snap); err != nil {
		p.log.Warn().Err(err).Msg("Failed to save session snapshot")
	}
}

func (p *storePersister) ClearSnapshot() {
	if err := p.st.ClearLastSession(context.Background()); err != nil {
		p.log.Warn().Err(err).Msg("Failed to clear session snapshot")
	}
}

func (p *storePersister) AppendHistory(topic string, completed bool) {
	ctx := context.Background()
	history, err := p.st.History(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to load session history")
		history = nil
	}
	entry := model.HistoryEntry{
		Topic:     topic,
		Completed: completed,
		Date:      time.Now().UTC().Format(time.RFC3339),
	}
	next := append([]model.HistoryEntry{entry}, history...)
	if len(next) > model.MaxHistoryEntries {
		next = next[:model.MaxHistoryEntries]
	}
	if err := p.st.SaveHistory(ctx, next); err != nil {
		p.log.Warn().Err(err).Msg("Failed to save session history")
	}
}

// addWeakArea flags a question for review, newest first, deduplicated
// by topic and question, capped.
func addWeakArea(ctx context.Context, st store.Store, topic, question string) error {
	areas, err := st.WeakAreas(ctx)
	if err != nil {
		return err
	}
	for _, a := range areas {
		if a.Topic == topic && a.Question == question {
			return nil
		}
	}
	next := append([]model.WeakArea{{Topic: topic, Question: question}}, areas...)
	if len(next) > model.MaxWeakAreas {
		next = next[:model.MaxWeakAreas]
	}
	return st.SaveWeakAreas(ctx, next)
}

// removeWeakArea drops the entry at index.
func removeWeakArea(ctx context.Context, st store.Store, index int) error {
	areas, err := st.WeakAreas(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(areas) {
		return nil
	}
	next := append(areas[:index], areas[index+1:]...)
	return st.SaveWeakAreas(ctx, next)
}
