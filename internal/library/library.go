// Package library stores the user's study material: notes and uploaded
// files grouped by subject. It mirrors the storage split of the store
// package: a server-backed implementation and an offline sqlite one.
package library

import (
	"context"
	"errors"
	"sort"

	"github.com/voxscholar/voxscholar/internal/model"
)

// ErrItemNotFound is returned on reads and updates of missing items.
var ErrItemNotFound = errors.New("item not found")

// ItemStore manages library items for one user scope.
type ItemStore interface {
	GetAllBySubject(ctx context.Context, subject string) ([]model.Item, error)
	UniqueSubjects(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (*model.Item, error)
	Add(ctx context.Context, item model.Item) (string, error)
	Update(ctx context.Context, id string, updates model.UpdateItemRequest) error
	Delete(ctx context.Context, id string) error
	Subfolders(ctx context.Context, subject string) ([]string, error)
}

// subfoldersOf collects the non-empty subfolder names of a subject's
// items, sorted.
func subfoldersOf(items []model.Item) []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range items {
		if item.Subfolder == "" || seen[item.Subfolder] {
			continue
		}
		seen[item.Subfolder] = true
		out = append(out, item.Subfolder)
	}
	sort.Strings(out)
	return out
}
