package library

import (
	"context"
	"errors"
	"net/http"

	"github.com/voxscholar/voxscholar/internal/model"
	"github.com/voxscholar/voxscholar/internal/store"
)

// RemoteItems keeps library items on the server. File content is not
// carried in item responses; Get fetches it through the download
// endpoint when the item is a file.
type RemoteItems struct {
	client *store.Client
}

func NewRemoteItems(client *store.Client) *RemoteItems {
	return &RemoteItems{client: client}
}

func mapRemoteErr(err error) error {
	var apiErr *store.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return ErrItemNotFound
	}
	return err
}

func (r *RemoteItems) GetAllBySubject(ctx context.Context, subject string) ([]model.Item, error) {
	items, err := r.client.ListBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (r *RemoteItems) UniqueSubjects(ctx context.Context) ([]string, error) {
	subjects, err := r.client.Subjects(ctx)
	if err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []string{}
	}
	return subjects, nil
}

func (r *RemoteItems) Get(ctx context.Context, id string) (*model.Item, error) {
	item, err := r.client.GetItem(ctx, id)
	if err != nil {
		return nil, mapRemoteErr(err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.Type == model.ItemTypeFile {
		content, err := r.client.DownloadItem(ctx, id)
		if err != nil {
			return nil, mapRemoteErr(err)
		}
		item.Content = content
	}
	return item, nil
}

func (r *RemoteItems) Add(ctx context.Context, item model.Item) (string, error) {
	if item.Type == model.ItemTypeFile {
		return r.client.UploadFile(ctx, item)
	}
	return r.client.CreateNote(ctx, item)
}

func (r *RemoteItems) Update(ctx context.Context, id string, updates model.UpdateItemRequest) error {
	return mapRemoteErr(r.client.UpdateItem(ctx, id, updates))
}

func (r *RemoteItems) Delete(ctx context.Context, id string) error {
	return r.client.DeleteItem(ctx, id)
}

func (r *RemoteItems) Subfolders(ctx context.Context, subject string) ([]string, error) {
	items, err := r.GetAllBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	out := subfoldersOf(items)
	if out == nil {
		out = []string{}
	}
	return out, nil
}
