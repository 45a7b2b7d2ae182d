package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voxscholar/voxscholar/internal/model"
)

// ErrItemNotFound is returned when an item id does not exist in the
// caller's scope.
var ErrItemNotFound = errors.New("item not found")

// ItemRepository persists library items. User id 0 is the shared
// anonymous scope.
type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// ListBySubject returns a subject's items newest-first, without content.
func (r *ItemRepository) ListBySubject(ctx context.Context, userID int, subject string) ([]model.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject, subfolder, name, type, mime_type, size, created_at, updated_at
		 FROM items WHERE user_id = $1 AND subject = $2
		 ORDER BY updated_at DESC`,
		userID, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Subject, &it.Subfolder, &it.Name, &it.Type,
			&it.MimeType, &it.Size, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Subjects returns the distinct non-empty subjects in the caller's scope.
func (r *ItemRepository) Subjects(ctx context.Context, userID int) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT subject FROM items
		 WHERE user_id = $1 AND subject <> ''
		 ORDER BY subject ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// Get returns one item including its content.
func (r *ItemRepository) Get(ctx context.Context, userID int, id string) (*model.Item, error) {
	it := &model.Item{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, subject, subfolder, name, type, content, mime_type, size, created_at, updated_at
		 FROM items WHERE user_id = $1 AND id = $2`,
		userID, id).
		Scan(&it.ID, &it.Subject, &it.Subfolder, &it.Name, &it.Type, &it.Content,
			&it.MimeType, &it.Size, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// Upsert inserts an item, replacing any existing row with the same id.
// The id scheme (timestamp + random suffix) makes collisions negligible;
// insert-or-replace mirrors that assumption instead of enforcing more.
func (r *ItemRepository) Upsert(ctx context.Context, userID int, it *model.Item) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO items (id, user_id, subject, subfolder, name, type, content, mime_type, size, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		   subject = EXCLUDED.subject, subfolder = EXCLUDED.subfolder,
		   name = EXCLUDED.name, type = EXCLUDED.type, content = EXCLUDED.content,
		   mime_type = EXCLUDED.mime_type, size = EXCLUDED.size,
		   updated_at = EXCLUDED.updated_at`,
		it.ID, userID, it.Subject, it.Subfolder, it.Name, it.Type, it.Content,
		it.MimeType, it.Size, it.CreatedAt, it.UpdatedAt)
	return err
}

// Update applies a partial update. Content changes are only applied to
// notes; an omitted content always preserves the stored blob.
func (r *ItemRepository) Update(ctx context.Context, userID int, id string, req model.UpdateItemRequest) error {
	existing, err := r.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	sets := []string{}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if req.Name != nil {
		sets = append(sets, "name = "+arg(*req.Name))
	}
	if req.Subfolder != nil {
		sets = append(sets, "subfolder = "+arg(strings.TrimSpace(*req.Subfolder)))
	}
	if req.Content != nil && existing.Type == model.ItemTypeNote {
		sets = append(sets, "content = "+arg([]byte(*req.Content)))
	}
	sets = append(sets, "updated_at = "+arg(time.Now().UTC()))

	query := fmt.Sprintf("UPDATE items SET %s WHERE user_id = %s AND id = %s",
		strings.Join(sets, ", "), arg(userID), arg(id))
	_, err = r.pool.Exec(ctx, query, args...)
	return err
}

// Delete removes an item. Deleting an absent id is not an error.
func (r *ItemRepository) Delete(ctx context.Context, userID int, id string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM items WHERE user_id = $1 AND id = $2`, userID, id)
	return err
}
