package library

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/voxscholar/voxscholar/internal/model"

	_ "modernc.org/sqlite"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newItemID builds a sortable id from the creation time plus a random
// suffix, matching the ids the server hands out.
func newItemID() string {
	suffix := make([]byte, 11)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(idAlphabet))))
		if err != nil {
			n = big.NewInt(time.Now().UnixNano() % int64(len(idAlphabet)))
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return fmt.Sprintf("item_%d_%s", time.Now().UnixMilli(), suffix)
}

// LocalItems keeps library items in the offline sqlite database, in the
// same file as the local kv store.
type LocalItems struct {
	db *sql.DB
}

func NewLocalItems(db *sql.DB) (*LocalItems, error) {
	l := &LocalItems{db: db}
	if err := l.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LocalItems) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  subject TEXT NOT NULL,
  subfolder TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  content BLOB,
  mime_type TEXT,
  size INTEGER,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_subject ON items (subject);
`
	if _, err := l.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create items table: %w", err)
	}
	return nil
}

func scanItem(row interface{ Scan(...any) error }, withContent bool) (*model.Item, error) {
	var (
		item      model.Item
		createdAt string
		updatedAt string
	)
	dest := []any{&item.ID, &item.Subject, &item.Subfolder, &item.Name, &item.Type, &item.MimeType, &item.Size, &createdAt, &updatedAt}
	if withContent {
		dest = append(dest, &item.Content)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	item.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &item, nil
}

func (l *LocalItems) GetAllBySubject(ctx context.Context, subject string) ([]model.Item, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, subject, subfolder, name, type, mime_type, size, created_at, updated_at
		 FROM items WHERE subject = ? ORDER BY updated_at DESC`, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows, false)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (l *LocalItems) UniqueSubjects(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT DISTINCT subject FROM items WHERE subject <> '' ORDER BY subject`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (l *LocalItems) Get(ctx context.Context, id string) (*model.Item, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, subject, subfolder, name, type, mime_type, size, created_at, updated_at, content
		 FROM items WHERE id = ?`, id)
	item, err := scanItem(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (l *LocalItems) Add(ctx context.Context, item model.Item) (string, error) {
	if item.ID == "" {
		item.ID = newItemID()
	}
	if item.Name == "" {
		item.Name = "Untitled"
	}
	if item.Type != model.ItemTypeFile {
		item.Type = model.ItemTypeNote
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO items (id, subject, subfolder, name, type, content, mime_type, size, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   subject = excluded.subject,
		   subfolder = excluded.subfolder,
		   name = excluded.name,
		   type = excluded.type,
		   content = excluded.content,
		   mime_type = excluded.mime_type,
		   size = excluded.size,
		   updated_at = excluded.updated_at`,
		item.ID, item.Subject, item.Subfolder, item.Name, string(item.Type),
		item.Content, item.MimeType, item.Size, now, now)
	if err != nil {
		return "", err
	}
	return item.ID, nil
}

func (l *LocalItems) Update(ctx context.Context, id string, updates model.UpdateItemRequest) error {
	existing, err := l.Get(ctx, id)
	if err != nil {
		return err
	}
	if updates.Name != nil {
		existing.Name = *updates.Name
	}
	if updates.Subfolder != nil {
		existing.Subfolder = *updates.Subfolder
	}
	// Content updates only apply to notes; file bytes are immutable.
	if updates.Content != nil && existing.Type == model.ItemTypeNote {
		existing.Content = []byte(*updates.Content)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = l.db.ExecContext(ctx,
		`UPDATE items SET subfolder = ?, name = ?, content = ?, updated_at = ? WHERE id = ?`,
		existing.Subfolder, existing.Name, existing.Content, now, id)
	return err
}

func (l *LocalItems) Delete(ctx context.Context, id string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	return err
}

func (l *LocalItems) Subfolders(ctx context.Context, subject string) ([]string, error) {
	items, err := l.GetAllBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	out := subfoldersOf(items)
	if out == nil {
		out = []string{}
	}
	return out, nil
}
