package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/config"
	"github.com/voxscholar/voxscholar/internal/model"
	"github.com/voxscholar/voxscholar/internal/repository"
)

// Sentinel errors for item operations.
var (
	ErrFileTooLarge = errors.New("file too large")
	ErrNotAFile     = errors.New("item has no downloadable content")
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ItemService handles library item business logic.
type ItemService struct {
	itemRepo *repository.ItemRepository
	cfg      *config.Config
	log      zerolog.Logger
}

func NewItemService(itemRepo *repository.ItemRepository, cfg *config.Config, log zerolog.Logger) *ItemService {
	return &ItemService{
		itemRepo: itemRepo,
		cfg:      cfg,
		log:      log.With().Str("component", "item_service").Logger(),
	}
}

// NewItemID generates an id in the original timestamp-plus-random-suffix
// scheme. Collisions are not enforced against beyond the primary key's
// insert-or-replace semantics.
func NewItemID() string {
	suffix := make([]byte, 11)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return fmt.Sprintf("item_%d_%s", time.Now().UnixMilli(), suffix)
}

// ListBySubject returns a subject's items without content.
func (s *ItemService) ListBySubject(ctx context.Context, userID int, subject string) ([]model.Item, error) {
	items, err := s.itemRepo.ListBySubject(ctx, userID, subject)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Subjects returns the distinct subjects with at least one item.
func (s *ItemService) Subjects(ctx context.Context, userID int) ([]string, error) {
	subjects, err := s.itemRepo.Subjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []string{}
	}
	return subjects, nil
}

// Get returns one item with content loaded.
func (s *ItemService) Get(ctx context.Context, userID int, id string) (*model.Item, error) {
	return s.itemRepo.Get(ctx, userID, id)
}

// CreateNote stores a note (or an inline-content file) from a JSON payload
// and returns its id.
func (s *ItemService) CreateNote(ctx context.Context, userID int, req model.CreateItemRequest) (string, error) {
	it := s.newItem(req)
	if req.Content != nil {
		it.Content = []byte(*req.Content)
	}
	if it.Type == model.ItemTypeFile {
		it.MimeType = req.MimeType
		if it.MimeType == nil {
			octet := "application/octet-stream"
			it.MimeType = &octet
		}
		it.Size = req.Size
		if it.Size == nil {
			n := int64(len(it.Content))
			it.Size = &n
		}
	}
	if err := s.itemRepo.Upsert(ctx, userID, it); err != nil {
		return "", err
	}
	return it.ID, nil
}

// CreateUpload stores an uploaded file from a multipart form and returns
// its id.
func (s *ItemService) CreateUpload(ctx context.Context, userID int, req model.CreateItemRequest, file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	req.Type = string(model.ItemTypeFile)
	it := s.newItem(req)
	it.Content = content

	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}
	it.MimeType = &mime
	size := int64(len(content))
	it.Size = &size

	if err := s.itemRepo.Upsert(ctx, userID, it); err != nil {
		return "", err
	}
	return it.ID, nil
}

// Update applies a partial item update.
func (s *ItemService) Update(ctx context.Context, userID int, id string, req model.UpdateItemRequest) error {
	return s.itemRepo.Update(ctx, userID, id, req)
}

// Delete removes an item; absent ids are ignored.
func (s *ItemService) Delete(ctx context.Context, userID int, id string) error {
	return s.itemRepo.Delete(ctx, userID, id)
}

// Download returns a file item's content and MIME type. Notes are not
// downloadable.
func (s *ItemService) Download(ctx context.Context, userID int, id string) (*model.Item, error) {
	it, err := s.itemRepo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if it.Type != model.ItemTypeFile {
		return nil, ErrNotAFile
	}
	return it, nil
}

func (s *ItemService) newItem(req model.CreateItemRequest) *model.Item {
	now := time.Now().UTC()
	it := &model.Item{
		ID:        req.ID,
		Subject:   req.Subject,
		Subfolder: strings.TrimSpace(req.Subfolder),
		Name:      req.Name,
		Type:      model.ItemType(req.Type),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if it.ID == "" {
		it.ID = NewItemID()
	}
	if it.Name == "" {
		it.Name = "Untitled"
	}
	if it.Type != model.ItemTypeFile {
		it.Type = model.ItemTypeNote
	}
	return it
}
