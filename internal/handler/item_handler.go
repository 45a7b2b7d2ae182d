package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/voxscholar/voxscholar/internal/middleware"
	"github.com/voxscholar/voxscholar/internal/model"
	"github.com/voxscholar/voxscholar/internal/repository"
	"github.com/voxscholar/voxscholar/internal/response"
	"github.com/voxscholar/voxscholar/internal/service"
)

// ItemHandler serves library item CRUD. Notes travel as JSON with inline
// content; files are uploaded as multipart forms and downloaded as binary
// streams.
type ItemHandler struct {
	itemService *service.ItemService
}

func NewItemHandler(itemService *service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// itemView is the single-item response shape: metadata always, inline
// content only for notes.
type itemView struct {
	model.Item
	Content *string `json:"content,omitempty"`
}

// ListBySubject godoc
// GET /api/items?subject=
func (h *ItemHandler) ListBySubject(c *gin.Context) {
	subject := c.Query("subject")
	if subject == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrSubjectRequired)
		return
	}

	items, err := h.itemService.ListBySubject(c.Request.Context(), middleware.GetUserID(c), subject)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// Subjects godoc
// GET /api/items/subjects
func (h *ItemHandler) Subjects(c *gin.Context) {
	subjects, err := h.itemService.Subjects(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, subjects)
}

// Get godoc
// GET /api/items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	it, err := h.itemService.Get(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	view := itemView{Item: *it}
	if it.Type == model.ItemTypeNote {
		content := it.NoteContent()
		view.Content = &content
	}
	response.Success(c, http.StatusOK, view)
}

// Download godoc
// GET /api/items/:id/download
// Streams a file item's bytes; notes and missing ids get 404.
func (h *ItemHandler) Download(c *gin.Context) {
	it, err := h.itemService.Download(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) || errors.Is(err, service.ErrNotAFile) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	mime := "application/octet-stream"
	if it.MimeType != nil && *it.MimeType != "" {
		mime = *it.MimeType
	}
	c.Header("Content-Disposition", `attachment; filename="`+it.Name+`"`)
	c.Data(http.StatusOK, mime, it.Content)
}

// Create godoc
// POST /api/items
// Accepts either a multipart form with a "file" field or a JSON note body.
// Returns the stored item's id.
func (h *ItemHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
			return
		}
		defer file.Close()

		req := model.CreateItemRequest{
			ID:        c.PostForm("id"),
			Subject:   c.PostForm("subject"),
			Subfolder: c.PostForm("subfolder"),
			Name:      c.PostForm("name"),
		}
		if req.Name == "" {
			req.Name = header.Filename
		}

		id, err := h.itemService.CreateUpload(c.Request.Context(), userID, req, file, header)
		if err != nil {
			if errors.Is(err, service.ErrFileTooLarge) {
				response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
				return
			}
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"id": id})
		return
	}

	var req model.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	id, err := h.itemService.CreateNote(c.Request.Context(), userID, req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id})
}

// Update godoc
// PATCH /api/items/:id
// Partial merge; omitted content is preserved, never nulled.
func (h *ItemHandler) Update(c *gin.Context) {
	var req model.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	err := h.itemService.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true})
}

// Delete godoc
// DELETE /api/items/:id
func (h *ItemHandler) Delete(c *gin.Context) {
	err := h.itemService.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true})
}
