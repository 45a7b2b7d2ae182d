package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxscholar/voxscholar/internal/middleware"
	"github.com/voxscholar/voxscholar/internal/model"
	"github.com/voxscholar/voxscholar/internal/response"
	"github.com/voxscholar/voxscholar/internal/service"
	"github.com/voxscholar/voxscholar/internal/validator"
)

// SessionHandler serves the resumable-session snapshot plus the bounded
// session-history and weak-area lists. History and weak areas use
// full-list replace semantics: the client owns the list shape, the server
// enforces the caps.
type SessionHandler struct {
	settingService *service.SettingService
}

func NewSessionHandler(settingService *service.SettingService) *SessionHandler {
	return &SessionHandler{settingService: settingService}
}

// GetLastSession godoc
// GET /api/last-session
func (h *SessionHandler) GetLastSession(c *gin.Context) {
	snap, err := h.settingService.LastSession(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	// Data is null when no session is resumable.
	response.Success(c, http.StatusOK, snap)
}

// SaveLastSession godoc
// POST /api/last-session
func (h *SessionHandler) SaveLastSession(c *gin.Context) {
	var snap model.SessionSnapshot
	if fields := validator.Bind(c, &snap); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.settingService.SaveLastSession(c.Request.Context(), middleware.GetUserID(c), snap); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true})
}

// ClearLastSession godoc
// DELETE /api/last-session
func (h *SessionHandler) ClearLastSession(c *gin.Context) {
	if err := h.settingService.ClearLastSession(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true})
}

// GetHistory godoc
// GET /api/session-history
func (h *SessionHandler) GetHistory(c *gin.Context) {
	history, err := h.settingService.History(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if history == nil {
		history = []model.HistoryEntry{}
	}
	response.Success(c, http.StatusOK, history)
}

// ReplaceHistory godoc
// POST /api/session-history
func (h *SessionHandler) ReplaceHistory(c *gin.Context) {
	var history []model.HistoryEntry
	if err := c.ShouldBindJSON(&history); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.settingService.ReplaceHistory(c.Request.Context(), middleware.GetUserID(c), history); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true})
}

// GetWeakAreas godoc
// GET /api/weak-areas
func (h *SessionHandler) GetWeakAreas(c *gin.Context) {
	areas, err := h.settingService.WeakAreas(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if areas == nil {
		areas = []model.WeakArea{}
	}
	response.Success(c, http.StatusOK, areas)
}

// ReplaceWeakAreas godoc
// POST /api/weak-areas
func (h *SessionHandler) ReplaceWeakAreas(c *gin.Context) {
	var areas []model.WeakArea
	if err := c.ShouldBindJSON(&areas); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.settingService.ReplaceWeakAreas(c.Request.Context(), middleware.GetUserID(c), areas); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true})
}
