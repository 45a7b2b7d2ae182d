package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxscholar/voxscholar/internal/middleware"
	"github.com/voxscholar/voxscholar/internal/model"
	"github.com/voxscholar/voxscholar/internal/response"
	"github.com/voxscholar/voxscholar/internal/service"
)

type SettingHandler struct {
	settingService *service.SettingService
}

func NewSettingHandler(settingService *service.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// GetSettings godoc
// GET /api/settings
func (h *SettingHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingService.Settings(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, settings)
}

// UpdateSettings godoc
// PUT /api/settings
// Partial merge: fields absent from the payload keep their stored value.
func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.settingService.UpdateSettings(c.Request.Context(), middleware.GetUserID(c), req); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true})
}
