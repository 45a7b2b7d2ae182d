package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxscholar/voxscholar/internal/response"
	"github.com/voxscholar/voxscholar/internal/service"
	"github.com/voxscholar/voxscholar/internal/validator"
)

// SpeechHandler proxies text-to-speech to the configured provider.
type SpeechHandler struct {
	speechService *service.SpeechService
}

func NewSpeechHandler(speechService *service.SpeechService) *SpeechHandler {
	return &SpeechHandler{speechService: speechService}
}

type ttsRequest struct {
	Text  string `json:"text" binding:"required"`
	Voice string `json:"voice"`
}

// Synthesize godoc
// POST /api/tts
// Returns MP3 audio bytes on success; 503 PROVIDER_NOT_CONFIGURED when no
// provider key is set, so the client can fall back to local synthesis.
func (h *SpeechHandler) Synthesize(c *gin.Context) {
	var req ttsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	audio, err := h.speechService.Synthesize(c.Request.Context(), req.Text, req.Voice)
	if err != nil {
		if errors.Is(err, service.ErrProviderNotConfigured) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrProviderNotConfigured)
			return
		}
		response.Fail(c, http.StatusBadGateway, response.ErrProviderFailed)
		return
	}

	c.Data(http.StatusOK, "audio/mpeg", audio)
}
