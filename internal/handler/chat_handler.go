package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voxscholar/voxscholar/internal/response"
	"github.com/voxscholar/voxscholar/internal/service"
	"github.com/voxscholar/voxscholar/internal/validator"
)

// ChatHandler proxies chat and question generation to the configured
// provider.
type ChatHandler struct {
	questionService *service.QuestionService
}

func NewChatHandler(questionService *service.QuestionService) *ChatHandler {
	return &ChatHandler{questionService: questionService}
}

type chatRequest struct {
	Message string                `json:"message" binding:"required"`
	History []service.ChatMessage `json:"history"`
}

type generateQuestionsRequest struct {
	Material string `json:"material" binding:"required"`
}

// Chat godoc
// POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	messages := append(req.History, service.ChatMessage{Role: "user", Content: req.Message})
	reply, err := h.questionService.Chat(c.Request.Context(), messages)
	if err != nil {
		h.failProvider(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reply": reply})
}

// GenerateQuestions godoc
// POST /api/generate-questions
// Material below the minimum threshold is rejected before any provider
// call; malformed provider output is a hard failure.
func (h *ChatHandler) GenerateQuestions(c *gin.Context) {
	var req generateQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.GenerateQuestions(c.Request.Context(), req.Material)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMaterialTooShort):
			response.Fail(c, http.StatusBadRequest, response.ErrMaterialTooShort)
		case errors.Is(err, service.ErrBadGeneration):
			response.Fail(c, http.StatusBadGateway, response.ErrGenerationFailed)
		default:
			h.failProvider(c, err)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

func (h *ChatHandler) failProvider(c *gin.Context, err error) {
	if errors.Is(err, service.ErrProviderNotConfigured) {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrProviderNotConfigured)
		return
	}
	response.Fail(c, http.StatusBadGateway, response.ErrProviderFailed)
}
