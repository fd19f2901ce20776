package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"openjournal.app/backend/internal/modules/proofing/dto"
	"openjournal.app/backend/internal/modules/proofing/service"
	"openjournal.app/backend/pkg/apperror"
	"openjournal.app/backend/pkg/response"
	"openjournal.app/backend/pkg/validator"
)

type ProofingHandler struct {
	service service.ProofingService
}

func NewProofingHandler(service service.ProofingService) *ProofingHandler {
	return &ProofingHandler{service: service}
}

func (h *ProofingHandler) GetTasks(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	tasks, err := h.service.GetTasks(c.Request.Context(), actor)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

func (h *ProofingHandler) GetTask(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	task, err := h.service.GetTask(c.Request.Context(), actor, taskID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": task})
}

func (h *ProofingHandler) UploadProofedFile(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var input dto.UploadProofedFileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": apperror.Kind(apperror.ErrValidation)})
		return
	}

	task, err := h.service.UploadProofedFile(c.Request.Context(), actor, taskID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": task})
}
