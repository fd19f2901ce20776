package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"openjournal.app/backend/internal/modules/manuscript/dto"
	"openjournal.app/backend/internal/modules/manuscript/service"
	"openjournal.app/backend/pkg/apperror"
	"openjournal.app/backend/pkg/response"
	"openjournal.app/backend/pkg/validator"
)

type ManuscriptHandler struct {
	service service.ManuscriptService
}

func NewManuscriptHandler(service service.ManuscriptService) *ManuscriptHandler {
	return &ManuscriptHandler{service: service}
}

func (h *ManuscriptHandler) Submit(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.SubmitManuscriptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": apperror.Kind(apperror.ErrValidation)})
		return
	}

	manuscript, err := h.service.Submit(c.Request.Context(), actor, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": manuscript})
}

func (h *ManuscriptHandler) MakeDecision(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	manuscriptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var input dto.DecisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": apperror.Kind(apperror.ErrValidation)})
		return
	}

	decision, err := h.service.MakeDecision(c.Request.Context(), actor, manuscriptID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": decision})
}

func (h *ManuscriptHandler) GetMine(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	manuscripts, err := h.service.GetMine(c.Request.Context(), actor)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": manuscripts})
}

func (h *ManuscriptHandler) GetEditorQueue(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	manuscripts, err := h.service.GetEditorQueue(c.Request.Context(), actor)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": manuscripts})
}

func (h *ManuscriptHandler) GetAll(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	manuscripts, err := h.service.GetAll(c.Request.Context(), actor)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": manuscripts})
}

func (h *ManuscriptHandler) GetPublished(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	manuscripts, err := h.service.GetPublished(c.Request.Context(), limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": manuscripts})
}

func (h *ManuscriptHandler) GetBySlug(c *gin.Context) {
	manuscript, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	// Unknown or unpublished slugs resolve to null, not 404.
	c.JSON(http.StatusOK, gin.H{"data": manuscript})
}
