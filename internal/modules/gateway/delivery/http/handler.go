package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"openjournal.app/backend/internal/modules/gateway/dto"
	"openjournal.app/backend/internal/modules/gateway/service"
	reviewdto "openjournal.app/backend/internal/modules/review/dto"
	"openjournal.app/backend/pkg/apperror"
	"openjournal.app/backend/pkg/response"
	"openjournal.app/backend/pkg/validator"
)

type GatewayHandler struct {
	service service.GatewayService
}

func NewGatewayHandler(service service.GatewayService) *GatewayHandler {
	return &GatewayHandler{service: service}
}

func (h *GatewayHandler) SubmitManuscript(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.GatewaySubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": apperror.Kind(apperror.ErrValidation)})
		return
	}

	manuscript, err := h.service.SubmitManuscript(c.Request.Context(), actor, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": manuscript})
}

func (h *GatewayHandler) SearchManuscripts(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	query := c.Query("q")

	limit := 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = v
	}

	var cursor *int
	if raw := c.Query("cursor"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.ResponseError(c, fmt.Errorf("%w: invalid cursor", apperror.ErrBadRequest))
			return
		}
		cursor = &v
	}

	page, err := h.service.SearchManuscripts(c.Request.Context(), actor, query, cursor, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if page.Pagination.Cursor != nil {
		next := fmt.Sprintf("</mcp/v1/manuscripts?cursor=%s>; rel=\"next\"", *page.Pagination.Cursor)
		c.Header("Link", next)
	}

	c.JSON(http.StatusOK, page)
}

func (h *GatewayHandler) GetManuscript(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, fmt.Errorf("%w: invalid manuscript id", apperror.ErrBadRequest))
		return
	}

	manuscript, err := h.service.GetManuscript(c.Request.Context(), actor, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": manuscript})
}

func (h *GatewayHandler) AssignReviewers(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, fmt.Errorf("%w: invalid manuscript id", apperror.ErrBadRequest))
		return
	}

	var input dto.GatewayAssignReviewersInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": apperror.Kind(apperror.ErrValidation)})
		return
	}

	results, err := h.service.AssignReviewers(c.Request.Context(), actor, id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (h *GatewayHandler) SubmitReview(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, fmt.Errorf("%w: invalid review id", apperror.ErrBadRequest))
		return
	}

	var input reviewdto.SubmitReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": apperror.Kind(apperror.ErrValidation)})
		return
	}

	review, err := h.service.SubmitReview(c.Request.Context(), actor, id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": review})
}

func (h *GatewayHandler) MakeDecision(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, fmt.Errorf("%w: invalid manuscript id", apperror.ErrBadRequest))
		return
	}

	var input dto.GatewayDecisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": apperror.Kind(apperror.ErrValidation)})
		return
	}

	decision, err := h.service.MakeDecision(c.Request.Context(), actor, id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": decision})
}

func (h *GatewayHandler) PublishManuscript(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, fmt.Errorf("%w: invalid manuscript id", apperror.ErrBadRequest))
		return
	}

	// Body is optional; publishing without citation metadata is allowed.
	var input dto.GatewayPublishInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": apperror.Kind(apperror.ErrValidation)})
			return
		}
	}

	article, err := h.service.PublishManuscript(c.Request.Context(), actor, id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": article})
}

func (h *GatewayHandler) SearchArticles(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.ResponseError(c, fmt.Errorf("%w: query parameter q is required", apperror.ErrBadRequest))
		return
	}

	limit := 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = v
	}

	articles, err := h.service.SearchArticles(c.Request.Context(), query, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": articles})
}

func (h *GatewayHandler) NotifyUser(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.GatewayNotifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": apperror.Kind(apperror.ErrValidation)})
		return
	}

	if err := h.service.NotifyUser(c.Request.Context(), actor, input); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Notification queued"})
}
