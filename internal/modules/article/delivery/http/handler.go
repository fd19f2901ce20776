package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"openjournal.app/backend/internal/modules/article/dto"
	"openjournal.app/backend/internal/modules/article/service"
	"openjournal.app/backend/pkg/apperror"
	"openjournal.app/backend/pkg/response"
	"openjournal.app/backend/pkg/validator"
)

type ArticleHandler struct {
	service service.ArticleService
}

func NewArticleHandler(service service.ArticleService) *ArticleHandler {
	return &ArticleHandler{service: service}
}

func (h *ArticleHandler) PublishArticle(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.PublishArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": apperror.Kind(apperror.ErrValidation)})
		return
	}

	article, err := h.service.PublishArticle(c.Request.Context(), actor, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": article})
}

func (h *ArticleHandler) GetPublishedArticles(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	articles, err := h.service.GetPublishedArticles(c.Request.Context(), limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": articles})
}

func (h *ArticleHandler) GetArticleBySlug(c *gin.Context) {
	article, err := h.service.GetArticleBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	// Unknown slugs resolve to null, matching the public read contract.
	c.JSON(http.StatusOK, gin.H{"data": article})
}

func (h *ArticleHandler) SearchArticles(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	articles, err := h.service.SearchArticles(c.Request.Context(), query, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": articles})
}
