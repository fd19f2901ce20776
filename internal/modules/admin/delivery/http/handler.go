package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"openjournal.app/backend/internal/modules/admin/dto"
	"openjournal.app/backend/internal/modules/admin/service"
	"openjournal.app/backend/pkg/apperror"
	"openjournal.app/backend/pkg/response"
	"openjournal.app/backend/pkg/validator"
)

type AdminHandler struct {
	service service.AdminService
}

func NewAdminHandler(service service.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), actor)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	users, err := h.service.GetAllUsers(c.Request.Context(), actor)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": users})
}

func (h *AdminHandler) UpdateUserRoles(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	targetUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var input dto.UpdateUserRolesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": apperror.Kind(apperror.ErrValidation)})
		return
	}

	user, err := h.service.UpdateUserRoles(c.Request.Context(), actor, targetUserID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, err := response.GetAuthContext(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	targetUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), actor, targetUserID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
