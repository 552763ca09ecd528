package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/services"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/SAP-F-2025/school-admin-service/internal/views"
	"github.com/gin-gonic/gin"
)

type SetRoleRequest struct {
	Role models.StaffRole `json:"role" binding:"required"`
}

// UserHandler serves the user management page.
type UserHandler struct {
	BaseHandler
	service *services.UserService
}

func NewUserHandler(service *services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

func (h *UserHandler) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.DELETE("/:source/:id", h.Delete)
	group.PUT("/teachers/:id/role", h.SetRole)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(serviceContext(c), currentActor(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: users, Total: len(users)})
}

func (h *UserHandler) Create(c *gin.Context) {
	var req services.NewUserRequest
	if !bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating user", "source", req.Source, "email", req.Email)
	created, err := h.service.Create(serviceContext(c), currentActor(c), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *UserHandler) Delete(c *gin.Context) {
	source := views.SourceCollection(c.Param("source"))
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.service.Delete(serviceContext(c), currentActor(c), source, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) SetRole(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req SetRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.SetRole(serviceContext(c), currentActor(c), id, req.Role); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Role updated", gin.H{"id": id, "role": req.Role})
}
