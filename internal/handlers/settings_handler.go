package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/services"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	BaseHandler
	service *services.SettingsService
}

func NewSettingsHandler(service *services.SettingsService, logger utils.Logger) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.service.Get(serviceContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// Update merges the non-empty fields of the body into the settings document.
func (h *SettingsHandler) Update(c *gin.Context) {
	var patch models.SchoolSettings
	if !bindJSON(c, &patch) {
		return
	}

	settings, err := h.service.Update(serviceContext(c), currentActor(c), patch)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
