package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/school-admin-service/internal/preferences"
	"github.com/SAP-F-2025/school-admin-service/internal/services"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	BaseHandler
	service *services.DashboardService
}

func NewDashboardHandler(service *services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(serviceContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *DashboardHandler) Widgets(c *gin.Context) {
	cfg, err := h.service.Widgets(serviceContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *DashboardHandler) SetWidgets(c *gin.Context) {
	var cfg preferences.WidgetConfig
	if !bindJSON(c, &cfg) {
		return
	}

	if err := h.service.SetWidgets(serviceContext(c), currentActor(c), cfg); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
