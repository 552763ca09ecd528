package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/ledger"
	"github.com/SAP-F-2025/school-admin-service/internal/services"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PaymentHandler struct {
	BaseHandler
	service *services.BillingService
}

func NewPaymentHandler(service *services.BillingService, logger utils.Logger) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

func (h *PaymentHandler) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/export", h.Export)
	group.GET("/:id", h.Receipt)
	group.DELETE("/:id", h.Delete)
}

// List returns payments newest first, optionally for one student.
func (h *PaymentHandler) List(c *gin.Context) {
	payments, err := h.service.List(serviceContext(c), currentActor(c), c.Query("student_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: payments, Total: len(payments)})
}

func (h *PaymentHandler) Create(c *gin.Context) {
	var in ledger.PaymentInput
	if !bindJSON(c, &in) {
		return
	}

	payment, err := h.service.Record(serviceContext(c), currentActor(c), in)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) Receipt(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	receipt, err := h.service.Receipt(serviceContext(c), currentActor(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *PaymentHandler) Delete(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.service.Delete(serviceContext(c), currentActor(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Export downloads the payments as an Excel workbook.
func (h *PaymentHandler) Export(c *gin.Context) {
	data, err := h.service.ExportXLSX(serviceContext(c), currentActor(c), c.Query("student_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("pagos_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
