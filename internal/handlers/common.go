package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/services"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse wraps collection results.
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}

const loadingMessage = "data is loading"

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) requestFields(c *gin.Context) []interface{} {
	fields := []interface{}{
		"request_id", c.GetHeader(utils.RequestIDHeader),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	if actor, ok := actorFrom(c); ok {
		fields = append(fields, "user_id", actor.UID)
	}
	return fields
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	h.logger.Info(message, append(h.requestFields(c), additionalFields...)...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	h.logger.LogError(err, message, append(h.requestFields(c), additionalFields...)...)
}

// RespondWithError sends a consistent error response
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, details ...interface{}) {
	resp := ErrorResponse{Message: message}
	if len(details) > 0 {
		resp.Details = details[0]
	}
	c.JSON(statusCode, resp)
}

// RespondWithSuccess sends a consistent success response
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{Message: message, Data: data})
}

// serviceContext carries request metadata into the service layer.
func serviceContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	ctx = context.WithValue(ctx, services.ContextRequestID, c.GetHeader(utils.RequestIDHeader))
	ctx = context.WithValue(ctx, services.ContextClientIP, c.ClientIP())
	ctx = context.WithValue(ctx, services.ContextUserAgent, c.Request.UserAgent())
	return ctx
}

// respondResult renders a live accessor result: 503 while loading, 500 with
// the accessor's message on error.
func respondResult[T any](h *BaseHandler, c *gin.Context, name string, r accessors.Result[T]) {
	switch {
	case r.Err != nil:
		h.LogError(c, r.Err, "Live view failed", "view", name)
		h.RespondWithError(c, http.StatusInternalServerError, "failed to load "+name, r.Err.Error())
	case r.Data == nil:
		h.RespondWithError(c, http.StatusServiceUnavailable, loadingMessage)
	default:
		c.JSON(http.StatusOK, ListResponse{Data: r.Data, Total: len(r.Data)})
	}
}

// kindStatus maps service error kinds to HTTP status and message.
var kindStatus = map[services.ErrorKind]struct {
	status  int
	message string
}{
	services.KindLoading:      {http.StatusServiceUnavailable, loadingMessage},
	services.KindNotFound:     {http.StatusNotFound, ""},
	services.KindValidation:   {http.StatusBadRequest, "Validation failed"},
	services.KindBusinessRule: {http.StatusUnprocessableEntity, ""},
	services.KindUnauthorized: {http.StatusUnauthorized, "Unauthorized access"},
	services.KindForbidden:    {http.StatusForbidden, "Access denied"},
	services.KindConflict:     {http.StatusConflict, "Resource conflict"},
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	kind := services.Classify(err)
	mapped, ok := kindStatus[kind]
	if !ok {
		h.LogError(c, err, "Unexpected service error")
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	var (
		validationErrors services.ValidationErrors
		businessRule     *services.BusinessRuleError
		permission       *services.PermissionError
	)
	switch {
	case errors.As(err, &validationErrors):
		h.RespondWithError(c, mapped.status, mapped.message, validationErrors)
	case errors.As(err, &businessRule):
		h.RespondWithError(c, mapped.status, businessRule.Message, map[string]interface{}{
			"rule":    businessRule.Rule,
			"context": businessRule.Context,
		})
	case errors.As(err, &permission):
		h.RespondWithError(c, mapped.status, mapped.message, map[string]interface{}{
			"resource": permission.Resource,
			"action":   permission.Action,
			"reason":   permission.Reason,
		})
	case mapped.message == "":
		h.RespondWithError(c, mapped.status, err.Error())
	case kind == services.KindValidation || kind == services.KindConflict:
		h.RespondWithError(c, mapped.status, mapped.message, err.Error())
	default:
		h.RespondWithError(c, mapped.status, mapped.message)
	}
}
