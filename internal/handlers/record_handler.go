package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
	"github.com/SAP-F-2025/school-admin-service/internal/services"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// RecordHandler serves CRUD for one record collection.
type RecordHandler[T any, PT interface {
	*T
	models.Document
}] struct {
	BaseHandler
	service *services.RecordService[T, PT]
	// list answers GET on the collection; nil falls back to the store.
	list func(c *gin.Context)
	// query builds the store query for GET on the collection.
	query func(c *gin.Context) (repositories.Query, bool)
}

func NewRecordHandler[T any, PT interface {
	*T
	models.Document
}](service *services.RecordService[T, PT], logger utils.Logger) *RecordHandler[T, PT] {
	return &RecordHandler[T, PT]{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// WithLiveList answers list requests from a hot view.
func (h *RecordHandler[T, PT]) WithLiveList(list func(c *gin.Context)) *RecordHandler[T, PT] {
	h.list = list
	return h
}

// WithQuery sets how list requests map onto a store query.
func (h *RecordHandler[T, PT]) WithQuery(query func(c *gin.Context) (repositories.Query, bool)) *RecordHandler[T, PT] {
	h.query = query
	return h
}

func (h *RecordHandler[T, PT]) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Replace)
	group.PATCH("/:id", h.Patch)
	group.DELETE("/:id", h.Delete)
}

func (h *RecordHandler[T, PT]) List(c *gin.Context) {
	if h.list != nil {
		h.list(c)
		return
	}

	q := repositories.Query{}
	if h.query != nil {
		var ok bool
		if q, ok = h.query(c); !ok {
			return
		}
	}

	docs, err := h.service.List(serviceContext(c), q)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: docs, Total: len(docs)})
}

func (h *RecordHandler[T, PT]) Get(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	doc, err := h.service.Get(serviceContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *RecordHandler[T, PT]) Create(c *gin.Context) {
	var doc T
	if !bindJSON(c, &doc) {
		return
	}

	h.LogRequest(c, "Creating record", "collection", h.service.Collection())
	created, err := h.service.Create(serviceContext(c), currentActor(c), &doc)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Replace overwrites the whole record (PUT).
func (h *RecordHandler[T, PT]) Replace(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var doc T
	if !bindJSON(c, &doc) {
		return
	}

	updated, err := h.service.Replace(serviceContext(c), currentActor(c), id, &doc)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Patch merges the JSON body into the record (PATCH).
func (h *RecordHandler[T, PT]) Patch(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	body, ok := readBody(c)
	if !ok {
		return
	}

	updated, err := h.service.Patch(serviceContext(c), currentActor(c), id, body)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *RecordHandler[T, PT]) Delete(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting record", "collection", h.service.Collection(), "id", id)
	if err := h.service.Delete(serviceContext(c), currentActor(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// requireQuery reads a mandatory query parameter.
func requireQuery(c *gin.Context, name string) (string, bool) {
	value := c.Query(name)
	if value == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Missing query parameter " + name})
		return "", false
	}
	return value, true
}
