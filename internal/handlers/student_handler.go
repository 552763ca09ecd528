package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/services"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/SAP-F-2025/school-admin-service/internal/views"
	"github.com/gin-gonic/gin"
)

// StudentHandler serves the students page: the joined student list plus
// parent linking on top of the plain record CRUD.
type StudentHandler struct {
	*RecordHandler[models.Student, *models.Student]
	service  *services.StudentService
	students live.Observable[accessors.Result[views.StudentView]]
}

func NewStudentHandler(service *services.StudentService, students live.Observable[accessors.Result[views.StudentView]], logger utils.Logger) *StudentHandler {
	h := &StudentHandler{
		RecordHandler: NewRecordHandler(service.RecordService, logger),
		service:       service,
		students:      students,
	}
	h.WithLiveList(h.ListStudents)
	return h
}

func (h *StudentHandler) Register(group *gin.RouterGroup) {
	h.RecordHandler.Register(group)
	group.POST("/:id/parents/:parentId", h.LinkParent)
	group.DELETE("/:id/parents/:parentId", h.UnlinkParent)
}

// ListStudents answers with every student joined to its parents.
func (h *StudentHandler) ListStudents(c *gin.Context) {
	respondResult(&h.BaseHandler, c, "students", h.students.Current())
}

func (h *StudentHandler) LinkParent(c *gin.Context) {
	studentID := ParseStringIDParam(c, "id")
	parentID := ParseStringIDParam(c, "parentId")
	if studentID == "" || parentID == "" {
		return
	}

	student, err := h.service.LinkParent(serviceContext(c), currentActor(c), studentID, parentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *StudentHandler) UnlinkParent(c *gin.Context) {
	studentID := ParseStringIDParam(c, "id")
	parentID := ParseStringIDParam(c, "parentId")
	if studentID == "" || parentID == "" {
		return
	}

	student, err := h.service.UnlinkParent(serviceContext(c), currentActor(c), studentID, parentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}
