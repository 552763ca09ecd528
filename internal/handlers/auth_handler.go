package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/school-admin-service/internal/auth"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CurrentUserResponse is the signed-in principal with its resolved staff record.
type CurrentUserResponse struct {
	Principal    *auth.Principal  `json:"principal"`
	Teacher      *models.Teacher  `json:"teacher,omitempty"`
	Role         models.StaffRole `json:"role,omitempty"`
	CanManage    bool             `json:"can_manage"`
	TeacherFound bool             `json:"teacher_found"`
}

type AuthHandler struct {
	BaseHandler
	provider auth.Provider
}

func NewAuthHandler(provider auth.Provider, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		provider:    provider,
	}
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.provider.SignIn(serviceContext(c), req.Email, req.Password)
	if err != nil {
		h.LogError(c, err, "Sign-in failed", "email", req.Email)
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "User signed in", "uid", session.Principal.UID)
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	token, _ := c.Get(contextToken)
	tokenString, _ := token.(string)

	if err := h.provider.SignOut(serviceContext(c), tokenString); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me reports who is signed in and whether they have management rights.
func (h *AuthHandler) Me(c *gin.Context) {
	value, ok := c.Get(contextPrincipal)
	if !ok {
		h.RespondWithError(c, http.StatusUnauthorized, "Not signed in")
		return
	}

	actor := currentActor(c)
	resp := CurrentUserResponse{
		Principal: value.(*auth.Principal),
		Role:      actor.Role,
		CanManage: actor.CanManage(),
	}
	if teacher, ok := c.Get(contextTeacher); ok {
		resp.Teacher = teacher.(*models.Teacher)
		resp.TeacherFound = true
	}
	c.JSON(http.StatusOK, resp)
}
