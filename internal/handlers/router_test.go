package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/auth"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/preferences"
	"github.com/SAP-F-2025/school-admin-service/internal/services"
	"github.com/SAP-F-2025/school-admin-service/internal/testutil"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/SAP-F-2025/school-admin-service/internal/views"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	s := setup(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(utils.RequestIDHeader))
}

func TestAuth_TokenRequired(t *testing.T) {
	s := setup(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/students", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/students", "garbage", nil).Code)
}

func TestAuth_SignInMeAndSignOut(t *testing.T) {
	s := setup(t)
	s.signIn(t, "T-admin", models.RoleDirector)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/sign-in", "", SignInRequest{Email: "T-admin@colegio.test", Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := decode[auth.Session](t, rec)
	require.NotEmpty(t, session.Token)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", session.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[CurrentUserResponse](t, rec)
	assert.Equal(t, "T-admin", me.Principal.UID)
	assert.True(t, me.TeacherFound)
	assert.True(t, me.CanManage)
	assert.Equal(t, models.RoleDirector, me.Role)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, "/api/v1/auth/sign-out", session.Token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/auth/me", session.Token, nil).Code)
}

func TestAuth_WrongPassword(t *testing.T) {
	s := setup(t)
	s.signIn(t, "T-admin", models.RoleDirector)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/sign-in", "", SignInRequest{Email: "T-admin@colegio.test", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_PrincipalWithoutTeacher(t *testing.T) {
	s := setup(t)
	_, err := s.provider.CreatePrincipal(context.Background(), auth.NewPrincipal{UID: "P-1", Email: "p1@colegio.test", Password: testPassword})
	require.NoError(t, err)
	session, err := s.provider.SignIn(context.Background(), "p1@colegio.test", testPassword)
	require.NoError(t, err)

	me := decode[CurrentUserResponse](t, s.do(t, http.MethodGet, "/api/v1/auth/me", session.Token, nil))
	assert.False(t, me.TeacherFound)
	assert.False(t, me.CanManage)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/users", session.Token, nil).Code)
}

func TestManagementRoutes_Forbidden(t *testing.T) {
	s := setup(t)
	token := s.signIn(t, "T-plain", models.RoleTeacher)

	for _, path := range []string{"/api/v1/users", "/api/v1/payments", "/api/v1/payments/export"} {
		assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, path, token, nil).Code, path)
	}
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPatch, "/api/v1/settings", token, models.SchoolSettings{Name: "x"}).Code)
}

func TestRequireManagementRole_LoadingIsUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	teachers := live.NewValue(accessors.Result[models.Teacher]{IsLoading: true})

	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		c.Set(contextActor, services.Actor{UID: "T1"})
		c.Next()
	}, RequireManagementRole(teachers), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	teachers.Set(accessors.Result[models.Teacher]{Data: []models.Teacher{}})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListFromLoadingView(t *testing.T) {
	gin.SetMode(gin.TestMode)
	students := live.NewValue(accessors.Result[views.StudentView]{IsLoading: true})
	h := &StudentHandler{
		RecordHandler: &RecordHandler[models.Student, *models.Student]{BaseHandler: NewBaseHandler(utils.NewSlogLogger(testutil.Logger()))},
		students:      students,
	}

	serve := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/students", nil)
		h.ListStudents(c)
		return rec
	}

	assert.Equal(t, http.StatusServiceUnavailable, serve().Code)

	students.Set(accessors.Result[views.StudentView]{Err: assert.AnError})
	rec := serve()
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to load students")

	students.Set(accessors.Result[views.StudentView]{Data: []views.StudentView{}})
	rec = serve()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"total":0}`, rec.Body.String())
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := NewEngine([]string{"https://admin.colegio.test"}, utils.NewSlogLogger(testutil.Logger()))
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://admin.colegio.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "https://admin.colegio.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWidgets_ReadAndWrite(t *testing.T) {
	s := setup(t)
	token := s.signIn(t, "T-plain", models.RoleTeacher)

	cfg := decode[preferences.WidgetConfig](t, s.do(t, http.MethodGet, "/api/v1/dashboard/widgets", token, nil))
	assert.Equal(t, preferences.DefaultWidgetConfig(), cfg)

	hidden := preferences.WidgetConfig{KPICards: true}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/v1/dashboard/widgets", token, hidden).Code)

	cfg = decode[preferences.WidgetConfig](t, s.do(t, http.MethodGet, "/api/v1/dashboard/widgets", token, nil))
	assert.Equal(t, hidden, cfg)
}

func TestDashboardSummary(t *testing.T) {
	s := setup(t)
	token := s.signIn(t, "T-admin", models.RoleDirector)

	student := testutil.Student("S1", "Ana", "Lopez")
	require.NoError(t, s.stores.Students.Set(context.Background(), &student, false))
	s.waitForStudents(t, 1)

	require.Eventually(t, func() bool {
		rec := s.do(t, http.MethodGet, "/api/v1/dashboard/summary", token, nil)
		return rec.Code == http.StatusOK && strings.Contains(rec.Body.String(), `"total_students":1`)
	}, 2*time.Second, 20*time.Millisecond)
}
