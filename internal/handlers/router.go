package handlers

import (
	"net/http"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/auth"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/preferences"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
	"github.com/SAP-F-2025/school-admin-service/internal/services"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/SAP-F-2025/school-admin-service/internal/views"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Streams are the hot views the API answers list requests from.
type Streams struct {
	Students live.Observable[accessors.Result[views.StudentView]]
	Parents  live.Observable[accessors.Result[models.Parent]]
	Teachers live.Observable[accessors.Result[models.Teacher]]
	Courses  live.Observable[accessors.Result[views.CourseView]]
	Users    live.Observable[accessors.Result[views.User]]
	Settings live.Observable[accessors.DocumentResult[models.SchoolSettings]]
	Widgets  *preferences.Widgets
}

// Services are the application services behind the handlers.
type Services struct {
	Records   *services.Records
	Users     *services.UserService
	Billing   *services.BillingService
	Settings  *services.SettingsService
	Dashboard *services.DashboardService
}

type HandlerManager struct {
	streams  Streams
	provider auth.Provider
	logger   utils.Logger

	authHandler        *AuthHandler
	studentHandler     *StudentHandler
	parentHandler      *RecordHandler[models.Parent, *models.Parent]
	teacherHandler     *RecordHandler[models.Teacher, *models.Teacher]
	courseHandler      *RecordHandler[models.Course, *models.Course]
	achievementHandler *RecordHandler[models.Achievement, *models.Achievement]
	gradeHandler       *RecordHandler[models.GradeEntry, *models.GradeEntry]
	behaviorHandler    *RecordHandler[models.BehaviorLog, *models.BehaviorLog]
	userHandler        *UserHandler
	paymentHandler     *PaymentHandler
	settingsHandler    *SettingsHandler
	dashboardHandler   *DashboardHandler
	liveHandler        *LiveHandler
}

func NewHandlerManager(svc Services, streams Streams, provider auth.Provider, allowedOrigins []string, logger utils.Logger) *HandlerManager {
	hm := &HandlerManager{
		streams:  streams,
		provider: provider,
		logger:   logger,

		authHandler:      NewAuthHandler(provider, logger),
		studentHandler:   NewStudentHandler(svc.Records.Students, streams.Students, logger),
		userHandler:      NewUserHandler(svc.Users, logger),
		paymentHandler:   NewPaymentHandler(svc.Billing, logger),
		settingsHandler:  NewSettingsHandler(svc.Settings, logger),
		dashboardHandler: NewDashboardHandler(svc.Dashboard, logger),
	}

	hm.parentHandler = NewRecordHandler(svc.Records.Parents, logger)
	hm.parentHandler.WithLiveList(func(c *gin.Context) {
		respondResult(&hm.parentHandler.BaseHandler, c, "parents", streams.Parents.Current())
	})

	hm.teacherHandler = NewRecordHandler(svc.Records.Teachers, logger)
	hm.teacherHandler.WithLiveList(func(c *gin.Context) {
		respondResult(&hm.teacherHandler.BaseHandler, c, "teachers", streams.Teachers.Current())
	})

	hm.courseHandler = NewRecordHandler(svc.Records.Courses, logger)
	hm.courseHandler.WithLiveList(func(c *gin.Context) {
		respondResult(&hm.courseHandler.BaseHandler, c, "courses", streams.Courses.Current())
	})

	hm.achievementHandler = NewRecordHandler(svc.Records.Achievements, logger).
		WithQuery(queryBy("course_id", accessors.AchievementsQuery))
	hm.gradeHandler = NewRecordHandler(svc.Records.Grades, logger).
		WithQuery(queryBy("student_id", accessors.GradesQuery))
	hm.behaviorHandler = NewRecordHandler(svc.Records.BehaviorLogs, logger).
		WithQuery(queryBy("student_id", accessors.BehaviorLogsQuery))

	hm.liveHandler = NewLiveHandler(allowedOrigins, logger).
		Add(models.CollectionStudents, ResultSource(models.CollectionStudents, streams.Students)).
		Add(models.CollectionParents, ResultSource(models.CollectionParents, streams.Parents)).
		Add(models.CollectionTeachers, ResultSource(models.CollectionTeachers, streams.Teachers)).
		Add(models.CollectionCourses, ResultSource(models.CollectionCourses, streams.Courses)).
		Add(models.CollectionSettings, DocumentSource(models.CollectionSettings, streams.Settings)).
		Add(preferences.WidgetsKey, WidgetSource(preferences.WidgetsKey, streams.Widgets)).
		AddManaged("users", ResultSource("users", streams.Users))

	return hm
}

// queryBy maps a required query parameter onto a store query.
func queryBy(param string, build func(string) repositories.Query) func(c *gin.Context) (repositories.Query, bool) {
	return func(c *gin.Context) (repositories.Query, bool) {
		value, ok := requireQuery(c, param)
		if !ok {
			return repositories.Query{}, false
		}
		return build(value), true
	}
}

// NewEngine builds the gin engine with the shared middleware stack.
func NewEngine(allowedOrigins []string, logger utils.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.RequestID())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(cors.New(corsConfig(allowedOrigins)))
	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", utils.RequestIDHeader},
		ExposeHeaders:    []string{utils.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowCredentials = false
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = allowedOrigins
	return cfg
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/sign-in", hm.authHandler.SignIn)

	authed := v1.Group("")
	authed.Use(AuthMiddleware(hm.provider, hm.streams.Teachers, hm.logger))
	{
		authed.POST("/auth/sign-out", hm.authHandler.SignOut)
		authed.GET("/auth/me", hm.authHandler.Me)

		hm.studentHandler.Register(authed.Group("/students"))
		hm.parentHandler.Register(authed.Group("/parents"))
		hm.teacherHandler.Register(authed.Group("/teachers"))
		hm.courseHandler.Register(authed.Group("/courses"))
		hm.achievementHandler.Register(authed.Group("/achievements"))
		hm.gradeHandler.Register(authed.Group("/grades"))
		hm.behaviorHandler.Register(authed.Group("/behavior-logs"))

		authed.GET("/settings", hm.settingsHandler.Get)

		dashboard := authed.Group("/dashboard")
		{
			dashboard.GET("/summary", hm.dashboardHandler.Summary)
			dashboard.GET("/widgets", hm.dashboardHandler.Widgets)
			dashboard.PUT("/widgets", hm.dashboardHandler.SetWidgets)
		}

		authed.GET("/live/:stream", hm.liveHandler.Stream)

		managed := authed.Group("")
		managed.Use(RequireManagementRole(hm.streams.Teachers))
		{
			managed.PATCH("/settings", hm.settingsHandler.Update)
			managed.PUT("/settings", hm.settingsHandler.Update)

			hm.userHandler.Register(managed.Group("/users"))
			hm.paymentHandler.Register(managed.Group("/payments"))
		}
	}
}

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "school-admin-service",
	})
}
