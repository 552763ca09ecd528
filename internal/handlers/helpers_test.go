package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/auth"
	"github.com/SAP-F-2025/school-admin-service/internal/cache"
	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/SAP-F-2025/school-admin-service/internal/kvstore"
	"github.com/SAP-F-2025/school-admin-service/internal/ledger"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/preferences"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/school-admin-service/internal/services"
	"github.com/SAP-F-2025/school-admin-service/internal/testutil"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/SAP-F-2025/school-admin-service/internal/validator"
	"github.com/SAP-F-2025/school-admin-service/internal/views"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testPassword = "s3cret-pass"

type testServer struct {
	engine   *gin.Engine
	stores   *postgres.Stores
	registry *accessors.Registry
	provider *auth.LocalProvider
}

func setup(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	log := testutil.Logger()

	db := testutil.NewDB(t)
	stores := postgres.NewStores(db, testutil.NewFeed(t), log)

	registry, err := accessors.OpenRegistry(ctx, stores, log)
	require.NoError(t, err)
	t.Cleanup(registry.Close)
	_, err = accessors.WaitLoaded[models.Teacher](ctx, registry.Teachers)
	require.NoError(t, err)

	students := views.StudentViews(registry.Students, registry.Parents)
	courses := views.CourseViews(registry.Courses, registry.Teachers)
	users := views.Users(registry.Teachers, registry.Parents)
	t.Cleanup(func() {
		students.Close()
		courses.Close()
		users.Close()
	})

	provider, err := auth.NewLocalProvider(db, "handler-secret", time.Hour, cache.NewRevocations(cache.NewMemoryCache()), log)
	require.NoError(t, err)

	v := validator.New()
	activity := services.NewActivityFeed(events.NewMemoryPublisher(), 10)
	widgets := preferences.NewWidgets(kvstore.NewMemory(), log)
	l := ledger.New(kvstore.NewMemory(), log)
	dashboardCache := cache.NewMemoryCache()

	svc := Services{
		Records:   services.NewRecords(stores, v, activity, log),
		Users:     services.NewUserService(stores.Teachers, stores.Parents, users, provider, v, activity, log),
		Billing:   services.NewBillingService(l, stores.Students, dashboardCache, v, activity, log),
		Settings:  services.NewSettingsService(stores.Settings, registry.Settings, v, activity, log),
		Dashboard: services.NewDashboardService(services.SourcesFromRegistry(registry), l, widgets, activity, dashboardCache, log),
	}
	streams := Streams{
		Students: students,
		Parents:  registry.Parents,
		Teachers: registry.Teachers,
		Courses:  courses,
		Users:    users,
		Settings: registry.Settings,
		Widgets:  widgets,
	}

	logger := utils.NewSlogLogger(log)
	engine := NewEngine([]string{"*"}, logger)
	NewHandlerManager(svc, streams, provider, []string{"*"}, logger).SetupRoutes(engine)

	return &testServer{engine: engine, stores: stores, registry: registry, provider: provider}
}

// signIn creates a principal with a teacher record of the given role and
// returns its bearer token once the teacher is visible to the middleware.
func (s *testServer) signIn(t *testing.T, uid string, role models.StaffRole) string {
	t.Helper()
	ctx := context.Background()
	email := uid + "@colegio.test"

	_, err := s.provider.CreatePrincipal(ctx, auth.NewPrincipal{UID: uid, Email: email, Password: testPassword})
	require.NoError(t, err)

	teacher := testutil.Teacher(uid, "Nombre", "Apellido", role)
	teacher.Email = email
	require.NoError(t, s.stores.Teachers.Set(ctx, &teacher, false))
	require.Eventually(t, func() bool {
		return auth.ResolveCurrentUser(&auth.Principal{UID: uid}, s.registry.Teachers.Current().Data) != nil
	}, 2*time.Second, 5*time.Millisecond)

	session, err := s.provider.SignIn(ctx, email, testPassword)
	require.NoError(t, err)
	return session.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// listOf decodes a ListResponse whose items are of type T.
func listOf[T any](t *testing.T, rec *httptest.ResponseRecorder) []T {
	t.Helper()
	var out struct {
		Data  []T `json:"data"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	require.Equal(t, len(out.Data), out.Total)
	return out.Data
}

func (s *testServer) waitForStudents(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(s.registry.Students.Current().Data) == n
	}, 2*time.Second, 5*time.Millisecond)
}
