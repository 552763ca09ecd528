package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
	"github.com/SAP-F-2025/school-admin-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstManager() BootstrapManager {
	return BootstrapManager{Email: "Rectoria@Colegio.edu.co", Password: "cambiar-123", FirstName: "Rosa", LastName: "Mejia"}
}

func TestEnsureManager_CreatesDirectorOnce(t *testing.T) {
	env := newTestEnv(t)
	provider := env.localProvider(t)
	svc := newUserService(env, provider, nil)
	ctx := context.Background()

	changed, err := svc.EnsureManager(ctx, firstManager())
	require.NoError(t, err)
	assert.True(t, changed)

	session, err := provider.SignIn(ctx, "rectoria@colegio.edu.co", "cambiar-123")
	require.NoError(t, err)
	director, err := env.stores.Teachers.Get(ctx, session.Principal.UID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleDirector, director.Role)

	changed, err = svc.EnsureManager(ctx, firstManager())
	require.NoError(t, err)
	assert.False(t, changed, "a second start changes nothing")

	teachers, err := env.stores.Teachers.List(ctx, repositories.Query{})
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
	assert.Equal(t, []events.EventType{events.EventUserCreated}, env.eventTypes())
}

func TestEnsureManager_SkipsWhenManagerExists(t *testing.T) {
	env := newTestEnv(t)
	env.seedTeacher(t, testutil.Teacher("T1", "Pedro", "Alvarez", models.RoleAdministrator))
	svc := newUserService(env, env.localProvider(t), nil)

	changed, err := svc.EnsureManager(context.Background(), firstManager())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, env.eventTypes())
}

func TestEnsureManager_PromotesTeacherWithSameEmail(t *testing.T) {
	env := newTestEnv(t)
	existing := testutil.Teacher("T1", "Rosa", "Mejia", "")
	existing.Email = "rectoria@colegio.edu.co"
	env.seedTeacher(t, existing)
	svc := newUserService(env, env.localProvider(t), nil)
	ctx := context.Background()

	changed, err := svc.EnsureManager(ctx, firstManager())
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := env.stores.Teachers.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleDirector, got.Role)
}

func TestEnsureManager_RequiresPassword(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, env.localProvider(t), nil)

	m := firstManager()
	m.Password = ""
	_, err := svc.EnsureManager(context.Background(), m)
	assert.True(t, IsValidation(err))

	teachers, err := env.stores.Teachers.List(context.Background(), repositories.Query{})
	require.NoError(t, err)
	assert.Empty(t, teachers)
}
