package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "payments")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "payments", []byte(`[]`)))
	value, ok, err := s.Get(ctx, "payments")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(value))
}

func TestMemory_SubscribeSeesLaterWrites(t *testing.T) {
	s := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := s.Subscribe(ctx, "dashboardWidgets")
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "other", []byte("x")))
	require.NoError(t, s.Set(context.Background(), "dashboardWidgets", []byte(`{"kpiCards":false}`)))

	select {
	case value := <-updates:
		assert.JSONEq(t, `{"kpiCards":false}`, string(value))
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-updates
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestJSONHelpers(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	type widgets struct {
		KPICards bool `json:"kpiCards"`
	}

	var got widgets
	ok, err := GetJSON(ctx, s, "w", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SetJSON(ctx, s, "w", widgets{KPICards: true}))
	ok, err = GetJSON(ctx, s, "w", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.KPICards)

	require.NoError(t, s.Set(ctx, "w", []byte("{broken")))
	_, err = GetJSON(ctx, s, "w", &got)
	assert.Error(t, err)
}
