// Package preferences stores the dashboard widget visibility settings.
package preferences

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/SAP-F-2025/school-admin-service/internal/kvstore"
)

// WidgetsKey is the store key of the widget configuration.
const WidgetsKey = "dashboardWidgets"

// WidgetConfig toggles the dashboard widgets. The JSON shape is shared with
// the dashboard client.
type WidgetConfig struct {
	KPICards         bool `json:"kpiCards"`
	PerformanceChart bool `json:"performanceChart"`
	RecentActivity   bool `json:"recentActivity"`
}

// DefaultWidgetConfig shows every widget.
func DefaultWidgetConfig() WidgetConfig {
	return WidgetConfig{KPICards: true, PerformanceChart: true, RecentActivity: true}
}

type Widgets struct {
	store  kvstore.Store
	logger *slog.Logger
}

func NewWidgets(store kvstore.Store, logger *slog.Logger) *Widgets {
	return &Widgets{store: store, logger: logger}
}

// Get returns the stored configuration. Missing keys keep their default.
func (w *Widgets) Get(ctx context.Context) (WidgetConfig, error) {
	cfg := DefaultWidgetConfig()
	if _, err := kvstore.GetJSON(ctx, w.store, WidgetsKey, &cfg); err != nil {
		return DefaultWidgetConfig(), err
	}
	return cfg, nil
}

func (w *Widgets) Set(ctx context.Context, cfg WidgetConfig) error {
	return kvstore.SetJSON(ctx, w.store, WidgetsKey, cfg)
}

// Watch streams the configuration after every write until ctx is done.
// Undecodable writes are skipped.
func (w *Widgets) Watch(ctx context.Context) (<-chan WidgetConfig, error) {
	raw, err := w.store.Subscribe(ctx, WidgetsKey)
	if err != nil {
		return nil, err
	}

	out := make(chan WidgetConfig)
	go func() {
		defer close(out)
		for value := range raw {
			cfg := DefaultWidgetConfig()
			if err := json.Unmarshal(value, &cfg); err != nil {
				w.logger.Warn("Skipping malformed widget config", "error", err)
				continue
			}
			select {
			case out <- cfg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
