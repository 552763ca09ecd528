package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
	"github.com/SAP-F-2025/school-admin-service/internal/validator"
)

// SettingsService reads and edits the school settings singleton.
type SettingsService struct {
	store     repositories.CollectionStore[models.SchoolSettings]
	current   live.Observable[accessors.DocumentResult[models.SchoolSettings]]
	validator *validator.Validator
	publisher events.EventPublisher
	logger    *ServiceLogger
}

func NewSettingsService(
	store repositories.CollectionStore[models.SchoolSettings],
	current live.Observable[accessors.DocumentResult[models.SchoolSettings]],
	v *validator.Validator,
	publisher events.EventPublisher,
	logger *slog.Logger,
) *SettingsService {
	return &SettingsService{
		store:     store,
		current:   current,
		validator: v,
		publisher: publisher,
		logger:    NewServiceLogger(logger, LogConfig{Service: "school-admin-service", Component: "settings"}),
	}
}

// Get returns the settings. A school that never saved any gets an empty
// document.
func (s *SettingsService) Get(ctx context.Context) (*models.SchoolSettings, error) {
	result := s.current.Current()
	switch {
	case result.Err != nil:
		return nil, result.Err
	case result.IsLoading:
		return nil, ErrDataLoading
	case !result.Exists:
		empty := models.SchoolSettings{}
		empty.ID = models.SettingsDocumentID
		return &empty, nil
	}
	settings := *result.Data
	return &settings, nil
}

// Update merges the non-zero fields of patch into the stored settings.
func (s *SettingsService) Update(ctx context.Context, actor Actor, patch models.SchoolSettings) (*models.SchoolSettings, error) {
	op := s.logger.WithOperation(ctx, "update_settings", actor.UID)

	updated, err := s.update(ctx, actor, patch)
	op.LogResult(models.SettingsDocumentID, models.CollectionSettings, err)
	if err != nil {
		return nil, err
	}

	op.LogAudit(AuditEventUpdate, models.SettingsDocumentID, models.CollectionSettings, nil, updated)
	if s.publisher != nil {
		event := events.NewRecordEvent(events.EventSettingsUpdated, actor.UID, models.CollectionSettings, models.SettingsDocumentID)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.logger.Warn("Failed to publish settings event", "error", err)
		}
	}
	return updated, nil
}

func (s *SettingsService) update(ctx context.Context, actor Actor, patch models.SchoolSettings) (*models.SchoolSettings, error) {
	if err := requireManager(ctx, s.logger, actor, models.CollectionSettings, models.SettingsDocumentID, "update_settings"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(&patch); err != nil {
		return nil, err
	}
	patch.ID = models.SettingsDocumentID
	if err := s.store.Set(ctx, &patch, true); err != nil {
		return nil, err
	}
	return &patch, nil
}
