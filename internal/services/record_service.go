package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
	"github.com/SAP-F-2025/school-admin-service/internal/validator"
)

// WritePolicy vets a write before it reaches the store. existing is nil on
// create; incoming is nil on delete.
type WritePolicy[T any] func(ctx context.Context, actor Actor, existing, incoming *T) error

// RecordService is the CRUD back-end shared by the record pages.
type RecordService[T any, PT interface {
	*T
	models.Document
}] struct {
	store     repositories.CollectionStore[T]
	validator *validator.Validator
	publisher events.EventPublisher
	logger    *ServiceLogger
	policy    WritePolicy[T]
	notFound  error
}

func NewRecordService[T any, PT interface {
	*T
	models.Document
}](store repositories.CollectionStore[T], v *validator.Validator, publisher events.EventPublisher, logger *slog.Logger) *RecordService[T, PT] {
	return &RecordService[T, PT]{
		store:     store,
		validator: v,
		publisher: publisher,
		logger: NewServiceLogger(logger, LogConfig{
			Service:   "school-admin-service",
			Component: store.Name(),
		}),
		notFound: ErrNotFound,
	}
}

// WithPolicy installs a write policy.
func (s *RecordService[T, PT]) WithPolicy(policy WritePolicy[T]) *RecordService[T, PT] {
	s.policy = policy
	return s
}

// WithNotFound sets the error returned for missing records.
func (s *RecordService[T, PT]) WithNotFound(err error) *RecordService[T, PT] {
	s.notFound = err
	return s
}

func (s *RecordService[T, PT]) Collection() string {
	return s.store.Name()
}

func (s *RecordService[T, PT]) List(ctx context.Context, q repositories.Query) ([]T, error) {
	docs, err := s.store.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *RecordService[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, s.notFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *RecordService[T, PT]) Create(ctx context.Context, actor Actor, doc *T) (*T, error) {
	op := s.logger.WithOperation(ctx, "create_"+s.Collection(), actor.UID)

	created, err := s.create(ctx, actor, doc)
	id := ""
	if created != nil {
		id = PT(created).DocumentID()
	}
	op.LogResult(id, s.Collection(), err)
	if err != nil {
		return nil, err
	}

	op.LogAudit(AuditEventCreate, id, s.Collection(), nil, created)
	s.publish(ctx, events.EventRecordCreated, actor, id)
	return created, nil
}

func (s *RecordService[T, PT]) create(ctx context.Context, actor Actor, doc *T) (*T, error) {
	if err := requireSignedIn(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(doc); err != nil {
		return nil, err
	}

	if id := PT(doc).DocumentID(); id != "" {
		if _, err := s.store.Get(ctx, id); err == nil {
			return nil, fmt.Errorf("%w: %s %s already exists", ErrConflict, s.Collection(), id)
		} else if !repositories.IsNotFoundError(err) {
			return nil, err
		}
	}

	if s.policy != nil {
		if err := s.policy(ctx, actor, nil, doc); err != nil {
			return nil, err
		}
	}

	if err := s.store.Set(ctx, doc, false); err != nil {
		return nil, err
	}
	return doc, nil
}

// Replace overwrites record id with doc.
func (s *RecordService[T, PT]) Replace(ctx context.Context, actor Actor, id string, doc *T) (*T, error) {
	op := s.logger.WithOperation(ctx, "replace_"+s.Collection(), actor.UID)

	PT(doc).SetDocumentID(id)
	existing, err := s.write(ctx, actor, id, doc)
	op.LogResult(id, s.Collection(), err)
	if err != nil {
		return nil, err
	}

	op.LogAudit(AuditEventUpdate, id, s.Collection(), existing, doc)
	s.publish(ctx, events.EventRecordUpdated, actor, id)
	return doc, nil
}

// Patch applies the JSON object patch onto record id. Fields absent from the
// patch keep their stored value.
func (s *RecordService[T, PT]) Patch(ctx context.Context, actor Actor, id string, patch []byte) (*T, error) {
	op := s.logger.WithOperation(ctx, "patch_"+s.Collection(), actor.UID)

	updated, existing, err := s.patch(ctx, actor, id, patch)
	op.LogResult(id, s.Collection(), err)
	if err != nil {
		return nil, err
	}

	op.LogAudit(AuditEventUpdate, id, s.Collection(), existing, updated)
	s.publish(ctx, events.EventRecordUpdated, actor, id)
	return updated, nil
}

func (s *RecordService[T, PT]) patch(ctx context.Context, actor Actor, id string, patch []byte) (*T, *T, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	// Decode into a deep copy so current stays intact for the audit log.
	var updated T
	raw, err := json.Marshal(current)
	if err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(raw, &updated); err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(patch, &updated); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	PT(&updated).SetDocumentID(id)

	existing, err := s.write(ctx, actor, id, &updated)
	if err != nil {
		return nil, nil, err
	}
	return &updated, existing, nil
}

// write validates doc and replaces record id with it, returning the previous state.
func (s *RecordService[T, PT]) write(ctx context.Context, actor Actor, id string, doc *T) (*T, error) {
	if err := requireSignedIn(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(doc); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.policy != nil {
		if err := s.policy(ctx, actor, existing, doc); err != nil {
			return nil, err
		}
	}

	if err := s.store.Set(ctx, doc, false); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *RecordService[T, PT]) Delete(ctx context.Context, actor Actor, id string) error {
	op := s.logger.WithOperation(ctx, "delete_"+s.Collection(), actor.UID)

	existing, err := s.delete(ctx, actor, id)
	op.LogResult(id, s.Collection(), err)
	if err != nil {
		return err
	}

	op.LogAudit(AuditEventDelete, id, s.Collection(), existing, nil)
	s.publish(ctx, events.EventRecordDeleted, actor, id)
	return nil
}

func (s *RecordService[T, PT]) delete(ctx context.Context, actor Actor, id string) (*T, error) {
	if err := requireSignedIn(actor); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.policy != nil {
		if err := s.policy(ctx, actor, existing, nil); err != nil {
			return nil, err
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrDocumentNotFound) {
			return nil, s.notFound
		}
		return nil, err
	}
	return existing, nil
}

// publish is best effort; the write already happened.
func (s *RecordService[T, PT]) publish(ctx context.Context, eventType events.EventType, actor Actor, id string) {
	if s.publisher == nil {
		return
	}
	event := events.NewRecordEvent(eventType, actor.UID, s.Collection(), id)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.logger.Warn("Failed to publish record event", "type", eventType, "id", id, "error", err)
	}
}
