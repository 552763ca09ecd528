package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entity constrains PT to be the pointer type of a stored document.
type Entity[T any] interface {
	*T
	models.Document
}

var fieldPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Collection is the gorm-backed record store for one collection. Every
// successful write is announced on the change feed.
type Collection[T any, PT Entity[T]] struct {
	db     *gorm.DB
	name   string
	feed   *ChangeFeed
	logger *slog.Logger
	now    func() time.Time
}

func NewCollection[T any, PT Entity[T]](db *gorm.DB, name string, feed *ChangeFeed, logger *slog.Logger) *Collection[T, PT] {
	return &Collection[T, PT]{
		db:     db,
		name:   name,
		feed:   feed,
		logger: logger.With("collection", name),
		now:    time.Now,
	}
}

var _ repositories.CollectionStore[models.Student] = (*Collection[models.Student, *models.Student])(nil)

func (c *Collection[T, PT]) Name() string {
	return c.name
}

// ===== READS =====

// List returns the documents matching q; never nil on success.
func (c *Collection[T, PT]) List(ctx context.Context, q repositories.Query) ([]T, error) {
	query, err := applyQuery(c.db.WithContext(ctx).Model(PT(new(T))), q)
	if err != nil {
		return nil, err
	}

	docs := make([]T, 0)
	if err := query.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}
	return docs, nil
}

func (c *Collection[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	var doc T
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", c.name, id, err)
	}
	return &doc, nil
}

// ===== WRITES =====

// Set creates doc, or replaces the stored document with the same id. With
// merge only the non-zero fields of doc overwrite the stored ones. doc is
// reloaded with the stored state afterwards.
func (c *Collection[T, PT]) Set(ctx context.Context, doc *T, merge bool) error {
	p := PT(doc)
	if p.DocumentID() == "" {
		p.SetDocumentID(uuid.NewString())
	}
	id := p.DocumentID()

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing T
		err := tx.Where("id = ?", id).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(doc).Error
		case err != nil:
			return err
		case merge:
			if err := tx.Model(PT(&existing)).Omit("id", "created_at").Updates(doc).Error; err != nil {
				return err
			}
		default:
			if err := tx.Model(PT(&existing)).Select("*").Omit("id", "created_at").Updates(doc).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).First(doc).Error
	})
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", c.name, id, err)
	}

	c.notify(ctx, repositories.ChangeSet, id)
	return nil
}

// Update writes the given columns of an existing document.
func (c *Collection[T, PT]) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	for field := range fields {
		if field == "id" || !fieldPattern.MatchString(field) {
			return fmt.Errorf("%w: cannot update field %q", repositories.ErrInvalidQuery, field)
		}
	}

	result := c.db.WithContext(ctx).Model(PT(new(T))).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s/%s: %w", c.name, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrDocumentNotFound
	}

	c.notify(ctx, repositories.ChangeUpdate, id)
	return nil
}

func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).Where("id = ?", id).Delete(PT(new(T)))
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", c.name, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrDocumentNotFound
	}

	c.notify(ctx, repositories.ChangeDelete, id)
	return nil
}

// notify is best effort: a lost notification only delays subscribers until
// the next change.
func (c *Collection[T, PT]) notify(ctx context.Context, op repositories.ChangeOp, id string) {
	if c.feed == nil {
		return
	}
	change := repositories.Change{Collection: c.name, Op: op, ID: id, At: c.now()}
	if err := c.feed.Notify(ctx, change); err != nil {
		c.logger.Error("Failed to announce change", "op", op, "id", id, "error", err)
	}
}

// ===== SUBSCRIPTIONS =====

// Subscribe emits the result of q immediately and again after every change to
// the collection. The channel is closed once ctx is done.
func (c *Collection[T, PT]) Subscribe(ctx context.Context, q repositories.Query) (<-chan repositories.Snapshot[T], error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	if c.feed == nil {
		return nil, fmt.Errorf("collection %s has no change feed", c.name)
	}

	changes, err := c.feed.Changes(ctx, c.name)
	if err != nil {
		return nil, err
	}

	out := make(chan repositories.Snapshot[T], 1)
	go func() {
		defer close(out)

		emit := func() bool {
			docs, err := c.List(ctx, q)
			if ctx.Err() != nil {
				return false
			}
			select {
			case out <- repositories.Snapshot[T]{Docs: docs, Err: err}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				drain(changes)
				if !emit() {
					return
				}
			}
		}
	}()

	return out, nil
}

// SubscribeDocument emits the document with id now and after each change to it.
func (c *Collection[T, PT]) SubscribeDocument(ctx context.Context, id string) (<-chan repositories.DocumentSnapshot[T], error) {
	if c.feed == nil {
		return nil, fmt.Errorf("collection %s has no change feed", c.name)
	}

	changes, err := c.feed.Changes(ctx, c.name)
	if err != nil {
		return nil, err
	}

	out := make(chan repositories.DocumentSnapshot[T], 1)
	go func() {
		defer close(out)

		emit := func() bool {
			doc, err := c.Get(ctx, id)
			if ctx.Err() != nil {
				return false
			}
			snap := repositories.DocumentSnapshot[T]{Doc: doc, Exists: doc != nil}
			if err != nil && !errors.Is(err, repositories.ErrDocumentNotFound) {
				snap.Err = err
			}
			select {
			case out <- snap:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				if change.ID != id {
					continue
				}
				if !emit() {
					return
				}
			}
		}
	}()

	return out, nil
}

// drain discards already queued changes; one re-query covers them all.
func drain(changes <-chan repositories.Change) {
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// ===== QUERY HELPERS =====

func validateQuery(q repositories.Query) error {
	for _, f := range q.Where {
		if !fieldPattern.MatchString(f.Field) {
			return fmt.Errorf("%w: field %q", repositories.ErrInvalidQuery, f.Field)
		}
		if f.Op != "" && f.Op != repositories.OpEqual && f.Op != repositories.OpIn {
			return fmt.Errorf("%w: operator %q", repositories.ErrInvalidQuery, f.Op)
		}
	}
	for _, o := range q.OrderBy {
		if !fieldPattern.MatchString(o.Field) {
			return fmt.Errorf("%w: order field %q", repositories.ErrInvalidQuery, o.Field)
		}
	}
	return nil
}

func applyQuery(db *gorm.DB, q repositories.Query) (*gorm.DB, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	for _, f := range q.Where {
		column := clause.Column{Name: f.Field}
		switch f.Op {
		case repositories.OpIn:
			values, err := inValues(f.Value)
			if err != nil {
				return nil, err
			}
			db = db.Where(clause.IN{Column: column, Values: values})
		default:
			db = db.Where(clause.Eq{Column: column, Value: f.Value})
		}
	}

	for _, o := range q.OrderBy {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Field}, Desc: o.Desc})
	}
	// Stable order for equal sort keys.
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}), nil
}

func inValues(value interface{}) ([]interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		return v, nil
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: \"in\" expects a list, got %T", repositories.ErrInvalidQuery, value)
	}
}
