package accessors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories/postgres"
)

// Registry holds the hot accessors the service keeps open for its lifetime.
type Registry struct {
	Students *Accessor[models.Student]
	Parents  *Accessor[models.Parent]
	Teachers *Accessor[models.Teacher]
	Courses  *Accessor[models.Course]
	Settings *DocumentAccessor[models.SchoolSettings]

	closers []func()
}

// OpenRegistry opens every shared accessor. On failure the ones already
// opened are closed again.
func OpenRegistry(ctx context.Context, stores *postgres.Stores, logger *slog.Logger) (*Registry, error) {
	r := &Registry{}
	var err error

	if r.Students, err = Students(ctx, stores.Students, logger); err != nil {
		return nil, r.abort(err)
	}
	r.closers = append(r.closers, r.Students.Close)

	if r.Parents, err = Parents(ctx, stores.Parents, logger); err != nil {
		return nil, r.abort(err)
	}
	r.closers = append(r.closers, r.Parents.Close)

	if r.Teachers, err = Teachers(ctx, stores.Teachers, logger); err != nil {
		return nil, r.abort(err)
	}
	r.closers = append(r.closers, r.Teachers.Close)

	if r.Courses, err = Courses(ctx, stores.Courses, logger); err != nil {
		return nil, r.abort(err)
	}
	r.closers = append(r.closers, r.Courses.Close)

	if r.Settings, err = Settings(ctx, stores.Settings, logger); err != nil {
		return nil, r.abort(err)
	}
	r.closers = append(r.closers, r.Settings.Close)

	logger.Info("Accessors opened", "count", len(r.closers))
	return r, nil
}

func (r *Registry) abort(err error) error {
	r.Close()
	return errors.Join(errors.New("failed to open accessor registry"), err)
}

// Close tears down every accessor in reverse opening order.
func (r *Registry) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}
