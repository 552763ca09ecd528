// Package accessors exposes live, ordered views of the record store
// collections with a loading/data/error contract.
package accessors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
)

// Result is the state of a collection accessor. Data is nil until the first
// snapshot arrives and non-nil afterwards.
type Result[T any] struct {
	Data      []T   `json:"data"`
	IsLoading bool  `json:"is_loading"`
	Err       error `json:"-"`
}

// Loaded reports whether data has arrived at least once.
func (r Result[T]) Loaded() bool {
	return r.Data != nil
}

// Accessor owns one collection subscription and republishes its snapshots as
// Results. It is hot: every observer sees the same state.
type Accessor[T any] struct {
	state  *live.Value[Result[T]]
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

var _ live.Observable[Result[int]] = (*Accessor[int])(nil)

// Open subscribes to store with q. transform, when set, is applied to every
// successful snapshot.
func Open[T any](ctx context.Context, store repositories.CollectionStore[T], q repositories.Query, transform func([]T) []T, logger *slog.Logger) (*Accessor[T], error) {
	ctx, cancel := context.WithCancel(ctx)
	snapshots, err := store.Subscribe(ctx, q)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open %s accessor: %w", store.Name(), err)
	}

	a := &Accessor[T]{
		state:  live.NewValue(Result[T]{IsLoading: true}),
		name:   store.Name(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(a.done)
		for snap := range snapshots {
			if snap.Err != nil {
				logger.Error("Accessor snapshot failed", "collection", a.name, "error", snap.Err)
				a.state.Update(func(prev Result[T]) Result[T] {
					return Result[T]{Data: prev.Data, Err: snap.Err}
				})
				continue
			}

			docs := snap.Docs
			if docs == nil {
				docs = []T{}
			}
			if transform != nil {
				docs = transform(docs)
			}
			a.state.Set(Result[T]{Data: docs})
		}
	}()

	return a, nil
}

func (a *Accessor[T]) Name() string {
	return a.name
}

func (a *Accessor[T]) Current() Result[T] {
	return a.state.Current()
}

func (a *Accessor[T]) Observe(fn func(Result[T])) func() {
	return a.state.Observe(fn)
}

// Close tears the subscription down and waits for the pump to stop.
func (a *Accessor[T]) Close() {
	a.cancel()
	<-a.done
}

// DocumentResult is the state of a single-document accessor.
type DocumentResult[T any] struct {
	Data      *T    `json:"data"`
	Exists    bool  `json:"exists"`
	IsLoading bool  `json:"is_loading"`
	Err       error `json:"-"`
}

// DocumentAccessor follows one document.
type DocumentAccessor[T any] struct {
	state  *live.Value[DocumentResult[T]]
	cancel context.CancelFunc
	done   chan struct{}
}

func OpenDocument[T any](ctx context.Context, store repositories.CollectionStore[T], id string, logger *slog.Logger) (*DocumentAccessor[T], error) {
	ctx, cancel := context.WithCancel(ctx)
	snapshots, err := store.SubscribeDocument(ctx, id)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open %s/%s accessor: %w", store.Name(), id, err)
	}

	a := &DocumentAccessor[T]{
		state:  live.NewValue(DocumentResult[T]{IsLoading: true}),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(a.done)
		for snap := range snapshots {
			if snap.Err != nil {
				logger.Error("Document accessor snapshot failed", "collection", store.Name(), "id", id, "error", snap.Err)
				a.state.Update(func(prev DocumentResult[T]) DocumentResult[T] {
					return DocumentResult[T]{Data: prev.Data, Exists: prev.Exists, Err: snap.Err}
				})
				continue
			}
			a.state.Set(DocumentResult[T]{Data: snap.Doc, Exists: snap.Exists})
		}
	}()

	return a, nil
}

func (a *DocumentAccessor[T]) Current() DocumentResult[T] {
	return a.state.Current()
}

func (a *DocumentAccessor[T]) Observe(fn func(DocumentResult[T])) func() {
	return a.state.Observe(fn)
}

func (a *DocumentAccessor[T]) Close() {
	a.cancel()
	<-a.done
}

// WaitLoaded blocks until obs leaves the loading state or ctx is done.
func WaitLoaded[T any](ctx context.Context, obs live.Observable[Result[T]]) (Result[T], error) {
	ready := make(chan Result[T], 1)
	cancel := obs.Observe(func(r Result[T]) {
		if r.IsLoading {
			return
		}
		select {
		case ready <- r:
		default:
		}
	})
	defer cancel()

	select {
	case r := <-ready:
		return r, nil
	case <-ctx.Done():
		return Result[T]{IsLoading: true}, ctx.Err()
	}
}
