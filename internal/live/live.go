// Package live holds the observer contract shared by accessors, joins and
// the ledger: a hot value that pushes every new state to its observers.
package live

import (
	"context"
	"sync"
)

// Observable is a hot stream of states. Observe calls fn with the current
// state right away and then with every later one until cancel is called.
type Observable[T any] interface {
	Current() T
	Observe(fn func(T)) (cancel func())
}

// Value is a settable Observable. Observers are called synchronously, in
// registration order, outside the state lock. Notifications are serialized:
// observers see states in the order they were stored, and the last state
// delivered is always Current.
type Value[T any] struct {
	notify    sync.Mutex
	mu        sync.Mutex
	current   T
	nextID    int
	observers map[int]func(T)
	order     []int
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{current: initial, observers: make(map[int]func(T))}
}

func (v *Value[T]) Current() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set stores state and notifies every observer.
func (v *Value[T]) Set(state T) {
	v.notify.Lock()
	defer v.notify.Unlock()

	v.mu.Lock()
	v.current = state
	fns := v.snapshotObservers()
	v.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// Update applies fn to the current state under the lock and publishes the result.
func (v *Value[T]) Update(fn func(T) T) T {
	v.notify.Lock()
	defer v.notify.Unlock()

	v.mu.Lock()
	state := fn(v.current)
	v.current = state
	fns := v.snapshotObservers()
	v.mu.Unlock()

	for _, f := range fns {
		f(state)
	}
	return state
}

func (v *Value[T]) Observe(fn func(T)) func() {
	v.notify.Lock()
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.observers[id] = fn
	v.order = append(v.order, id)
	state := v.current
	v.mu.Unlock()

	fn(state)
	v.notify.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.observers, id)
			for i, oid := range v.order {
				if oid == id {
					v.order = append(v.order[:i], v.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (v *Value[T]) snapshotObservers() []func(T) {
	fns := make([]func(T), 0, len(v.order))
	for _, id := range v.order {
		fns = append(fns, v.observers[id])
	}
	return fns
}

// Derived is an Observable computed from upstream observables. Every
// recompute reads the latest upstream states and publishes under one lock, so
// a recompute that started on older inputs can never land last.
type Derived[T any] struct {
	*Value[T]
	compute sync.Mutex
	cancels []func()
}

// Close stops following the upstream observables.
func (d *Derived[T]) Close() {
	for _, cancel := range d.cancels {
		cancel()
	}
}

func (d *Derived[T]) recompute(fn func() T) {
	d.compute.Lock()
	defer d.compute.Unlock()
	d.Set(fn())
}

// Map derives an observable that applies fn to every state of src.
func Map[A, R any](src Observable[A], fn func(A) R) *Derived[R] {
	compute := func() R { return fn(src.Current()) }
	d := &Derived[R]{Value: NewValue(compute())}
	d.cancels = append(d.cancels, src.Observe(func(A) { d.recompute(compute) }))
	return d
}

// Derive2 recomputes fn whenever either a or b emits.
func Derive2[A, B, R any](a Observable[A], b Observable[B], fn func(A, B) R) *Derived[R] {
	compute := func() R { return fn(a.Current(), b.Current()) }
	d := &Derived[R]{Value: NewValue(compute())}
	d.cancels = append(d.cancels,
		a.Observe(func(A) { d.recompute(compute) }),
		b.Observe(func(B) { d.recompute(compute) }),
	)
	return d
}

// Updates turns obs into a channel that always yields the latest state. Slow
// readers skip intermediate states. The channel closes when ctx is done.
func Updates[T any](ctx context.Context, obs Observable[T]) <-chan T {
	out := make(chan T)
	signal := make(chan struct{}, 1)

	var mu sync.Mutex
	var latest T
	cancel := obs.Observe(func(state T) {
		mu.Lock()
		latest = state
		mu.Unlock()
		select {
		case signal <- struct{}{}:
		default:
		}
	})

	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
				mu.Lock()
				state := latest
				mu.Unlock()
				select {
				case out <- state:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
