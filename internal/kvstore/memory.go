package kvstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store.
type Memory struct {
	mu          sync.Mutex
	values      map[string][]byte
	subscribers map[string]map[chan []byte]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		values:      make(map[string][]byte),
		subscribers: make(map[string]map[chan []byte]struct{}),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	stored := append([]byte(nil), value...)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = stored
	for ch := range m.subscribers[key] {
		// Latest value wins for slow subscribers.
		select {
		case <-ch:
		default:
		}
		ch <- append([]byte(nil), stored...)
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, key string) (<-chan []byte, error) {
	ch := make(chan []byte, 1)

	m.mu.Lock()
	if m.subscribers[key] == nil {
		m.subscribers[key] = make(map[chan []byte]struct{})
	}
	m.subscribers[key][ch] = struct{}{}
	m.mu.Unlock()

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer func() {
			m.mu.Lock()
			delete(m.subscribers[key], ch)
			m.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case value := <-ch:
				select {
				case out <- value:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
