package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidQuery     = errors.New("invalid query")
)

// IsNotFoundError reports whether err means the requested document is absent.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrDocumentNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== QUERY MODEL =====

type FilterOp string

const (
	OpEqual FilterOp = "=="
	OpIn    FilterOp = "in"
)

type Filter struct {
	Field string      `json:"field"`
	Op    FilterOp    `json:"op"`
	Value interface{} `json:"value"`
}

type OrderBy struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Query selects and orders documents of one collection.
type Query struct {
	Where   []Filter  `json:"where"`
	OrderBy []OrderBy `json:"order_by"`
}

func Where(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

func Asc(field string) OrderBy {
	return OrderBy{Field: field}
}

func Desc(field string) OrderBy {
	return OrderBy{Field: field, Desc: true}
}

// ===== SNAPSHOTS =====

// Snapshot is one emission of a collection subscription.
type Snapshot[T any] struct {
	Docs []T
	Err  error
}

// DocumentSnapshot is one emission of a single-document subscription.
type DocumentSnapshot[T any] struct {
	Doc    *T
	Exists bool
	Err    error
}

// ===== CHANGES =====

type ChangeOp string

const (
	ChangeSet    ChangeOp = "set"
	ChangeUpdate ChangeOp = "update"
	ChangeDelete ChangeOp = "delete"
)

// Change describes one write to a collection.
type Change struct {
	Collection string    `json:"collection"`
	Op         ChangeOp  `json:"op"`
	ID         string    `json:"id"`
	At         time.Time `json:"at"`
}

// ===== STORE CONTRACT =====

// CollectionStore is the read/write/subscribe surface of one collection.
type CollectionStore[T any] interface {
	Name() string
	List(ctx context.Context, q Query) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Set(ctx context.Context, doc *T, merge bool) error
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, q Query) (<-chan Snapshot[T], error)
	SubscribeDocument(ctx context.Context, id string) (<-chan DocumentSnapshot[T], error)
}
