package fixtures

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/zoobzio/aspect"
)

// ErrNotFound is returned for unknown ids.
var ErrNotFound = errors.New("not found")

// Repository is a generic contract.
type Repository[T any] interface {
	Get(ctx context.Context, id string) (T, error)
	Put(ctx context.Context, id string, v T) error
	All() []T
	Load(ctx context.Context, id string) *aspect.Future[T]
}

// User is a sample entity.
type User struct {
	ID    string `json:"id" yaml:"id" xml:"id" bson:"id" msgpack:"id"`
	Name  string `json:"name" yaml:"name" xml:"name" bson:"name" msgpack:"name"`
	Email string `json:"email" yaml:"email" xml:"email" bson:"email" msgpack:"email"`
}

// MemoryRepository is an in-memory Repository.
type MemoryRepository[T any] struct {
	Logger *slog.Logger `aspect:"inject,optional"`

	mu    sync.RWMutex
	items map[string]T
	order []string
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository[T any]() *MemoryRepository[T] {
	return &MemoryRepository[T]{items: make(map[string]T)}
}

func (r *MemoryRepository[T]) Get(_ context.Context, id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return v, nil
}

func (r *MemoryRepository[T]) Put(_ context.Context, id string, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = make(map[string]T)
	}
	if _, ok := r.items[id]; !ok {
		r.order = append(r.order, id)
	}
	r.items[id] = v
	if r.Logger != nil {
		r.Logger.Debug("repository put", "id", id)
	}
	return nil
}

func (r *MemoryRepository[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.order))
	for _, id := range slices.Clone(r.order) {
		out = append(out, r.items[id])
	}
	return out
}

func (r *MemoryRepository[T]) Load(ctx context.Context, id string) *aspect.Future[T] {
	return aspect.Go(ctx, func(ctx context.Context) (T, error) {
		return r.Get(ctx, id)
	})
}
