package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/craftyclassroom/classroom-api/internal/models"
	"github.com/craftyclassroom/classroom-api/internal/repository"
	appErrors "github.com/craftyclassroom/classroom-api/pkg/errors"
)

var errStoreDown = errors.New("connection reset by peer")

// countingCollection wraps a collection and counts list calls.
type countingCollection[T any] struct {
	repository.Collection[T]
	lists int
}

func (c *countingCollection[T]) List(ctx context.Context, q repository.Query) ([]T, error) {
	c.lists++
	return c.Collection.List(ctx, q)
}

// failingCollection fails every operation with err.
type failingCollection[T any] struct {
	err error
}

func (f failingCollection[T]) List(context.Context, repository.Query) ([]T, error) {
	return nil, f.err
}

func (f failingCollection[T]) FindByID(context.Context, string) (*T, error) {
	return nil, f.err
}

func (f failingCollection[T]) Insert(context.Context, *T) (*models.InsertResult, error) {
	return nil, f.err
}

func (f failingCollection[T]) UpdateByID(context.Context, string, map[string]interface{}, bool) (*models.UpdateResult, error) {
	return nil, f.err
}

func (f failingCollection[T]) DeleteByID(context.Context, string) (*models.DeleteResult, error) {
	return nil, f.err
}

// memoryCacheRepo is a CacheRepository backed by a map of raw values.
type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string]interface{}
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string]interface{})}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *[]models.User:
		*d = value.([]models.User)
	case *[]models.Class:
		*d = value.([]models.Class)
	default:
		return errors.New("unsupported cache type")
	}
	return nil
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memoryCacheRepo) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string { return &v }

func errorCode(err error) string {
	if appErr := appErrors.FromError(err); appErr != nil {
		return appErr.Code
	}
	return ""
}

func errorStatus(err error) int {
	if appErr := appErrors.FromError(err); appErr != nil {
		return appErr.Status
	}
	return 0
}
