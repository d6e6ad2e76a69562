package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/craftyclassroom/classroom-api/internal/models"
)

var (
	// ErrNotFound is returned when no document matches the identifier.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID is returned for identifiers that are not 24-char hex ObjectIDs.
	ErrInvalidID = errors.New("invalid document id")
	// ErrEmptyUpdate is returned when an update carries no fields.
	ErrEmptyUpdate = errors.New("update has no fields")
)

// SortOrder is the direction of a sorted read.
type SortOrder int

const (
	Ascending  SortOrder = 1
	Descending SortOrder = -1
)

// Query describes a filtered read: field equality filter, optional field
// allow-list (the identifier is always returned), optional sort and limit.
// The zero Query lists every document in natural order.
type Query struct {
	Filter map[string]interface{}
	Fields []string
	SortBy string
	Order  SortOrder
	Limit  int64
}

// Collection is the uniform contract every resource collection satisfies.
type Collection[T any] interface {
	List(ctx context.Context, q Query) ([]T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	Insert(ctx context.Context, doc *T) (*models.InsertResult, error)
	UpdateByID(ctx context.Context, id string, fields map[string]interface{}, upsert bool) (*models.UpdateResult, error)
	DeleteByID(ctx context.Context, id string) (*models.DeleteResult, error)
}

// QueryObserver receives the duration of each store operation.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// ParseID converts a hex identifier into an ObjectID.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func projection(fields []string) bson.D {
	proj := make(bson.D, 0, len(fields))
	for _, f := range fields {
		proj = append(proj, bson.E{Key: f, Value: 1})
	}
	return proj
}

func equalityFilter(filter map[string]interface{}) bson.M {
	out := bson.M{}
	for k, v := range filter {
		out[k] = v
	}
	return out
}
