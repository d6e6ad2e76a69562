package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/craftyclassroom/classroom-api/internal/models"
)

// Collection names in the classroom database.
const (
	UsersCollection       = "users"
	ClassesCollection     = "classes"
	EnrollmentsCollection = "studentsData"
)

// Store groups the three resource collections. It is built once at startup
// and handed to the services.
type Store struct {
	Users       Collection[models.User]
	Classes     Collection[models.Class]
	Enrollments Collection[models.Enrollment]

	ping       func(ctx context.Context) error
	disconnect func(ctx context.Context) error
}

// NewMongoStore binds the collections of dbName on client.
func NewMongoStore(client *mongo.Client, dbName string, timeout time.Duration, observer QueryObserver) *Store {
	db := client.Database(dbName)
	return &Store{
		Users:       NewMongoCollection[models.User](db.Collection(UsersCollection), timeout, observer),
		Classes:     NewMongoCollection[models.Class](db.Collection(ClassesCollection), timeout, observer),
		Enrollments: NewMongoCollection[models.Enrollment](db.Collection(EnrollmentsCollection), timeout, observer),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		disconnect: client.Disconnect,
	}
}

// NewMemoryStore returns a store backed by process memory.
func NewMemoryStore() *Store {
	return &Store{
		Users:       NewMemoryCollection[models.User](),
		Classes:     NewMemoryCollection[models.Class](),
		Enrollments: NewMemoryCollection[models.Enrollment](),
	}
}

// Ping checks the backing store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backing connection pool.
func (s *Store) Close(ctx context.Context) error {
	if s.disconnect == nil {
		return nil
	}
	return s.disconnect(ctx)
}
