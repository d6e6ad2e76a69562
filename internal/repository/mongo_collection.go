package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/craftyclassroom/classroom-api/internal/models"
)

// MongoCollection implements Collection on a MongoDB collection.
type MongoCollection[T any] struct {
	coll     *mongo.Collection
	timeout  time.Duration
	observer QueryObserver
}

// NewMongoCollection wraps coll. A zero timeout leaves the caller's deadline untouched.
func NewMongoCollection[T any](coll *mongo.Collection, timeout time.Duration, observer QueryObserver) *MongoCollection[T] {
	return &MongoCollection[T]{coll: coll, timeout: timeout, observer: observer}
}

// List runs a find with the query's filter, projection, sort and limit.
func (c *MongoCollection[T]) List(ctx context.Context, q Query) ([]T, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer c.observe("find", time.Now())

	opts := options.Find()
	if len(q.Fields) > 0 {
		opts.SetProjection(projection(q.Fields))
	}
	if q.SortBy != "" {
		order := q.Order
		if order == 0 {
			order = Ascending
		}
		opts.SetSort(bson.D{{Key: q.SortBy, Value: int(order)}})
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := c.coll.Find(ctx, equalityFilter(q.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return docs, nil
}

// FindByID returns the document with the given identifier.
func (c *MongoCollection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer c.observe("find_one", time.Now())

	var doc T
	if err := c.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s by id: %w", c.coll.Name(), err)
	}
	return &doc, nil
}

// Insert stores doc; the server or driver generates the identifier.
func (c *MongoCollection[T]) Insert(ctx context.Context, doc *T) (*models.InsertResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer c.observe("insert_one", time.Now())

	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", c.coll.Name(), err)
	}
	return &models.InsertResult{Acknowledged: true, InsertedID: idString(res.InsertedID)}, nil
}

// UpdateByID overwrites only the listed fields. With upsert a missing
// document is created with the given identifier and fields.
func (c *MongoCollection[T]) UpdateByID(ctx context.Context, id string, fields map[string]interface{}, upsert bool) (*models.UpdateResult, error) {
	if len(fields) == 0 {
		return nil, ErrEmptyUpdate
	}
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer c.observe("update_one", time.Now())

	res, err := c.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M(fields)},
		options.Update().SetUpsert(upsert),
	)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", c.coll.Name(), err)
	}

	out := &models.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if res.UpsertedID != nil {
		upserted := idString(res.UpsertedID)
		out.UpsertedID = &upserted
	}
	return out, nil
}

// DeleteByID removes the document with the given identifier.
func (c *MongoCollection[T]) DeleteByID(ctx context.Context, id string) (*models.DeleteResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer c.observe("delete_one", time.Now())

	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", c.coll.Name(), err)
	}
	return &models.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (c *MongoCollection[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *MongoCollection[T]) observe(op string, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveDBQuery(c.coll.Name()+"."+op, time.Since(start))
}

func idString(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
