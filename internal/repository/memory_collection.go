package repository

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/craftyclassroom/classroom-api/internal/models"
)

// MemoryCollection implements Collection in process memory. Documents are
// kept in their BSON form so projections and partial updates behave as they
// do against MongoDB. Natural order is insertion order.
type MemoryCollection[T any] struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	docs  map[primitive.ObjectID]bson.M
}

// NewMemoryCollection returns an empty collection.
func NewMemoryCollection[T any]() *MemoryCollection[T] {
	return &MemoryCollection[T]{docs: make(map[primitive.ObjectID]bson.M)}
}

func (c *MemoryCollection[T]) List(ctx context.Context, q Query) ([]T, error) {
	filter, err := normalize(q.Filter)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	matched := make([]bson.M, 0, len(c.order))
	for _, id := range c.order {
		doc := c.docs[id]
		if matches(doc, filter) {
			matched = append(matched, doc)
		}
	}
	c.mu.RUnlock()

	if q.SortBy != "" {
		desc := q.Order == Descending
		sort.SliceStable(matched, func(i, j int) bool {
			cmp := compareValues(matched[i][q.SortBy], matched[j][q.SortBy])
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if q.Limit > 0 && int64(len(matched)) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]T, 0, len(matched))
	for _, doc := range matched {
		if len(q.Fields) > 0 {
			doc = project(doc, q.Fields)
		}
		var item T
		if err := decode(doc, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *MemoryCollection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	doc, ok := c.docs[oid]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var item T
	if err := decode(doc, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *MemoryCollection[T]) Insert(ctx context.Context, doc *T) (*models.InsertResult, error) {
	stored, err := toDocument(doc)
	if err != nil {
		return nil, err
	}
	oid, ok := stored["_id"].(primitive.ObjectID)
	if !ok || oid.IsZero() {
		oid = primitive.NewObjectID()
		stored["_id"] = oid
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.docs[oid]; exists {
		return nil, fmt.Errorf("duplicate _id %s", oid.Hex())
	}
	c.docs[oid] = stored
	c.order = append(c.order, oid)

	return &models.InsertResult{Acknowledged: true, InsertedID: oid.Hex()}, nil
}

func (c *MemoryCollection[T]) UpdateByID(ctx context.Context, id string, fields map[string]interface{}, upsert bool) (*models.UpdateResult, error) {
	if len(fields) == 0 {
		return nil, ErrEmptyUpdate
	}
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	set, err := normalize(fields)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res := &models.UpdateResult{Acknowledged: true}
	doc, ok := c.docs[oid]
	if !ok {
		if !upsert {
			return res, nil
		}
		created := bson.M{"_id": oid}
		for k, v := range set {
			created[k] = v
		}
		c.docs[oid] = created
		c.order = append(c.order, oid)
		hex := oid.Hex()
		res.UpsertedCount = 1
		res.UpsertedID = &hex
		return res, nil
	}

	res.MatchedCount = 1
	updated := make(bson.M, len(doc)+len(set))
	for k, v := range doc {
		updated[k] = v
	}
	changed := false
	for k, v := range set {
		if current, exists := updated[k]; !exists || !reflect.DeepEqual(current, v) {
			changed = true
		}
		updated[k] = v
	}
	if changed {
		c.docs[oid] = updated
		res.ModifiedCount = 1
	}
	return res, nil
}

func (c *MemoryCollection[T]) DeleteByID(ctx context.Context, id string) (*models.DeleteResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res := &models.DeleteResult{Acknowledged: true}
	if _, ok := c.docs[oid]; !ok {
		return res, nil
	}
	delete(c.docs, oid)
	for i, existing := range c.order {
		if existing == oid {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	res.DeletedCount = 1
	return res, nil
}

// toDocument converts any BSON-encodable value into its stored form.
func toDocument(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// normalize runs filter and update values through the BSON codec so that
// typed values (string enums, ints) compare equal to stored ones.
func normalize(fields map[string]interface{}) (bson.M, error) {
	if len(fields) == 0 {
		return bson.M{}, nil
	}
	return toDocument(bson.M(fields))
}

func decode(doc bson.M, out interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func project(doc bson.M, fields []string) bson.M {
	out := bson.M{"_id": doc["_id"]}
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}

// compareValues orders missing values first, then numbers, then strings.
func compareValues(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 1:
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	case 2:
		sa, sb := a.(string), b.(string)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
	}
	return 0
}

func rank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case int32, int64, float64:
		return 1
	case string:
		return 2
	default:
		return 3
	}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
