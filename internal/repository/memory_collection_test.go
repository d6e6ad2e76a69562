package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/craftyclassroom/classroom-api/internal/models"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestMemoryCollectionInsertThenFind(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryCollection[models.Class]()

	in := models.Class{
		ClassName:             "Pottery",
		ClassImage:            "https://img.example/pottery.png",
		Price:                 floatPtr(49.5),
		AvailableSeats:        intPtr(12),
		TotalEnrolledStudents: intPtr(0),
		Status:                models.ClassStatusPending,
	}
	res, err := coll.Insert(ctx, &in)
	require.NoError(t, err)
	assert.True(t, res.Acknowledged)
	require.Len(t, res.InsertedID, 24)

	got, err := coll.FindByID(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, res.InsertedID, got.ID.Hex())

	got.ID = in.ID
	assert.Equal(t, in, *got)
}

func TestMemoryCollectionUpdateIsPartial(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryCollection[models.Class]()

	res, err := coll.Insert(ctx, &models.Class{ClassName: "Pottery", ClassImage: "a.png", Status: models.ClassStatusPending, AvailableSeats: intPtr(10)})
	require.NoError(t, err)

	upd, err := coll.UpdateByID(ctx, res.InsertedID, map[string]interface{}{"status": models.ClassStatusApproved}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.MatchedCount)
	assert.Equal(t, int64(1), upd.ModifiedCount)
	assert.Nil(t, upd.UpsertedID)

	got, err := coll.FindByID(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, models.ClassStatusApproved, got.Status)
	assert.Equal(t, "Pottery", got.ClassName)
	assert.Equal(t, "a.png", got.ClassImage)
	assert.Equal(t, 10, *got.AvailableSeats)

	same, err := coll.UpdateByID(ctx, res.InsertedID, map[string]interface{}{"status": models.ClassStatusApproved}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), same.MatchedCount)
	assert.Equal(t, int64(0), same.ModifiedCount)
}

func TestMemoryCollectionUpsertCreatesWithGivenID(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryCollection[models.Class]()
	id := "65a1f0c2b7e4d3a1c2b3d4e5"

	miss, err := coll.UpdateByID(ctx, id, map[string]interface{}{"className": "Ghost"}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), miss.MatchedCount)
	assert.Equal(t, int64(0), miss.UpsertedCount)

	res, err := coll.UpdateByID(ctx, id, map[string]interface{}{"className": "Weaving", "price": 20.0}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.UpsertedCount)
	require.NotNil(t, res.UpsertedID)
	assert.Equal(t, id, *res.UpsertedID)

	got, err := coll.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Weaving", got.ClassName)
	assert.Equal(t, 20.0, *got.Price)
}

func TestMemoryCollectionDelete(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryCollection[models.Enrollment]()

	res, err := coll.Insert(ctx, &models.Enrollment{ClassName: "Pottery", PaymentStatus: models.PaymentStatusPending})
	require.NoError(t, err)

	del, err := coll.DeleteByID(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.DeletedCount)

	_, err = coll.FindByID(ctx, res.InsertedID)
	assert.ErrorIs(t, err, ErrNotFound)

	again, err := coll.DeleteByID(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.DeletedCount)
}

func TestMemoryCollectionListFilterSortLimitProjection(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryCollection[models.User]()

	for i := 0; i < 8; i++ {
		_, err := coll.Insert(ctx, &models.User{
			Name:     fmt.Sprintf("Instructor %d", 8-i),
			Email:    fmt.Sprintf("i%d@example.com", i),
			Role:     models.RoleInstructor,
			PhotoURL: "p.png",
		})
		require.NoError(t, err)
	}
	_, err := coll.Insert(ctx, &models.User{Name: "Student", Role: models.RoleStudent})
	require.NoError(t, err)

	all, err := coll.List(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 9)

	six, err := coll.List(ctx, Query{
		Filter: map[string]interface{}{"role": models.RoleInstructor},
		Fields: models.UserProfileFields,
		SortBy: "name",
		Order:  Ascending,
		Limit:  6,
	})
	require.NoError(t, err)
	require.Len(t, six, 6)
	assert.Equal(t, "Instructor 1", six[0].Name)
	assert.Equal(t, "Instructor 6", six[5].Name)
	for _, u := range six {
		assert.Empty(t, u.Role)
		assert.False(t, u.ID.IsZero())
		assert.NotEmpty(t, u.Email)
	}
}

func TestMemoryCollectionSortDescendingKeepsTiesInOrder(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryCollection[models.Class]()

	names := []string{"A", "B", "C"}
	counts := []int{0, 5, 0}
	for i := range names {
		_, err := coll.Insert(ctx, &models.Class{ClassName: names[i], TotalEnrolledStudents: intPtr(counts[i])})
		require.NoError(t, err)
	}

	got, err := coll.List(ctx, Query{SortBy: "totalEnrolledStudents", Order: Descending})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{got[0].ClassName, got[1].ClassName, got[2].ClassName})
}

func TestMemoryCollectionRejectsInvalidID(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryCollection[models.User]()

	_, err := coll.FindByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = coll.UpdateByID(ctx, "nope", map[string]interface{}{"role": "admin"}, false)
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = coll.UpdateByID(ctx, "65a1f0c2b7e4d3a1c2b3d4e5", nil, false)
	assert.ErrorIs(t, err, ErrEmptyUpdate)
}

// seedRaw stores doc as-is, the way documents written by other clients sit
// in the collection.
func seedRaw[T any](coll *MemoryCollection[T], doc bson.M) {
	oid := primitive.NewObjectID()
	doc["_id"] = oid
	coll.mu.Lock()
	defer coll.mu.Unlock()
	coll.docs[oid] = doc
	coll.order = append(coll.order, oid)
}

func TestMemoryCollectionListSurvivesMistypedStoredFields(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryCollection[models.Class]()

	_, err := coll.Insert(ctx, &models.Class{ClassName: "Pottery", Price: floatPtr(49.5), Status: models.ClassStatusApproved})
	require.NoError(t, err)
	seedRaw(coll, bson.M{"className": "Weaving", "status": "approved", "price": "50"})
	seedRaw(coll, bson.M{"className": "Knitting", "status": "approved", "price": "free"})

	got, err := coll.List(ctx, Query{Filter: map[string]interface{}{"status": models.ClassStatusApproved}})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 49.5, *got[0].Price)
	require.NotNil(t, got[1].Price)
	assert.Equal(t, 50.0, *got[1].Price)
	assert.Nil(t, got[2].Price)
	assert.Equal(t, "free", got[2].Extra["price"])
}

func TestMemoryCollectionKeepsUnnamedMembers(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryCollection[models.Enrollment]()

	res, err := coll.Insert(ctx, &models.Enrollment{ClassID: "c1", Extra: bson.M{"email": "s@x.io", "instructor": "Ann"}})
	require.NoError(t, err)

	got, err := coll.FindByID(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ClassID)
	assert.Equal(t, bson.M{"email": "s@x.io", "instructor": "Ann"}, got.Extra)
}
