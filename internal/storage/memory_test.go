package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/pkg/platform/sentinel"
)

type memDoc struct {
	Name  string  `bson:"name"`
	Size  int     `bson:"size"`
	Notes *string `bson:"notes"`
}

func TestMemoryInsertAssignsID(t *testing.T) {
	col := NewMemory().Collection("things")
	id, err := col.InsertOne(context.Background(), memDoc{Name: "a"})
	require.NoError(t, err)
	assert.NotEqual(t, bson.ObjectID{}, id)

	var got bson.M
	require.NoError(t, col.FindOne(context.Background(), bson.D{{Key: "_id", Value: id}}, &got))
	assert.Equal(t, "a", got["name"])
}

func TestMemoryFindOneNotFound(t *testing.T) {
	col := NewMemory().Collection("things")
	var got bson.M
	err := col.FindOne(context.Background(), bson.D{{Key: "name", Value: "missing"}}, &got)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryEqualityFilter(t *testing.T) {
	ctx := context.Background()
	col := NewMemory().Collection("things")
	for _, d := range []memDoc{{Name: "a", Size: 1}, {Name: "b", Size: 2}, {Name: "a", Size: 3}} {
		_, err := col.InsertOne(ctx, d)
		require.NoError(t, err)
	}

	var got []memDoc
	require.NoError(t, col.Find(ctx, bson.D{{Key: "name", Value: "a"}}, FindOptions{}, &got))
	assert.Len(t, got, 2)
}

func TestMemoryNullMatchesMissingOrNull(t *testing.T) {
	ctx := context.Background()
	col := NewMemory().Collection("things")
	note := "hi"
	_, err := col.InsertOne(ctx, memDoc{Name: "noted", Notes: &note})
	require.NoError(t, err)
	_, err = col.InsertOne(ctx, memDoc{Name: "bare"})
	require.NoError(t, err)
	_, err = col.InsertOne(ctx, bson.M{"name": "sparse"})
	require.NoError(t, err)

	var got []bson.M
	require.NoError(t, col.Find(ctx, bson.D{{Key: "notes", Value: nil}}, FindOptions{}, &got))
	require.Len(t, got, 2)
	names := []any{got[0]["name"], got[1]["name"]}
	assert.Contains(t, names, "bare")
	assert.Contains(t, names, "sparse")
}

func TestMemoryInFilter(t *testing.T) {
	ctx := context.Background()
	col := NewMemory().Collection("things")
	var ids []bson.ObjectID
	for _, d := range []memDoc{{Name: "a"}, {Name: "b"}, {Name: "c"}} {
		id, err := col.InsertOne(ctx, d)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: []bson.ObjectID{ids[0], ids[2]}}}}}
	var got []bson.M
	require.NoError(t, col.Find(ctx, filter, FindOptions{}, &got))
	assert.Len(t, got, 2)
}

func TestMemoryOrFilter(t *testing.T) {
	ctx := context.Background()
	col := NewMemory().Collection("things")
	for _, d := range []memDoc{{Name: "a", Size: 1}, {Name: "b", Size: 2}, {Name: "c", Size: 3}} {
		_, err := col.InsertOne(ctx, d)
		require.NoError(t, err)
	}

	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "name", Value: "a"}},
		bson.D{{Key: "size", Value: 3}},
	}}}
	var got []memDoc
	require.NoError(t, col.Find(ctx, filter, FindOptions{}, &got))
	assert.Len(t, got, 2)
}

func TestMemorySkipAndLimit(t *testing.T) {
	ctx := context.Background()
	col := NewMemory().Collection("things")
	for i := 0; i < 5; i++ {
		_, err := col.InsertOne(ctx, memDoc{Name: "a", Size: i})
		require.NoError(t, err)
	}

	var got []memDoc
	require.NoError(t, col.Find(ctx, bson.D{}, FindOptions{Skip: 1, Limit: 2}, &got))
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Size)
	assert.Equal(t, 2, got[1].Size)

	require.NoError(t, col.Find(ctx, bson.D{}, FindOptions{Skip: 10}, &got))
	assert.Empty(t, got)
}

func TestMemoryUpdateOne(t *testing.T) {
	ctx := context.Background()
	col := NewMemory().Collection("things")
	id, err := col.InsertOne(ctx, memDoc{Name: "a", Size: 1})
	require.NoError(t, err)

	set := bson.D{{Key: "$set", Value: bson.D{{Key: "size", Value: 2}}}}
	matched, modified, err := col.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, set)
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)
	assert.Equal(t, int64(1), modified)

	matched, modified, err = col.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, set)
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)
	assert.Equal(t, int64(0), modified)

	matched, _, err = col.UpdateOne(ctx, bson.D{{Key: "_id", Value: bson.NewObjectID()}}, set)
	require.NoError(t, err)
	assert.Equal(t, int64(0), matched)
}

func TestMemoryCountsAndDrop(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	col := mem.Collection("things")
	for i := 0; i < 3; i++ {
		_, err := col.InsertOne(ctx, memDoc{Name: "a"})
		require.NoError(t, err)
	}

	exact, err := col.CountDocuments(ctx, bson.D{{Key: "name", Value: "a"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), exact)

	estimated, err := col.EstimatedDocumentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), estimated)

	require.NoError(t, col.Drop(ctx))
	estimated, err = col.EstimatedDocumentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), estimated)
}

func TestParseID(t *testing.T) {
	id := bson.NewObjectID()
	parsed, err := ParseID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("not-hex")
	assert.Error(t, err)
}
