package mapper

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/internal/registry/forms"
	"cosi/internal/storage"
)

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		want  int64
	}{
		{0, 0},
		{1, 1},
		{99, 1},
		{100, 1},
		{101, 2},
		{250, 3},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("total=%d", tc.total), func(t *testing.T) {
			assert.Equal(t, tc.want, TotalPages(tc.total, PageSize))
		})
	}
}

func TestWindow(t *testing.T) {
	assert.Equal(t, storage.FindOptions{Skip: 0, Limit: PageSize}, Window(0))
	assert.Equal(t, storage.FindOptions{Skip: 200, Limit: PageSize}, Window(2))
	// Negative pages clamp to the first window.
	assert.Equal(t, storage.FindOptions{Skip: 0, Limit: PageSize}, Window(-3))
}

func TestCountPolicy(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()
	col := New[widget, widget, widgetForm](db, widgetCodec{})

	for i := 0; i < 5; i++ {
		_, err := col.InsertDomain(ctx, widget{Name: "bolt", Size: i})
		require.NoError(t, err)
	}

	_, err := col.Count(ctx, bson.D{})
	require.NoError(t, err)
	_, err = col.Count(ctx, bson.D{{Key: "name", Value: "bolt"}})
	require.NoError(t, err)

	stats := db.CollectionStats("widget")
	assert.Equal(t, 1, stats.EstimatedCounts)
	assert.Equal(t, 1, stats.ExactCounts)
}

func TestPaginateWindowsAndMetadata(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()
	col := New[widget, widget, widgetForm](db, widgetCodec{})

	for i := 0; i < 250; i++ {
		_, err := col.InsertDomain(ctx, widget{Name: "bolt", Size: i})
		require.NoError(t, err)
	}

	page, err := col.Paginate(ctx, bson.D{}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Page)
	assert.Equal(t, int64(3), page.TotalPages)
	assert.Equal(t, int64(250), page.TotalCount)
	assert.Len(t, page.Data, 50)

	empty, err := col.Paginate(ctx, bson.D{}, 9)
	require.NoError(t, err)
	assert.Empty(t, empty.Data)
	assert.Equal(t, int64(3), empty.TotalPages)
}

func TestQuerySanitizesFormIntoFilter(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()
	col := New[widget, widget, widgetForm](db, widgetCodec{})

	_, err := col.InsertDomain(ctx, widget{Name: "bolt", Size: 1})
	require.NoError(t, err)
	_, err = col.InsertDomain(ctx, widget{Name: "nut", Size: 2})
	require.NoError(t, err)

	page, err := col.Query(ctx, widgetForm{Name: forms.Some("nut")}, 0)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "nut", page.Data[0]["name"])
	assert.Equal(t, int64(1), page.TotalCount)

	// A null field is dropped from the filter, not matched against null.
	page, err = col.Query(ctx, widgetForm{Name: forms.Null[string]()}, 0)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
}
