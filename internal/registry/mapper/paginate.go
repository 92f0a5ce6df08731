package mapper

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/internal/registry/forms"
	"cosi/internal/storage"
	"cosi/pkg/domainerrors"
)

// PageSize is the fixed listing window; not configurable per request.
const PageSize int64 = 100

// Page is the listing envelope returned to route handlers.
type Page struct {
	Page       int64    `json:"page"`
	TotalPages int64    `json:"total_pages"`
	TotalCount int64    `json:"total_count"`
	Data       []bson.M `json:"data"`
}

// TotalPages computes the page count for a total. An empty collection has
// zero pages, and an exact multiple of the page size does not overcount.
func TotalPages(total, size int64) int64 {
	if total <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(total) / float64(size)))
}

// Window translates a requested page index into the read window. Negative
// pages clamp to the first page.
func Window(page int64) storage.FindOptions {
	if page < 0 {
		page = 0
	}
	return storage.FindOptions{Skip: PageSize * page, Limit: PageSize}
}

// Count picks the counting strategy for a filter: exact counts whenever the
// listing is filtered (an approximate collection-wide estimate would be
// wrong for a subset) and the cheap estimated count for the common browse-
// everything case.
func (c *Collection[T, I, F]) Count(ctx context.Context, filter bson.D) (int64, error) {
	var (
		n   int64
		err error
	)
	if len(filter) > 0 {
		n, err = c.Handle().CountDocuments(ctx, filter)
	} else {
		n, err = c.Handle().EstimatedDocumentCount(ctx)
	}
	if err != nil {
		return 0, domainerrors.Wrap(err, domainerrors.CodeStorage, "count "+c.Name())
	}
	return n, nil
}

// Paginate computes pagination metadata and reads one window of raw
// documents with references inlined.
func (c *Collection[T, I, F]) Paginate(ctx context.Context, filter bson.D, page int64) (*Page, error) {
	if page < 0 {
		page = 0
	}
	total, err := c.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := c.FindRaw(ctx, filter, Window(page))
	if err != nil {
		return nil, err
	}
	return &Page{
		Page:       page,
		TotalPages: TotalPages(total, PageSize),
		TotalCount: total,
		Data:       data,
	}, nil
}

// Query is the full listing path: sanitize the form into a filter, then
// paginate.
func (c *Collection[T, I, F]) Query(ctx context.Context, f F, page int64) (*Page, error) {
	return c.Paginate(ctx, forms.SanitizeQuery(f), page)
}
