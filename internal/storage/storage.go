// Package storage abstracts the document store behind small Database and
// Collection interfaces so the mapping layer stays testable against an
// in-memory implementation. The MongoDB implementation lives in mongo.go;
// both speak the driver's bson document types.
package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/pkg/domainerrors"
)

// FindOptions bounds a read window. Zero values mean no skip and no limit.
type FindOptions struct {
	Skip  int64
	Limit int64
}

// Database hands out per-collection handles bound to one logical database.
// Implementations must be safe for concurrent use by many in-flight requests.
type Database interface {
	Collection(name string) Collection
	CreateCollection(ctx context.Context, name string) error
}

// Collection is the operation surface the mapping layer consumes. Every call
// returns success or a transport/query error; zero matches is not an error
// for Find, and is reported through sentinel.ErrNotFound for FindOne.
type Collection interface {
	// Find decodes all matching documents into results, which must be a
	// pointer to a slice.
	Find(ctx context.Context, filter bson.D, opts FindOptions, results any) error
	// FindOne decodes the first matching document into result, or returns
	// sentinel.ErrNotFound.
	FindOne(ctx context.Context, filter bson.D, result any) error
	// InsertOne writes one document and returns the store-assigned id.
	InsertOne(ctx context.Context, doc any) (bson.ObjectID, error)
	// InsertMany writes documents in order and returns their ids.
	InsertMany(ctx context.Context, docs []any) ([]bson.ObjectID, error)
	// UpdateOne applies update to the first document matching filter and
	// reports how many documents matched and how many were modified.
	UpdateOne(ctx context.Context, filter bson.D, update bson.D) (matched, modified int64, err error)
	// CountDocuments counts documents matching filter exactly.
	CountDocuments(ctx context.Context, filter bson.D) (int64, error)
	// EstimatedDocumentCount returns a fast approximate count of the whole
	// collection, for unfiltered listings only.
	EstimatedDocumentCount(ctx context.Context) (int64, error)
	// Drop deletes the collection and all of its documents.
	Drop(ctx context.Context) error
}

// ParseID converts an opaque hex id string from the boundary into a native
// object id. A malformed string fails fast, before any storage call.
func ParseID(hex string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.ObjectID{}, domainerrors.Wrap(err, domainerrors.CodeBadRequest, "malformed object id")
	}
	return oid, nil
}
