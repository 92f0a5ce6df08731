// Package models defines the three representations of every registry
// entity — the business view, the persisted record, and the partial input
// form — together with the per-entity codecs that translate between them.
package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/internal/storage"
)

// Collection names, also the entity keys route handlers use.
const (
	CollectionPerson            = "person"
	CollectionAddress           = "address"
	CollectionGroup             = "group"
	CollectionGroupRelation     = "grouprelation"
	CollectionHousehold         = "household"
	CollectionEvent             = "event"
	CollectionEventRegistration = "eventregistration"
	CollectionUser              = "user"
)

// Identity is the codec for entities whose domain and storage forms
// coincide: no embedded relations, nothing to resolve.
type Identity[T any] struct {
	name string
}

func NewIdentity[T any](name string) Identity[T] {
	return Identity[T]{name: name}
}

func (c Identity[T]) Name() string { return c.name }

func (c Identity[T]) ToStorage(_ context.Context, _ storage.Database, objs []T) ([]T, error) {
	return objs, nil
}

func (c Identity[T]) ToDomain(_ context.Context, _ storage.Database, recs []T) ([]T, error) {
	return recs, nil
}

func (c Identity[T]) InlineRefs(_ context.Context, _ storage.Database, _ []bson.M) error {
	return nil
}

// idDoc captures just the store-assigned id of a looked-up record.
type idDoc struct {
	ID bson.ObjectID `bson:"_id"`
}

// structuralFilter builds an exact-match query from every field of v,
// nulls included. Resolution by content is used when the caller has no id
// yet, typically for freshly supplied data.
func structuralFilter(v any) (bson.D, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("build structural filter: %w", err)
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("build structural filter: %w", err)
	}
	return d, nil
}

// decodeRaw converts an untyped stored document into a record type.
func decodeRaw(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode raw document: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode raw document: %w", err)
	}
	return nil
}

func byID(id bson.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func byIDs(ids []bson.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
}
