// Package mapper implements the generic collection operations shared by all
// registry entities, parameterized over the (Domain, Storage, Form) triple.
// Per-entity foreign-key resolution plugs in through the Codec interface.
package mapper

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/internal/registry/forms"
	"cosi/internal/storage"
	"cosi/pkg/domainerrors"
)

// Codec translates between the business view and the persisted view of one
// entity. Entities with no embedded relations use an identity codec; the
// others perform lookups in related collections to turn embedded sub-objects
// into reference ids and back.
type Codec[T, I any] interface {
	// Name resolves the backing collection.
	Name() string
	// ToStorage replaces embedded sub-objects with reference ids, looking
	// related records up by structural content match.
	ToStorage(ctx context.Context, db storage.Database, objs []T) ([]I, error)
	// ToDomain dereferences ids into embedded objects. A dangling reference
	// fails the whole conversion call.
	ToDomain(ctx context.Context, db storage.Database, recs []I) ([]T, error)
	// InlineRefs resolves reference fields of raw documents in bulk and
	// splices the resolved sub-objects back in under their field names, so
	// listings carry denormalized display-ready data.
	InlineRefs(ctx context.Context, db storage.Database, raw []bson.M) error
}

// Validator lets a storage record reject itself before a write; used by
// tagged-reference records to enforce discriminator consistency.
type Validator interface {
	Validate() error
}

// Collection is the typed operation surface for one entity.
type Collection[T, I any, F forms.Form] struct {
	db    storage.Database
	codec Codec[T, I]
}

func New[T, I any, F forms.Form](db storage.Database, codec Codec[T, I]) *Collection[T, I, F] {
	return &Collection[T, I, F]{db: db, codec: codec}
}

func (c *Collection[T, I, F]) Name() string { return c.codec.Name() }

// Handle returns the backing collection handle. Pure name resolution, no
// side effects.
func (c *Collection[T, I, F]) Handle() storage.Collection {
	return c.db.Collection(c.codec.Name())
}

// Find executes a filtered read and maps every record to its domain form.
// Zero matches returns an empty list, not an error.
func (c *Collection[T, I, F]) Find(ctx context.Context, filter bson.D, opts storage.FindOptions) ([]T, error) {
	var recs []I
	if err := c.Handle().Find(ctx, filter, opts, &recs); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, fmt.Sprintf("find %s", c.Name()))
	}
	if len(recs) == 0 {
		return []T{}, nil
	}
	return c.codec.ToDomain(ctx, c.db, recs)
}

// FindRaw executes the same read but skips domain reconstruction, returning
// stored documents with resolved references inlined as sub-documents. This
// is the listing path.
func (c *Collection[T, I, F]) FindRaw(ctx context.Context, filter bson.D, opts storage.FindOptions) ([]bson.M, error) {
	var raw []bson.M
	if err := c.Handle().Find(ctx, filter, opts, &raw); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, fmt.Sprintf("find %s", c.Name()))
	}
	if len(raw) == 0 {
		return []bson.M{}, nil
	}
	if err := c.codec.InlineRefs(ctx, c.db, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Insert writes one storage record and returns the store-assigned id. The
// record may veto the write through Validator.
func (c *Collection[T, I, F]) Insert(ctx context.Context, rec I) (bson.ObjectID, error) {
	if v, ok := any(rec).(Validator); ok {
		if err := v.Validate(); err != nil {
			return bson.ObjectID{}, err
		}
	}
	id, err := c.Handle().InsertOne(ctx, rec)
	if err != nil {
		return bson.ObjectID{}, domainerrors.Wrap(err, domainerrors.CodeStorage, fmt.Sprintf("insert %s", c.Name()))
	}
	return id, nil
}

// InsertDomain converts one domain object through the codec and writes the
// resulting record.
func (c *Collection[T, I, F]) InsertDomain(ctx context.Context, obj T) (bson.ObjectID, error) {
	recs, err := c.codec.ToStorage(ctx, c.db, []T{obj})
	if err != nil {
		return bson.ObjectID{}, err
	}
	return c.Insert(ctx, recs[0])
}

// InsertAll converts a batch of domain objects in one codec call and writes
// them in order. Seeding path; any invalid record fails the whole batch
// before a single write.
func (c *Collection[T, I, F]) InsertAll(ctx context.Context, objs []T) ([]bson.ObjectID, error) {
	recs, err := c.codec.ToStorage(ctx, c.db, objs)
	if err != nil {
		return nil, err
	}
	docs := make([]any, 0, len(recs))
	for _, rec := range recs {
		if v, ok := any(rec).(Validator); ok {
			if err := v.Validate(); err != nil {
				return nil, err
			}
		}
		docs = append(docs, rec)
	}
	ids, err := c.Handle().InsertMany(ctx, docs)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, fmt.Sprintf("insert %s batch", c.Name()))
	}
	return ids, nil
}

// InsertForm sanitizes a user-supplied form into a complete insert payload
// and writes it.
func (c *Collection[T, I, F]) InsertForm(ctx context.Context, f F) (bson.ObjectID, error) {
	doc, err := forms.SanitizeInsert(f)
	if err != nil {
		return bson.ObjectID{}, err
	}
	var rec I
	if err := forms.Decode(doc, &rec); err != nil {
		return bson.ObjectID{}, err
	}
	return c.Insert(ctx, rec)
}

// Update applies a $set patch to the first record matching filter and
// returns the modified count. Zero modified on a matched record is not an
// error; zero matched is NotFound.
func (c *Collection[T, I, F]) Update(ctx context.Context, filter bson.D, patch bson.D) (int64, error) {
	matched, modified, err := c.Handle().UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: patch}})
	if err != nil {
		return 0, domainerrors.Wrap(err, domainerrors.CodeStorage, fmt.Sprintf("update %s", c.Name()))
	}
	if matched == 0 {
		return 0, domainerrors.Newf(domainerrors.CodeNotFound, "no %s matched update filter", c.Name())
	}
	return modified, nil
}

// DropAndRecreate deletes all records and immediately recreates the empty
// collection, so collection existence is stable post-drop. Development-time
// reset path only.
func (c *Collection[T, I, F]) DropAndRecreate(ctx context.Context) error {
	if err := c.Handle().Drop(ctx); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeStorage, fmt.Sprintf("drop %s", c.Name()))
	}
	if err := c.db.CreateCollection(ctx, c.Name()); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeStorage, fmt.Sprintf("recreate %s", c.Name()))
	}
	return nil
}
