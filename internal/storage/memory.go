package storage

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/pkg/platform/sentinel"
)

// Memory is an in-process Database used by tests and local development. It
// evaluates the filter subset the mapping layer emits: top-level equality,
// $or, $in and _id point lookups. Documents are normalized through a bson
// round trip so comparisons behave like the driver's.
type Memory struct {
	mu   sync.RWMutex
	cols map[string]*memoryCollection
}

func NewMemory() *Memory {
	return &Memory{cols: make(map[string]*memoryCollection)}
}

func (m *Memory) Collection(name string) Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if col, ok := m.cols[name]; ok {
		return col
	}
	col := &memoryCollection{}
	m.cols[name] = col
	return col
}

func (m *Memory) CreateCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cols[name]; !ok {
		m.cols[name] = &memoryCollection{}
	}
	return nil
}

// Stats reports how the count operations were exercised, so tests can assert
// the exact-vs-estimated policy without a real server.
type Stats struct {
	ExactCounts     int
	EstimatedCounts int
}

// CollectionStats returns counters for one collection.
func (m *Memory) CollectionStats(name string) Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if col, ok := m.cols[name]; ok {
		col.mu.RLock()
		defer col.mu.RUnlock()
		return col.stats
	}
	return Stats{}
}

type memoryCollection struct {
	mu    sync.RWMutex
	docs  []bson.M
	stats Stats
}

func (c *memoryCollection) Find(_ context.Context, filter bson.D, opts FindOptions, results any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matched := make([]bson.M, 0)
	for _, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return err
		}
		if ok {
			matched = append(matched, doc)
		}
	}
	if opts.Skip > 0 {
		if opts.Skip >= int64(len(matched)) {
			matched = nil
		} else {
			matched = matched[opts.Skip:]
		}
	}
	if opts.Limit > 0 && int64(len(matched)) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return decodeInto(matched, results)
}

func (c *memoryCollection) FindOne(_ context.Context, filter bson.D, result any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return err
		}
		if ok {
			return decodeOne(doc, result)
		}
	}
	return sentinel.ErrNotFound
}

func (c *memoryCollection) InsertOne(_ context.Context, doc any) (bson.ObjectID, error) {
	norm, err := normalizeDoc(doc)
	if err != nil {
		return bson.ObjectID{}, err
	}
	id, ok := norm["_id"].(bson.ObjectID)
	if !ok {
		id = bson.NewObjectID()
		norm["_id"] = id
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, norm)
	return id, nil
}

func (c *memoryCollection) InsertMany(ctx context.Context, docs []any) ([]bson.ObjectID, error) {
	ids := make([]bson.ObjectID, 0, len(docs))
	for _, doc := range docs {
		id, err := c.InsertOne(ctx, doc)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *memoryCollection) UpdateOne(_ context.Context, filter bson.D, update bson.D) (int64, int64, error) {
	set, err := setClause(update)
	if err != nil {
		return 0, 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			continue
		}
		var modified int64
		for _, el := range set {
			val, err := normalizeValue(el.Value)
			if err != nil {
				return 0, 0, err
			}
			if !equalValues(doc[el.Key], val) {
				doc[el.Key] = val
				modified = 1
			}
		}
		return 1, modified, nil
	}
	return 0, 0, nil
}

func (c *memoryCollection) CountDocuments(_ context.Context, filter bson.D) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.ExactCounts++
	var n int64
	for _, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (c *memoryCollection) EstimatedDocumentCount(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.EstimatedCounts++
	return int64(len(c.docs)), nil
}

func (c *memoryCollection) Drop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = nil
	return nil
}

// setClause extracts the $set sub-document; that is the only update operator
// the mapper produces.
func setClause(update bson.D) (bson.D, error) {
	for _, el := range update {
		if el.Key != "$set" {
			return nil, fmt.Errorf("unsupported update operator %q", el.Key)
		}
		norm, err := normalizeValue(el.Value)
		if err != nil {
			return nil, err
		}
		d, ok := norm.(bson.D)
		if !ok {
			return nil, fmt.Errorf("$set expects a document, got %T", norm)
		}
		return d, nil
	}
	return nil, nil
}

func matches(doc bson.M, filter bson.D) (bool, error) {
	for _, el := range filter {
		if el.Key == "$or" {
			ok, err := matchesOr(doc, el.Value)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			continue
		}
		norm, err := normalizeValue(el.Value)
		if err != nil {
			return false, err
		}
		if in, ok := inClause(norm); ok {
			if !containsValue(in, doc[el.Key]) {
				return false, nil
			}
			continue
		}
		if !equalValues(doc[el.Key], norm) {
			return false, nil
		}
	}
	return true, nil
}

func matchesOr(doc bson.M, alternatives any) (bool, error) {
	norm, err := normalizeValue(alternatives)
	if err != nil {
		return false, err
	}
	arr, ok := norm.(bson.A)
	if !ok {
		return false, fmt.Errorf("$or expects an array, got %T", norm)
	}
	for _, alt := range arr {
		sub, ok := alt.(bson.D)
		if !ok {
			return false, fmt.Errorf("$or alternative must be a document, got %T", alt)
		}
		matched, err := matches(doc, sub)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func inClause(v any) (bson.A, bool) {
	d, ok := v.(bson.D)
	if !ok || len(d) != 1 || d[0].Key != "$in" {
		return nil, false
	}
	arr, ok := d[0].Value.(bson.A)
	return arr, ok
}

func containsValue(arr bson.A, v any) bool {
	for _, candidate := range arr {
		if equalValues(v, candidate) {
			return true
		}
	}
	return false
}

// equalValues compares two normalized bson values. An explicit null matches
// a missing field, mirroring server equality semantics.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return reflect.DeepEqual(canonical(a), canonical(b))
}

// canonical flattens the ordered/unordered document representations so a
// bson.D filter value compares equal to a bson.M stored value.
func canonical(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, el := range t {
			m[el.Key] = canonical(el.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = canonical(val)
		}
		return m
	case bson.A:
		arr := make([]any, len(t))
		for i, val := range t {
			arr[i] = canonical(val)
		}
		return arr
	default:
		return v
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// normalizeDoc round-trips a document through bson so stored values carry
// the same types the driver would produce.
func normalizeDoc(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	return m, nil
}

func normalizeValue(v any) (any, error) {
	raw, err := bson.Marshal(bson.D{{Key: "v", Value: v}})
	if err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	var wrapper bson.D
	if err := bson.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	return wrapper[0].Value, nil
}

func decodeInto(docs []bson.M, results any) error {
	ptr := reflect.ValueOf(results)
	if ptr.Kind() != reflect.Ptr || ptr.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("results must be a pointer to a slice, got %T", results)
	}
	slice := ptr.Elem()
	slice.Set(reflect.MakeSlice(slice.Type(), 0, len(docs)))
	for _, doc := range docs {
		elem := reflect.New(slice.Type().Elem())
		if err := decodeOne(doc, elem.Interface()); err != nil {
			return err
		}
		slice.Set(reflect.Append(slice, elem.Elem()))
	}
	return nil
}

func decodeOne(doc bson.M, result any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := bson.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
