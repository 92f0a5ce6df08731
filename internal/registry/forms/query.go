package forms

import (
	"net/url"
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/pkg/domainerrors"
)

// Query-string decoding rules: an absent key is an omitted field; a key
// present with an empty value is an explicit null; anything else is parsed
// into the field's type. Parse failures reject the request before any
// storage call.

func QueryString(vs url.Values, key string) Optional[string] {
	if !vs.Has(key) {
		return Optional[string]{}
	}
	v := vs.Get(key)
	if v == "" {
		return Null[string]()
	}
	return Some(v)
}

func QueryInt(vs url.Values, key string) (Optional[int], error) {
	if !vs.Has(key) {
		return Optional[int]{}, nil
	}
	v := vs.Get(key)
	if v == "" {
		return Null[int](), nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return Optional[int]{}, domainerrors.Newf(domainerrors.CodeBadRequest, "%s must be an integer", key)
	}
	return Some(n), nil
}

// QueryInts reads a repeated key into a list of integers.
func QueryInts(vs url.Values, key string) (Optional[[]int], error) {
	if !vs.Has(key) {
		return Optional[[]int]{}, nil
	}
	values := vs[key]
	if len(values) == 1 && values[0] == "" {
		return Null[[]int](), nil
	}
	ints := make([]int, 0, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Optional[[]int]{}, domainerrors.Newf(domainerrors.CodeBadRequest, "%s must contain integers", key)
		}
		ints = append(ints, n)
	}
	return Some(ints), nil
}

// QueryStrings reads a repeated key into a list value.
func QueryStrings(vs url.Values, key string) Optional[[]string] {
	if !vs.Has(key) {
		return Optional[[]string]{}
	}
	values := vs[key]
	if len(values) == 1 && values[0] == "" {
		return Null[[]string]()
	}
	return Some(values)
}

func QueryObjectID(vs url.Values, key string) (Optional[bson.ObjectID], error) {
	if !vs.Has(key) {
		return Optional[bson.ObjectID]{}, nil
	}
	v := vs.Get(key)
	if v == "" {
		return Null[bson.ObjectID](), nil
	}
	oid, err := bson.ObjectIDFromHex(v)
	if err != nil {
		return Optional[bson.ObjectID]{}, domainerrors.Newf(domainerrors.CodeBadRequest, "%s is not a valid object id", key)
	}
	return Some(oid), nil
}

func QueryObjectIDs(vs url.Values, key string) (Optional[[]bson.ObjectID], error) {
	if !vs.Has(key) {
		return Optional[[]bson.ObjectID]{}, nil
	}
	values := vs[key]
	if len(values) == 1 && values[0] == "" {
		return Null[[]bson.ObjectID](), nil
	}
	ids := make([]bson.ObjectID, 0, len(values))
	for _, v := range values {
		oid, err := bson.ObjectIDFromHex(v)
		if err != nil {
			return Optional[[]bson.ObjectID]{}, domainerrors.Newf(domainerrors.CodeBadRequest, "%s contains an invalid object id", key)
		}
		ids = append(ids, oid)
	}
	return Some(ids), nil
}
