// Package forms converts partial user-input forms into filter documents and
// insert payloads. The single shared null-handling rule lives in Document;
// entity-specific structural checks hook in through the Validator interface.
package forms

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/pkg/domainerrors"
)

// Value is the state a single form field exposes to the sanitizer.
type Value interface {
	Omitted() bool
	IsNull() bool
	Interface() any
}

// Field pairs a document key with its form value.
type Field struct {
	Name  string
	Value Value
}

// Form enumerates fields in document order.
type Form interface {
	Fields() []Field
}

// Validator is the extension point for forms that run extra structural
// checks before an insert conversion.
type Validator interface {
	Validate() error
}

// Document serializes a form field by field. Omitted fields never appear.
// A null field is dropped in query mode (absent filter fields mean "don't
// care", not "must equal null") and kept as an explicit null in strict
// insert mode, capturing the intent to clear the field.
func Document(f Form, strict bool) bson.D {
	doc := bson.D{}
	for _, field := range f.Fields() {
		if field.Value.Omitted() {
			continue
		}
		if field.Value.IsNull() {
			if strict {
				doc = append(doc, bson.E{Key: field.Name, Value: nil})
			}
			continue
		}
		doc = append(doc, bson.E{Key: field.Name, Value: field.Value.Interface()})
	}
	return doc
}

// SanitizeQuery produces a filter document: null and omitted fields are
// excluded entirely.
func SanitizeQuery(f Form) bson.D {
	return Document(f, false)
}

// SanitizeInsert produces a complete insert payload, running the form's
// structural checks first. Explicit nulls are preserved.
func SanitizeInsert(f Form) (bson.D, error) {
	if v, ok := f.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return Document(f, true), nil
}

// Decode converts a sanitized document into a storage record type.
func Decode(doc bson.D, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "encode form document")
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeBadRequest, fmt.Sprintf("form does not fit record shape: %v", err))
	}
	return nil
}
