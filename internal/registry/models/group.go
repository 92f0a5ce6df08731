package models

import (
	"context"
	"errors"
	"net/url"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/internal/registry/forms"
	"cosi/internal/storage"
	"cosi/pkg/domainerrors"
	"cosi/pkg/platform/sentinel"
)

// Group has no embedded relations of its own; membership lives on
// GroupRelation records.
type Group struct {
	GroupName string `bson:"group_name" json:"group_name"`
	GroupDesc string `bson:"group_desc" json:"group_desc"`
}

type GroupForm struct {
	GroupName forms.Optional[string] `json:"group_name"`
	GroupDesc forms.Optional[string] `json:"group_desc"`
}

func (f GroupForm) Fields() []forms.Field {
	return []forms.Field{
		{Name: "group_name", Value: f.GroupName},
		{Name: "group_desc", Value: f.GroupDesc},
	}
}

func DecodeGroupForm(vs url.Values) (GroupForm, error) {
	return GroupForm{
		GroupName: forms.QueryString(vs, "group_name"),
		GroupDesc: forms.QueryString(vs, "group_desc"),
	}, nil
}

func GroupCodec() Identity[Group] {
	return NewIdentity[Group](CollectionGroup)
}

// GroupRelation ties one person to one group with a role. The domain form
// embeds both related objects in full.
type GroupRelation struct {
	Person Person `bson:"person" json:"person"`
	Group  Group  `bson:"group" json:"group"`
	Role   string `bson:"role" json:"role"`
}

// GroupRelationRecord is the persisted form: embedded objects replaced by
// reference ids.
type GroupRelationRecord struct {
	Person bson.ObjectID `bson:"person" json:"person"`
	Group  bson.ObjectID `bson:"group" json:"group"`
	Role   string        `bson:"role" json:"role"`
}

type GroupRelationForm struct {
	Person forms.Optional[bson.ObjectID] `json:"person"`
	Group  forms.Optional[bson.ObjectID] `json:"group"`
	Role   forms.Optional[string]        `json:"role"`
}

func (f GroupRelationForm) Fields() []forms.Field {
	return []forms.Field{
		{Name: "person", Value: f.Person},
		{Name: "group", Value: f.Group},
		{Name: "role", Value: f.Role},
	}
}

func DecodeGroupRelationForm(vs url.Values) (GroupRelationForm, error) {
	person, err := forms.QueryObjectID(vs, "person")
	if err != nil {
		return GroupRelationForm{}, err
	}
	group, err := forms.QueryObjectID(vs, "group")
	if err != nil {
		return GroupRelationForm{}, err
	}
	return GroupRelationForm{
		Person: person,
		Group:  group,
		Role:   forms.QueryString(vs, "role"),
	}, nil
}

// GroupRelationCodec resolves the person and group references. A missing
// related record is fatal for the whole conversion call, both directions.
type GroupRelationCodec struct{}

func (GroupRelationCodec) Name() string { return CollectionGroupRelation }

func (GroupRelationCodec) ToStorage(ctx context.Context, db storage.Database, rels []GroupRelation) ([]GroupRelationRecord, error) {
	personCol := db.Collection(CollectionPerson)
	groupCol := db.Collection(CollectionGroup)

	records := make([]GroupRelationRecord, 0, len(rels))
	for _, rel := range rels {
		personID, err := resolveByContent(ctx, personCol, rel.Person, "person")
		if err != nil {
			return nil, err
		}
		groupID, err := resolveByContent(ctx, groupCol, rel.Group, "group")
		if err != nil {
			return nil, err
		}
		records = append(records, GroupRelationRecord{Person: personID, Group: groupID, Role: rel.Role})
	}
	return records, nil
}

func (GroupRelationCodec) ToDomain(ctx context.Context, db storage.Database, recs []GroupRelationRecord) ([]GroupRelation, error) {
	personCol := db.Collection(CollectionPerson)
	groupCol := db.Collection(CollectionGroup)

	rels := make([]GroupRelation, 0, len(recs))
	for _, rec := range recs {
		var person Person
		if err := personCol.FindOne(ctx, byID(rec.Person), &person); err != nil {
			return nil, dereferenceError(err, "person")
		}
		var group Group
		if err := groupCol.FindOne(ctx, byID(rec.Group), &group); err != nil {
			return nil, dereferenceError(err, "group")
		}
		rels = append(rels, GroupRelation{Person: person, Group: group, Role: rec.Role})
	}
	return rels, nil
}

func (c GroupRelationCodec) InlineRefs(ctx context.Context, db storage.Database, raw []bson.M) error {
	recs := make([]GroupRelationRecord, len(raw))
	for i, doc := range raw {
		if err := decodeRaw(doc, &recs[i]); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "decode grouprelation document")
		}
	}
	rels, err := c.ToDomain(ctx, db, recs)
	if err != nil {
		return err
	}
	for i, rel := range rels {
		raw[i]["person"] = rel.Person
		raw[i]["group"] = rel.Group
	}
	return nil
}

// resolveByContent finds a related record by structural equality of all
// populated fields and returns its id. Used at write time, when the caller
// typically has no id yet.
func resolveByContent(ctx context.Context, col storage.Collection, obj any, entity string) (bson.ObjectID, error) {
	filter, err := structuralFilter(obj)
	if err != nil {
		return bson.ObjectID{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "resolve "+entity)
	}
	var got idDoc
	if err := col.FindOne(ctx, filter, &got); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return bson.ObjectID{}, domainerrors.Newf(domainerrors.CodeIntegrity, "unable to resolve %s by content", entity)
		}
		return bson.ObjectID{}, domainerrors.Wrap(err, domainerrors.CodeStorage, "resolve "+entity)
	}
	return got.ID, nil
}

// dereferenceError classifies a failed point lookup during ToDomain.
func dereferenceError(err error, entity string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return domainerrors.Newf(domainerrors.CodeIntegrity, "unable to find provided %s", entity)
	}
	return domainerrors.Wrap(err, domainerrors.CodeStorage, "dereference "+entity)
}
