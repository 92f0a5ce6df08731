package models

import (
	"context"
	"net/url"

	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/internal/registry/forms"
	"cosi/internal/storage"
	"cosi/pkg/domainerrors"
)

// RegistrantKind is the discriminator selecting which reference field of an
// event registration is active.
type RegistrantKind string

const (
	RegistrantPerson    RegistrantKind = "person"
	RegistrantGroup     RegistrantKind = "group"
	RegistrantHousehold RegistrantKind = "household"
)

// Registrant is the tagged union behind the discriminator: exactly one of
// the three embedded objects is populated and it matches Kind. Use the
// constructors; a hand-built value is checked again at write time.
type Registrant struct {
	Kind      RegistrantKind `bson:"kind" json:"kind"`
	Person    *Person        `bson:"person,omitempty" json:"person,omitempty"`
	Group     *Group         `bson:"group,omitempty" json:"group,omitempty"`
	Household *Household     `bson:"household,omitempty" json:"household,omitempty"`
}

func PersonRegistrant(p Person) Registrant {
	return Registrant{Kind: RegistrantPerson, Person: &p}
}

func GroupRegistrant(g Group) Registrant {
	return Registrant{Kind: RegistrantGroup, Group: &g}
}

func HouseholdRegistrant(h Household) Registrant {
	return Registrant{Kind: RegistrantHousehold, Household: &h}
}

// Validate enforces the discriminator invariant on the domain side.
func (r Registrant) Validate() error {
	populated := 0
	var match bool
	if r.Person != nil {
		populated++
		match = r.Kind == RegistrantPerson
	}
	if r.Group != nil {
		populated++
		match = r.Kind == RegistrantGroup
	}
	if r.Household != nil {
		populated++
		match = r.Kind == RegistrantHousehold
	}
	if populated != 1 {
		return domainerrors.Newf(domainerrors.CodeValidation, "registrant must populate exactly one reference, got %d", populated)
	}
	if !match {
		return domainerrors.Newf(domainerrors.CodeValidation, "registrant reference does not match kind %q", r.Kind)
	}
	return nil
}

// EventRegistration registers a person, a group, or a household to an
// event. The event itself is referenced by id on both representations;
// registrations are always created against an already persisted event.
type EventRegistration struct {
	Event      bson.ObjectID `bson:"event" json:"event"`
	Registrant Registrant    `bson:"registrant" json:"registrant"`
}

// EventRegistrationRecord is the persisted form: the discriminator plus
// three mutually exclusive reference fields.
type EventRegistrationRecord struct {
	Event     bson.ObjectID  `bson:"event" json:"event"`
	KeyType   RegistrantKind `bson:"key_type" json:"key_type"`
	Person    *bson.ObjectID `bson:"person" json:"person"`
	Group     *bson.ObjectID `bson:"group" json:"group"`
	Household *bson.ObjectID `bson:"household" json:"household"`
}

// Validate rejects a record whose discriminator does not match its
// populated reference field. The mapper runs this before every write, so
// the invariant holds for every persisted record.
func (rec EventRegistrationRecord) Validate() error {
	populated := 0
	var match bool
	if rec.Person != nil {
		populated++
		match = rec.KeyType == RegistrantPerson
	}
	if rec.Group != nil {
		populated++
		match = rec.KeyType == RegistrantGroup
	}
	if rec.Household != nil {
		populated++
		match = rec.KeyType == RegistrantHousehold
	}
	if populated != 1 {
		return domainerrors.Newf(domainerrors.CodeValidation, "event registration must populate exactly one reference, got %d", populated)
	}
	if !match {
		return domainerrors.Newf(domainerrors.CodeValidation, "event registration reference does not match key_type %q", rec.KeyType)
	}
	return nil
}

type EventRegistrationForm struct {
	Event     forms.Optional[bson.ObjectID] `json:"event"`
	KeyType   forms.Optional[string]        `json:"key_type"`
	Person    forms.Optional[bson.ObjectID] `json:"person"`
	Group     forms.Optional[bson.ObjectID] `json:"group"`
	Household forms.Optional[bson.ObjectID] `json:"household"`
}

func (f EventRegistrationForm) Fields() []forms.Field {
	return []forms.Field{
		{Name: "event", Value: f.Event},
		{Name: "key_type", Value: f.KeyType},
		{Name: "person", Value: f.Person},
		{Name: "group", Value: f.Group},
		{Name: "household", Value: f.Household},
	}
}

func DecodeEventRegistrationForm(vs url.Values) (EventRegistrationForm, error) {
	event, err := forms.QueryObjectID(vs, "event")
	if err != nil {
		return EventRegistrationForm{}, err
	}
	person, err := forms.QueryObjectID(vs, "person")
	if err != nil {
		return EventRegistrationForm{}, err
	}
	group, err := forms.QueryObjectID(vs, "group")
	if err != nil {
		return EventRegistrationForm{}, err
	}
	household, err := forms.QueryObjectID(vs, "household")
	if err != nil {
		return EventRegistrationForm{}, err
	}
	return EventRegistrationForm{
		Event:     event,
		KeyType:   forms.QueryString(vs, "key_type"),
		Person:    person,
		Group:     group,
		Household: household,
	}, nil
}

// EventRegistrationCodec branches on the discriminator and resolves only
// the matching reference, leaving the other two null on both sides.
type EventRegistrationCodec struct{}

func (EventRegistrationCodec) Name() string { return CollectionEventRegistration }

func (EventRegistrationCodec) ToStorage(ctx context.Context, db storage.Database, regs []EventRegistration) ([]EventRegistrationRecord, error) {
	records := make([]EventRegistrationRecord, 0, len(regs))
	for _, reg := range regs {
		if err := reg.Registrant.Validate(); err != nil {
			return nil, err
		}
		rec := EventRegistrationRecord{Event: reg.Event, KeyType: reg.Registrant.Kind}
		switch reg.Registrant.Kind {
		case RegistrantPerson:
			id, err := resolveByContent(ctx, db.Collection(CollectionPerson), *reg.Registrant.Person, "person")
			if err != nil {
				return nil, err
			}
			rec.Person = &id
		case RegistrantGroup:
			id, err := resolveByContent(ctx, db.Collection(CollectionGroup), *reg.Registrant.Group, "group")
			if err != nil {
				return nil, err
			}
			rec.Group = &id
		case RegistrantHousehold:
			// Households are matched on their distinguishing scalar;
			// a structural match would need the embedded references
			// resolved first.
			filter := bson.D{{Key: "house_name", Value: reg.Registrant.Household.HouseName}}
			var got idDoc
			if err := db.Collection(CollectionHousehold).FindOne(ctx, filter, &got); err != nil {
				return nil, dereferenceError(err, "household")
			}
			rec.Household = &got.ID
		}
		records = append(records, rec)
	}
	return records, nil
}

func (EventRegistrationCodec) ToDomain(ctx context.Context, db storage.Database, recs []EventRegistrationRecord) ([]EventRegistration, error) {
	regs := make([]EventRegistration, 0, len(recs))
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		registrant, err := resolveRegistrant(ctx, db, rec)
		if err != nil {
			return nil, err
		}
		regs = append(regs, EventRegistration{Event: rec.Event, Registrant: registrant})
	}
	return regs, nil
}

func resolveRegistrant(ctx context.Context, db storage.Database, rec EventRegistrationRecord) (Registrant, error) {
	switch rec.KeyType {
	case RegistrantPerson:
		var person Person
		if err := db.Collection(CollectionPerson).FindOne(ctx, byID(*rec.Person), &person); err != nil {
			return Registrant{}, dereferenceError(err, "person")
		}
		return PersonRegistrant(person), nil
	case RegistrantGroup:
		var group Group
		if err := db.Collection(CollectionGroup).FindOne(ctx, byID(*rec.Group), &group); err != nil {
			return Registrant{}, dereferenceError(err, "group")
		}
		return GroupRegistrant(group), nil
	case RegistrantHousehold:
		var hrec HouseholdRecord
		if err := db.Collection(CollectionHousehold).FindOne(ctx, byID(*rec.Household), &hrec); err != nil {
			return Registrant{}, dereferenceError(err, "household")
		}
		households, err := HouseholdCodec{}.ToDomain(ctx, db, []HouseholdRecord{hrec})
		if err != nil {
			return Registrant{}, err
		}
		return HouseholdRegistrant(households[0]), nil
	default:
		return Registrant{}, domainerrors.Newf(domainerrors.CodeValidation, "unknown registrant kind %q", rec.KeyType)
	}
}

func (c EventRegistrationCodec) InlineRefs(ctx context.Context, db storage.Database, raw []bson.M) error {
	recs := make([]EventRegistrationRecord, len(raw))
	for i, doc := range raw {
		if err := decodeRaw(doc, &recs[i]); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "decode eventregistration document")
		}
	}
	regs, err := c.ToDomain(ctx, db, recs)
	if err != nil {
		return err
	}
	for i, reg := range regs {
		switch reg.Registrant.Kind {
		case RegistrantPerson:
			raw[i]["person"] = reg.Registrant.Person
		case RegistrantGroup:
			raw[i]["group"] = reg.Registrant.Group
		case RegistrantHousehold:
			raw[i]["household"] = reg.Registrant.Household
		}
	}
	return nil
}
