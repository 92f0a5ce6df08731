package models

import (
	"context"
	"net/url"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"

	"cosi/internal/registry/forms"
	"cosi/internal/storage"
	"cosi/pkg/domainerrors"
)

type RelationStatus string

const (
	RelationHusband  RelationStatus = "husband"
	RelationWife     RelationStatus = "wife"
	RelationChild    RelationStatus = "child"
	RelationGuardian RelationStatus = "guardian"
	RelationOther    RelationStatus = "other"
)

// HouseRelation links two household members. It references persons by id
// on both representations; relations are always authored against already
// persisted people.
type HouseRelation struct {
	PersonA  bson.ObjectID  `bson:"person_a" json:"person_a"`
	PersonB  bson.ObjectID  `bson:"person_b" json:"person_b"`
	Relation RelationStatus `bson:"relation" json:"relation"`
}

// Household's domain form embeds the full address and full person objects.
type Household struct {
	HouseName string          `bson:"house_name" json:"house_name"`
	Address   Address         `bson:"address" json:"address"`
	Persons   []Person        `bson:"persons" json:"persons"`
	Relations []HouseRelation `bson:"relations" json:"relations"`
}

// HouseholdRecord is the persisted form: address and persons become
// reference ids, scalars copy through unchanged.
type HouseholdRecord struct {
	HouseName string          `bson:"house_name" json:"house_name"`
	Address   bson.ObjectID   `bson:"address" json:"address"`
	Persons   []bson.ObjectID `bson:"persons" json:"persons"`
	Relations []HouseRelation `bson:"relations" json:"relations"`
}

type HouseholdForm struct {
	HouseName forms.Optional[string]          `json:"house_name"`
	Address   forms.Optional[bson.ObjectID]   `json:"address"`
	Persons   forms.Optional[[]bson.ObjectID] `json:"persons"`
	Relations forms.Optional[[]HouseRelation] `json:"relations"`
}

func (f HouseholdForm) Fields() []forms.Field {
	return []forms.Field{
		{Name: "house_name", Value: f.HouseName},
		{Name: "address", Value: f.Address},
		{Name: "persons", Value: f.Persons},
		{Name: "relations", Value: f.Relations},
	}
}

// DecodeHouseholdForm reads the query-string representation; relations are
// only accepted through JSON bodies.
func DecodeHouseholdForm(vs url.Values) (HouseholdForm, error) {
	address, err := forms.QueryObjectID(vs, "address")
	if err != nil {
		return HouseholdForm{}, err
	}
	persons, err := forms.QueryObjectIDs(vs, "persons")
	if err != nil {
		return HouseholdForm{}, err
	}
	return HouseholdForm{
		HouseName: forms.QueryString(vs, "house_name"),
		Address:   address,
		Persons:   persons,
	}, nil
}

// HouseholdCodec resolves the embedded address and person objects into
// reference ids and back. Resolution failures are fatal for the whole
// conversion call: an unmatched person fails the write the same way an
// unmatched address does, rather than being silently dropped.
type HouseholdCodec struct{}

func (HouseholdCodec) Name() string { return CollectionHousehold }

func (HouseholdCodec) ToStorage(ctx context.Context, db storage.Database, households []Household) ([]HouseholdRecord, error) {
	addressCol := db.Collection(CollectionAddress)
	personCol := db.Collection(CollectionPerson)

	records := make([]HouseholdRecord, 0, len(households))
	for _, h := range households {
		addressID, err := resolveByContent(ctx, addressCol, h.Address, "address")
		if err != nil {
			return nil, err
		}

		// Person lookups are independent reads; run them concurrently
		// and join.
		personIDs := make([]bson.ObjectID, len(h.Persons))
		g, gctx := errgroup.WithContext(ctx)
		for i, p := range h.Persons {
			g.Go(func() error {
				id, err := resolveByContent(gctx, personCol, p, "person")
				if err != nil {
					return err
				}
				personIDs[i] = id
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		records = append(records, HouseholdRecord{
			HouseName: h.HouseName,
			Address:   addressID,
			Persons:   personIDs,
			Relations: h.Relations,
		})
	}
	return records, nil
}

func (HouseholdCodec) ToDomain(ctx context.Context, db storage.Database, recs []HouseholdRecord) ([]Household, error) {
	addressCol := db.Collection(CollectionAddress)
	personCol := db.Collection(CollectionPerson)

	households := make([]Household, 0, len(recs))
	for _, rec := range recs {
		var address Address
		if err := addressCol.FindOne(ctx, byID(rec.Address), &address); err != nil {
			return nil, dereferenceError(err, "address")
		}

		var docs []struct {
			ID     bson.ObjectID `bson:"_id"`
			Person `bson:",inline"`
		}
		if err := personCol.Find(ctx, byIDs(rec.Persons), storage.FindOptions{}, &docs); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "dereference persons")
		}
		byPersonID := make(map[bson.ObjectID]Person, len(docs))
		for _, doc := range docs {
			byPersonID[doc.ID] = doc.Person
		}
		persons := make([]Person, 0, len(rec.Persons))
		for _, id := range rec.Persons {
			p, ok := byPersonID[id]
			if !ok {
				return nil, domainerrors.New(domainerrors.CodeIntegrity, "unable to find provided person")
			}
			persons = append(persons, p)
		}

		households = append(households, Household{
			HouseName: rec.HouseName,
			Address:   address,
			Persons:   persons,
			Relations: rec.Relations,
		})
	}
	return households, nil
}

func (c HouseholdCodec) InlineRefs(ctx context.Context, db storage.Database, raw []bson.M) error {
	recs := make([]HouseholdRecord, len(raw))
	for i, doc := range raw {
		if err := decodeRaw(doc, &recs[i]); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "decode household document")
		}
	}
	households, err := c.ToDomain(ctx, db, recs)
	if err != nil {
		return err
	}
	for i, h := range households {
		raw[i]["address"] = h.Address
		raw[i]["persons"] = h.Persons
	}
	return nil
}
