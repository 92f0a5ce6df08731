package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/internal/storage"
	"cosi/pkg/domainerrors"
)

func seedPerson(t *testing.T, db storage.Database, p Person) bson.ObjectID {
	t.Helper()
	id, err := db.Collection(CollectionPerson).InsertOne(context.Background(), p)
	require.NoError(t, err)
	return id
}

func seedAddress(t *testing.T, db storage.Database, a Address) bson.ObjectID {
	t.Helper()
	id, err := db.Collection(CollectionAddress).InsertOne(context.Background(), a)
	require.NoError(t, err)
	return id
}

func TestHouseholdCodecToStorageResolvesByContent(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()

	address := Address{LineOne: "12 Elm St", City: "Springfield", Region: "IL"}
	alice := Person{FirstName: "Alice", LastName: "Smith", Sex: SexFemale}
	bob := Person{FirstName: "Bob", LastName: "Smith", Sex: SexMale}

	addressID := seedAddress(t, db, address)
	aliceID := seedPerson(t, db, alice)
	bobID := seedPerson(t, db, bob)

	recs, err := HouseholdCodec{}.ToStorage(ctx, db, []Household{{
		HouseName: "Smith",
		Address:   address,
		Persons:   []Person{alice, bob},
		Relations: []HouseRelation{{PersonA: aliceID, PersonB: bobID, Relation: RelationWife}},
	}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, addressID, recs[0].Address)
	assert.Equal(t, []bson.ObjectID{aliceID, bobID}, recs[0].Persons)
}

func TestHouseholdCodecToStorageFailsOnAnyUnmatchedPerson(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()

	address := Address{LineOne: "12 Elm St", City: "Springfield", Region: "IL"}
	alice := Person{FirstName: "Alice", LastName: "Smith", Sex: SexFemale}
	seedAddress(t, db, address)
	seedPerson(t, db, alice)

	stranger := Person{FirstName: "Nobody", LastName: "Known", Sex: SexUndefined}
	_, err := HouseholdCodec{}.ToStorage(ctx, db, []Household{{
		HouseName: "Smith",
		Address:   address,
		Persons:   []Person{alice, stranger},
	}})
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeIntegrity))
}

func TestHouseholdCodecToStorageFailsOnUnmatchedAddress(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()

	_, err := HouseholdCodec{}.ToStorage(ctx, db, []Household{{
		HouseName: "Smith",
		Address:   Address{LineOne: "nowhere"},
	}})
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeIntegrity))
}

func TestHouseholdCodecToDomainRebuildsInOrder(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()

	address := Address{LineOne: "12 Elm St", City: "Springfield", Region: "IL"}
	alice := Person{FirstName: "Alice", LastName: "Smith", Sex: SexFemale}
	bob := Person{FirstName: "Bob", LastName: "Smith", Sex: SexMale}

	addressID := seedAddress(t, db, address)
	aliceID := seedPerson(t, db, alice)
	bobID := seedPerson(t, db, bob)

	households, err := HouseholdCodec{}.ToDomain(ctx, db, []HouseholdRecord{{
		HouseName: "Smith",
		Address:   addressID,
		Persons:   []bson.ObjectID{bobID, aliceID},
	}})
	require.NoError(t, err)
	require.Len(t, households, 1)
	assert.Equal(t, address, households[0].Address)
	require.Len(t, households[0].Persons, 2)
	assert.Equal(t, "Bob", households[0].Persons[0].FirstName)
	assert.Equal(t, "Alice", households[0].Persons[1].FirstName)
}

func TestHouseholdCodecToDomainFailsOnDanglingPerson(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()

	addressID := seedAddress(t, db, Address{LineOne: "12 Elm St"})
	_, err := HouseholdCodec{}.ToDomain(ctx, db, []HouseholdRecord{{
		HouseName: "Smith",
		Address:   addressID,
		Persons:   []bson.ObjectID{bson.NewObjectID()},
	}})
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeIntegrity))
}

func TestHouseholdCodecInlineRefs(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()

	address := Address{LineOne: "12 Elm St", City: "Springfield"}
	alice := Person{FirstName: "Alice", LastName: "Smith", Sex: SexFemale}
	addressID := seedAddress(t, db, address)
	aliceID := seedPerson(t, db, alice)

	raw := []bson.M{{
		"_id":        bson.NewObjectID(),
		"house_name": "Smith",
		"address":    addressID,
		"persons":    bson.A{aliceID},
	}}
	require.NoError(t, HouseholdCodec{}.InlineRefs(ctx, db, raw))

	assert.Equal(t, address, raw[0]["address"])
	persons, ok := raw[0]["persons"].([]Person)
	require.True(t, ok)
	require.Len(t, persons, 1)
	assert.Equal(t, "Alice", persons[0].FirstName)
}
