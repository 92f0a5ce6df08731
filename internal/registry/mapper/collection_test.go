package mapper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/internal/registry/forms"
	"cosi/internal/storage"
	"cosi/pkg/domainerrors"
)

type widget struct {
	Name string `bson:"name" json:"name"`
	Size int    `bson:"size" json:"size"`
}

type widgetForm struct {
	Name forms.Optional[string] `json:"name"`
	Size forms.Optional[int]    `json:"size"`
}

func (f widgetForm) Fields() []forms.Field {
	return []forms.Field{
		{Name: "name", Value: f.Name},
		{Name: "size", Value: f.Size},
	}
}

type widgetCodec struct{}

func (widgetCodec) Name() string { return "widget" }

func (widgetCodec) ToStorage(_ context.Context, _ storage.Database, objs []widget) ([]widget, error) {
	return objs, nil
}

func (widgetCodec) ToDomain(_ context.Context, _ storage.Database, recs []widget) ([]widget, error) {
	return recs, nil
}

func (widgetCodec) InlineRefs(_ context.Context, _ storage.Database, _ []bson.M) error {
	return nil
}

type CollectionSuite struct {
	suite.Suite
	ctx context.Context
	db  *storage.Memory
	col *Collection[widget, widget, widgetForm]
}

func TestCollectionSuite(t *testing.T) {
	suite.Run(t, new(CollectionSuite))
}

func (s *CollectionSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = storage.NewMemory()
	s.col = New[widget, widget, widgetForm](s.db, widgetCodec{})
}

func (s *CollectionSuite) TestInsertFormAndFind() {
	id, err := s.col.InsertForm(s.ctx, widgetForm{Name: forms.Some("bolt"), Size: forms.Some(4)})
	s.Require().NoError(err)
	s.NotEqual(bson.ObjectID{}, id)

	got, err := s.col.Find(s.ctx, bson.D{{Key: "name", Value: "bolt"}}, storage.FindOptions{})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(widget{Name: "bolt", Size: 4}, got[0])
}

func (s *CollectionSuite) TestFindNoMatchesReturnsEmptyList() {
	got, err := s.col.Find(s.ctx, bson.D{{Key: "name", Value: "missing"}}, storage.FindOptions{})
	s.Require().NoError(err)
	s.Empty(got)
	s.NotNil(got)
}

func (s *CollectionSuite) TestUpdateUnmatchedIsNotFound() {
	_, err := s.col.Update(s.ctx,
		bson.D{{Key: "_id", Value: bson.NewObjectID()}},
		bson.D{{Key: "size", Value: 9}})
	s.Require().Error(err)
	s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
}

func (s *CollectionSuite) TestUpdateCountsOnlyRealChanges() {
	id, err := s.col.InsertDomain(s.ctx, widget{Name: "bolt", Size: 4})
	s.Require().NoError(err)
	filter := bson.D{{Key: "_id", Value: id}}

	modified, err := s.col.Update(s.ctx, filter, bson.D{{Key: "size", Value: 9}})
	s.Require().NoError(err)
	s.Equal(int64(1), modified)

	// Matched but already at the target value.
	modified, err = s.col.Update(s.ctx, filter, bson.D{{Key: "size", Value: 9}})
	s.Require().NoError(err)
	s.Equal(int64(0), modified)
}

func (s *CollectionSuite) TestInsertAll() {
	ids, err := s.col.InsertAll(s.ctx, []widget{
		{Name: "bolt", Size: 1},
		{Name: "nut", Size: 2},
	})
	s.Require().NoError(err)
	s.Len(ids, 2)

	got, err := s.col.Find(s.ctx, bson.D{}, storage.FindOptions{})
	s.Require().NoError(err)
	s.Len(got, 2)
}

func (s *CollectionSuite) TestInsertAllRejectsWholeBatchOnInvalidRecord() {
	col := New[vetoRecord, vetoRecord, widgetForm](s.db, vetoCodec{})

	_, err := col.InsertAll(s.ctx, []vetoRecord{{Name: "ok"}, {Name: "nope", Bad: true}})
	s.Require().Error(err)
	s.True(domainerrors.HasCode(err, domainerrors.CodeValidation))

	got, err := col.Find(s.ctx, bson.D{}, storage.FindOptions{})
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *CollectionSuite) TestDropAndRecreate() {
	_, err := s.col.InsertDomain(s.ctx, widget{Name: "bolt", Size: 4})
	s.Require().NoError(err)

	s.Require().NoError(s.col.DropAndRecreate(s.ctx))

	got, err := s.col.Find(s.ctx, bson.D{}, storage.FindOptions{})
	s.Require().NoError(err)
	s.Empty(got)
}

type vetoRecord struct {
	Name string `bson:"name" json:"name"`
	Bad  bool   `bson:"bad" json:"bad"`
}

func (r vetoRecord) Validate() error {
	if r.Bad {
		return domainerrors.New(domainerrors.CodeValidation, "record rejected itself")
	}
	return nil
}

type vetoCodec struct{}

func (vetoCodec) Name() string { return "veto" }

func (vetoCodec) ToStorage(_ context.Context, _ storage.Database, objs []vetoRecord) ([]vetoRecord, error) {
	return objs, nil
}

func (vetoCodec) ToDomain(_ context.Context, _ storage.Database, recs []vetoRecord) ([]vetoRecord, error) {
	return recs, nil
}

func (vetoCodec) InlineRefs(_ context.Context, _ storage.Database, _ []bson.M) error {
	return nil
}

func (s *CollectionSuite) TestInsertRunsRecordValidation() {
	col := New[vetoRecord, vetoRecord, widgetForm](s.db, vetoCodec{})

	_, err := col.Insert(s.ctx, vetoRecord{Name: "nope", Bad: true})
	s.Require().Error(err)
	s.True(domainerrors.HasCode(err, domainerrors.CodeValidation))

	got, err := col.Find(s.ctx, bson.D{}, storage.FindOptions{})
	s.Require().NoError(err)
	s.Empty(got)

	_, err = col.Insert(s.ctx, vetoRecord{Name: "ok"})
	s.Require().NoError(err)
}
