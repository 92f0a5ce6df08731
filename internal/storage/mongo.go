package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"cosi/pkg/platform/sentinel"
)

// Config carries what Connect needs to reach one logical database.
type Config struct {
	URI      string
	Database string
	AppName  string
}

// Client owns the driver connection and exposes the bound Database handle.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect builds the driver client, verifies the server is reachable, and
// binds the configured database.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Client{client: client, db: client.Database(cfg.Database)}, nil
}

// Database returns the storage handle used by the mapping layer.
func (c *Client) Database() Database {
	return &mongoDatabase{db: c.db}
}

// Disconnect releases the underlying connection pool.
func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

type mongoDatabase struct {
	db *mongo.Database
}

func (d *mongoDatabase) Collection(name string) Collection {
	return &mongoCollection{col: d.db.Collection(name)}
}

func (d *mongoDatabase) CreateCollection(ctx context.Context, name string) error {
	if err := d.db.CreateCollection(ctx, name); err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}
	return nil
}

type mongoCollection struct {
	col *mongo.Collection
}

func (c *mongoCollection) Find(ctx context.Context, filter bson.D, opts FindOptions, results any) error {
	findOpts := options.Find()
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if filter == nil {
		filter = bson.D{}
	}
	cur, err := c.col.Find(ctx, filter, findOpts)
	if err != nil {
		return fmt.Errorf("find: %w", err)
	}
	if err := cur.All(ctx, results); err != nil {
		return fmt.Errorf("decode find results: %w", err)
	}
	return nil
}

func (c *mongoCollection) FindOne(ctx context.Context, filter bson.D, result any) error {
	err := c.col.FindOne(ctx, filter).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find one: %w", err)
	}
	return nil
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc any) (bson.ObjectID, error) {
	res, err := c.col.InsertOne(ctx, doc)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("insert one: %w", err)
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return bson.ObjectID{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid, nil
}

func (c *mongoCollection) InsertMany(ctx context.Context, docs []any) ([]bson.ObjectID, error) {
	res, err := c.col.InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("insert many: %w", err)
	}
	ids := make([]bson.ObjectID, 0, len(res.InsertedIDs))
	for _, raw := range res.InsertedIDs {
		oid, ok := raw.(bson.ObjectID)
		if !ok {
			return nil, fmt.Errorf("unexpected inserted id type %T", raw)
		}
		ids = append(ids, oid)
	}
	return ids, nil
}

func (c *mongoCollection) UpdateOne(ctx context.Context, filter bson.D, update bson.D) (int64, int64, error) {
	res, err := c.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, 0, fmt.Errorf("update one: %w", err)
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

func (c *mongoCollection) CountDocuments(ctx context.Context, filter bson.D) (int64, error) {
	if filter == nil {
		filter = bson.D{}
	}
	n, err := c.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (c *mongoCollection) EstimatedDocumentCount(ctx context.Context) (int64, error) {
	n, err := c.col.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("estimated document count: %w", err)
	}
	return n, nil
}

func (c *mongoCollection) Drop(ctx context.Context) error {
	if err := c.col.Drop(ctx); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return nil
}
