package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// indexDoc is one entry of listIndexes.
type indexDoc struct {
	Name string `bson:"name"`
	Key  bson.D `bson:"key"`
}

// backend is the slice of the driver the store needs, bound to one collection.
type backend interface {
	Ping(ctx context.Context) error
	CollectionNames(ctx context.Context, name string) ([]string, error)
	ListIndexes(ctx context.Context) ([]indexDoc, error)
	CreateIndex(ctx context.Context, keys bson.D, name string) error
	Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]bson.M, error)
	Disconnect(ctx context.Context) error
}

type driver struct {
	client *mongo.Client
	db     *mongo.Database
	coll   *mongo.Collection
}

func newDriver(client *mongo.Client, database, collection string) *driver {
	d := client.Database(database)
	return &driver{client: client, db: d, coll: d.Collection(collection)}
}

func (d *driver) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

func (d *driver) CollectionNames(ctx context.Context, name string) ([]string, error) {
	return d.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
}

func (d *driver) ListIndexes(ctx context.Context) ([]indexDoc, error) {
	cur, err := d.coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	var out []indexDoc
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *driver) CreateIndex(ctx context.Context, keys bson.D, name string) error {
	_, err := d.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetName(name),
	})
	return err
}

func (d *driver) Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]bson.M, error) {
	cur, err := d.coll.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, err
	}
	var out []bson.M
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *driver) Disconnect(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
