package store

import (
	"context"
	"fmt"

	"github.com/aluiziolira/go-scrape-products/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type replacer interface {
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
}

// MongoStore replaces one document per identity, keyed by _id.
type MongoStore struct {
	coll   replacer
	client *mongo.Client
}

// OpenMongo connects to uri and targets database.collection.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &MongoStore{
		coll:   client.Database(database).Collection(collection),
		client: client,
	}, nil
}

// NewMongoStore wraps a collection; tests pass a fake.
func NewMongoStore(coll replacer) *MongoStore {
	return &MongoStore{coll: coll}
}

// Upsert replaces the document with _id == key, inserting it when absent.
func (s *MongoStore) Upsert(ctx context.Context, key string, rec *models.Record) error {
	if err := checkKey(key, rec); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: key}}, recordDocument(key, rec), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert %s: %w", key, err)
	}
	return nil
}

func recordDocument(key string, rec *models.Record) bson.D {
	fields := make(bson.D, 0, rec.Schema().Len())
	for _, f := range rec.Fields() {
		fields = append(fields, bson.E{Key: f.Name, Value: f.Value})
	}
	return bson.D{
		{Key: "_id", Value: key},
		{Key: "url", Value: rec.URL},
		{Key: "scraped_at", Value: rec.ScrapedAt},
		{Key: "fields", Value: fields},
	}
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}
