package constants

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tenantetl/internal/errs"
)

// DocumentBackend reads business constants from a MongoDB collection of
// {key, value} documents, grounded on BartekS5-IDA's
// internal/etl.MongoToSQLExtractor (mongo.Client/Database/Collection,
// bson.M filters, options.Find paging idiom).
type DocumentBackend struct {
	client     *mongo.Client
	database   string
	collection string
	tenantID   string
}

// NewDocumentBackend connects to uri and scopes reads to one tenant.
func NewDocumentBackend(ctx context.Context, uri, database, collection, tenantID string) (*DocumentBackend, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errs.New(errs.KindConfig, errs.ReasonTransient, "", "constants backend", err)
	}
	if database == "" {
		database = "tenant_constants"
	}
	if collection == "" {
		collection = "business_constants"
	}
	return &DocumentBackend{client: client, database: database, collection: collection, tenantID: tenantID}, nil
}

type constantDoc struct {
	Key   string `bson:"key"`
	Value string `bson:"value"`
}

func (b *DocumentBackend) coll() *mongo.Collection {
	return b.client.Database(b.database).Collection(b.collection)
}

func (b *DocumentBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var doc constantDoc
	err := b.coll().FindOne(ctx, bson.M{"key": NamespacedKey(b.tenantID, key)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return doc.Value, true, nil
}

func (b *DocumentBackend) List(ctx context.Context, prefix string) (map[string]string, error) {
	full := NamespacedKey(b.tenantID, prefix)
	cursor, err := b.coll().Find(ctx, bson.M{"key": bson.M{"$regex": "^" + full}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := map[string]string{}
	for cursor.Next(ctx) {
		var doc constantDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		if strings.HasPrefix(doc.Key, full) {
			out[doc.Key] = doc.Value
		}
	}
	return out, cursor.Err()
}

func (b *DocumentBackend) Close() error {
	return b.client.Disconnect(context.Background())
}
