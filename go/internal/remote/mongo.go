package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mcdev12/scout/go/internal/models"
)

// MongoStore keeps each collection as a MongoDB collection keyed by _id
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	clock  clockwork.Clock
}

// NewMongoClient connects and pings a MongoDB deployment
func NewMongoClient(ctx context.Context, url string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(url).
		SetMaxPoolSize(16).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// NewMongoStore creates a store over database
func NewMongoStore(client *mongo.Client, database string, clock clockwork.Clock) *MongoStore {
	return &MongoStore{
		client: client,
		db:     client.Database(database),
		clock:  clock,
	}
}

// EnsureIndexes creates the change-field index used by pulls
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	for _, name := range []string{CollectionTeams, CollectionPlayers, CollectionMatches, CollectionActions} {
		_, err := s.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: ChangedAtField, Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", name, err)
		}
	}
	return nil
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return fromBSON(raw), nil
}

func (s *MongoStore) PutMerge(ctx context.Context, collection, id string, doc Document) error {
	set := bson.M{}
	for k, v := range withChangedAt(doc, models.FormatTime(s.clock.Now())) {
		set[k] = v
	}

	_, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) QueryChangedSince(ctx context.Context, collection string, since time.Time) ([]Document, error) {
	cur, err := s.db.Collection(collection).Find(ctx,
		bson.M{ChangedAtField: bson.M{"$gt": models.FormatTime(since)}},
		options.Find().SetSort(bson.D{{Key: ChangedAtField, Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var out []Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", collection, err)
		}
		out = append(out, fromBSON(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", collection, err)
	}
	return out, nil
}

// fromBSON drops the Mongo key; the id field travels in the body
func fromBSON(raw bson.M) Document {
	doc := make(Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}
	return doc
}
