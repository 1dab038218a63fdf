package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"toolsnest/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection details.
type MongoConfig struct {
	URI      string
	Database string
	// Timeout bounds every single store operation.
	Timeout time.Duration
}

// MongoDocumentStore is a MongoDB implementation of DocumentStore.
type MongoDocumentStore struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// NewMongoDocumentStore connects to MongoDB using the Stable API and verifies
// the connection with a ping.
func NewMongoDocumentStore(ctx context.Context, cfg MongoConfig) (*MongoDocumentStore, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &MongoDocumentStore{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: cfg.Timeout,
	}
	if err := store.ensureUniqueIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

func (s *MongoDocumentStore) ensureUniqueIndexes(ctx context.Context) error {
	for collection, field := range uniqueFields {
		_, err := s.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create unique index on %s.%s: %w", collection, field, err)
		}
	}
	return nil
}

func (s *MongoDocumentStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// mongoFilter converts a string _id into an ObjectID.
func mongoFilter(filter models.Filter) (bson.M, error) {
	out := bson.M{}
	for k, v := range filter {
		out[k] = v
	}
	raw, ok := filter[models.IDField]
	if !ok {
		return out, nil
	}
	hex, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrInvalidID, raw)
	}
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, hex)
	}
	out[models.IDField] = oid
	return out, nil
}

// fromBSON turns driver values into plain JSON-friendly Go values.
func fromBSON(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.M:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = fromBSON(val)
		}
		return out
	case primitive.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = fromBSON(val)
		}
		return out
	default:
		return v
	}
}

func toDocument(m bson.M) models.Document {
	doc := make(models.Document, len(m))
	for k, v := range m {
		doc[k] = fromBSON(v)
	}
	return doc
}

// FindOne returns the first document matching filter.
func (s *MongoDocumentStore) FindOne(ctx context.Context, collection string, filter models.Filter) (models.Document, error) {
	f, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var m bson.M
	if err := s.db.Collection(collection).FindOne(ctx, f).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s %v: %w", collection, filter, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find in %s: %w", collection, err)
	}
	return toDocument(m), nil
}

// FindMany returns all documents matching filter.
func (s *MongoDocumentStore) FindMany(ctx context.Context, collection string, filter models.Filter) ([]models.Document, error) {
	f, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	cursor, err := s.db.Collection(collection).Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	docs := make([]models.Document, 0, len(rows))
	for _, m := range rows {
		docs = append(docs, toDocument(m))
	}
	return docs, nil
}

// UpsertOne applies patch with $set and upsert enabled.
func (s *MongoDocumentStore) UpsertOne(ctx context.Context, collection string, filter models.Filter, patch models.Document) (*models.UpdateResult, error) {
	f, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	for k, v := range patch {
		if k != models.IDField {
			set[k] = v
		}
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	coll := s.db.Collection(collection)
	res, err := coll.UpdateOne(ctx, f, bson.M{"$set": set}, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent upsert inserted the unique key first; this one now matches it.
		res, err = coll.UpdateOne(ctx, f, bson.M{"$set": set}, options.Update().SetUpsert(true))
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w in %s: %v", ErrDuplicate, collection, err)
		}
		return nil, fmt.Errorf("failed to upsert into %s: %w", collection, err)
	}
	return &models.UpdateResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    fromBSON(res.UpsertedID),
	}, nil
}

// InsertOne inserts doc; the driver generates an ObjectID when _id is absent.
func (s *MongoDocumentStore) InsertOne(ctx context.Context, collection string, doc models.Document) (*models.InsertResult, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	res, err := s.db.Collection(collection).InsertOne(ctx, bson.M(doc))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w in %s: %v", ErrDuplicate, collection, err)
		}
		return nil, fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return &models.InsertResult{InsertedID: fromBSON(res.InsertedID)}, nil
}

// DeleteOne deletes the first document matching filter.
func (s *MongoDocumentStore) DeleteOne(ctx context.Context, collection string, filter models.Filter) (*models.DeleteResult, error) {
	f, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	res, err := s.db.Collection(collection).DeleteOne(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to delete from %s: %w", collection, err)
	}
	return &models.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

// Ping checks the primary is reachable.
func (s *MongoDocumentStore) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoDocumentStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
