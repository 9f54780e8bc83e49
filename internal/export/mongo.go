package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/efdb-export/internal/types"
)

// MongoSink writes the three datasets to MongoDB collections named
// items, facilities and recipes. Each run drops and reinserts the
// collections, so reruns replace the data like the JSON files do.
type MongoSink struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *slog.Logger
}

// NewMongoSink connects to MongoDB and verifies the connection.
func NewMongoSink(uri, database string, logger *slog.Logger) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoSink{
		client:   client,
		database: client.Database(database),
		logger:   logger.With("component", "mongo_sink"),
	}, nil
}

func (s *MongoSink) Name() string { return "mongodb" }

func (s *MongoSink) Write(ctx context.Context, ds *Dataset) error {
	if err := s.replace(ctx, "items", toDocs(ds.Items())); err != nil {
		return err
	}
	if err := s.replace(ctx, "facilities", toDocs(ds.Facilities())); err != nil {
		return err
	}
	return s.replace(ctx, "recipes", toDocs(ds.Recipes()))
}

// replace drops a collection and inserts the new documents.
func (s *MongoSink) replace(ctx context.Context, name string, docs []any) error {
	coll := s.database.Collection(name)

	if err := coll.Drop(ctx); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("drop %s: %w", name, err)}
	}
	if len(docs) == 0 {
		return nil
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("insert %s: %w", name, err)}
	}

	s.logger.Debug("collection replaced", "collection", name, "count", len(docs))
	return nil
}

func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// toDocs widens a typed record slice for InsertMany.
func toDocs[T any](records []T) []any {
	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = r
	}
	return docs
}
