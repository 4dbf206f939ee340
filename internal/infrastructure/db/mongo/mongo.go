package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	AppName  string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// IndexEnsurer is implemented by every repository that owns indexes.
type IndexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes runs EnsureIndexes on each repository in order.
func EnsureIndexes(ctx context.Context, repos ...IndexEnsurer) error {
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

// mapFindErr turns a missing document into a domain not-found error.
func mapFindErr(err error, entity, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.NotFound(entity, id)
	}
	return fmt.Errorf("find %s: %w", entity, err)
}

func createIndexes(ctx context.Context, col *mongo.Collection, indexes []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("ensure %s indexes: %w", col.Name(), err)
	}
	return nil
}

func decodeAll[D any, T any](ctx context.Context, cur *mongo.Cursor, convert func(*D) *T) ([]*T, error) {
	defer cur.Close(ctx)

	out := make([]*T, 0)
	for cur.Next(ctx) {
		var doc D
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, convert(&doc))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
