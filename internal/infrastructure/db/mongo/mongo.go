package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultDatabase = "worksheet_system"
)

// Config carries the connection settings for the document store holding
// profiles, credentials, worksheets and features.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect dials the document store and verifies the primary answers a ping
// before any repository is built on it. The feature batch is written inside
// a transaction, which requires majority write concern on the client. Zero
// values in cfg fall back to the defaults above.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	name := cfg.Database
	if name == "" {
		name = defaultDatabase
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout).
		SetWriteConcern(writeconcern.Majority())

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(name), nil
}
