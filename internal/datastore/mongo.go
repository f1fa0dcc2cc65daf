package datastore

import (
	"context"
	"fmt"

	"github.com/wolfeidau/apiscaffold/internal/config"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoProber struct {
	client   *mongo.Client
	database string
}

func newMongo(s *config.Settings) (*mongoProber, error) {
	opts := options.Client().
		ApplyURI(s.MongoURL).
		SetMaxPoolSize(uint64(max(s.MaxConns(), 0))). // #nosec G115 - clamped to non-negative
		SetConnectTimeout(s.PoolTimeout).
		SetServerSelectionTimeout(s.PoolTimeout)

	// Connect only validates options; sockets are opened on first use.
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongodb client: %w", err)
	}

	return &mongoProber{client: client, database: s.MongoDatabase}, nil
}

func (p *mongoProber) Name() string { return "mongodb" }

func (p *mongoProber) Ping(ctx context.Context) error {
	cmd := bson.D{{Key: "ping", Value: 1}}
	if err := p.client.Database(p.database).RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("failed to ping mongodb database %s: %w", p.database, err)
	}
	return nil
}

func (p *mongoProber) Close() error {
	return p.client.Disconnect(context.Background())
}
