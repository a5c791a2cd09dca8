package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	DefaultDatabase   = "cms"
	DefaultCollection = "articles"
	connectTimeout    = 10 * time.Second
)

type ClientConfig struct {
	URI        string
	Database   string
	Collection string
}

type Client struct {
	client *mongo.Client
	cfg    ClientConfig
}

func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	slog.Info("Connected to MongoDB", "database", cfg.Database, "collection", cfg.Collection)
	return &Client{client: client, cfg: cfg}, nil
}

func (c *Client) collection() *mongo.Collection {
	return c.client.Database(c.cfg.Database).Collection(c.cfg.Collection)
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}
