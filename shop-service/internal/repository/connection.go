package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions configures the client behind MongoMessageLog. Zero values
// leave the driver defaults in place.
type MongoOptions struct {
	URI                    string
	Database               string
	MaxPoolSize            uint64
	MinPoolSize            uint64
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

func (o MongoOptions) clientOptions() *options.ClientOptions {
	opts := options.Client().ApplyURI(o.URI)
	if o.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		opts.SetMinPoolSize(o.MinPoolSize)
	}
	if o.ConnectTimeout > 0 {
		opts.SetConnectTimeout(o.ConnectTimeout)
	}
	if o.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(o.ServerSelectionTimeout)
	}
	return opts
}

// ConnectMongoDB dials and pings MongoDB. The caller owns the client and
// releases it through MongoMessageLog.Close.
func ConnectMongoDB(ctx context.Context, o MongoOptions) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, o.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(o.Database), nil
}
