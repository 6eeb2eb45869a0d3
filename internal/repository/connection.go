package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const legacyCartTTLIndex = "updated_at_1"

const (
	cartsCollection    = "carts"
	productsCollection = "products"
	ticketsCollection  = "tickets"
	usersCollection    = "users"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// EnsureIndexes creates the indexes every collection relies on. The unique
// index on tickets.code is what makes ticket codes unique, not the generator.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		ticketsCollection: {
			{
				Keys:    bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "published_at", Value: 1}, {Key: "purchase_datetime", Value: 1}},
			},
		},
		productsCollection: {
			{
				Keys:    bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "category", Value: 1}},
			},
		},
		usersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "reset_password_token", Value: 1}},
				Options: options.Index().SetSparse(true),
			},
		},
	}

	// Registered users keep the same cart ID for life, so carts must never
	// expire. Older deployments created a TTL index on updated_at.
	if _, err := db.Collection(cartsCollection).Indexes().DropOne(ctx, legacyCartTTLIndex); err != nil && !isMissingIndex(err) {
		return fmt.Errorf("failed to drop cart TTL index: %w", err)
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}

	return nil
}

func isMissingIndex(err error) bool {
	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	// 26 NamespaceNotFound, 27 IndexNotFound
	return cmdErr.Code == 26 || cmdErr.Code == 27
}
