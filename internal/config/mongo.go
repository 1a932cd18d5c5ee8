package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	err = createIndexes(client, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

// ConnectMongoDBDeferred builds a client without requiring the server to be
// reachable. The driver reconnects on its own once the primary comes back,
// so a deployment can boot in fallback mode and heal later.
func ConnectMongoDBDeferred(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("invalid MongoDB configuration: %v", err)
	}
	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	usersCollection := db.Collection("users")
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := usersCollection.Indexes().CreateMany(context.Background(), userIndexes)
	if err != nil {
		return err
	}

	sessionsCollection := db.Collection("sessions")
	sessionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
		},
	}
	_, err = sessionsCollection.Indexes().CreateMany(context.Background(), sessionIndexes)
	if err != nil {
		return err
	}

	documentsCollection := db.Collection("documents")
	documentIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "name", Value: 1}},
		},
	}
	_, err = documentsCollection.Indexes().CreateMany(context.Background(), documentIndexes)
	if err != nil {
		return err
	}

	tenantsCollection := db.Collection("tenants")
	tenantIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "provisioned_at", Value: -1}},
		},
	}
	_, err = tenantsCollection.Indexes().CreateMany(context.Background(), tenantIndexes)

	return err
}
