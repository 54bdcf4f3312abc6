package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// NewMongoStore wires the Mongo-backed repositories and creates the unique
// and lookup indexes the schemas rely on.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}

	return &Store{
		Orders:       &mongoOrderRepo{collection: db.Collection("orders")},
		DeliveryBoys: &mongoDeliveryBoyRepo{collection: db.Collection("delivery_boys")},
		Restaurants:  &mongoRestaurantRepo{collection: db.Collection("restaurants")},
		MenuItems:    &mongoMenuRepo{collection: db.Collection("menu_items")},
		Payments:     &mongoPaymentRepo{collection: db.Collection("payments")},
	}, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		"orders": {
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
			{Keys: bson.D{{Key: "restaurant_id", Value: 1}}},
			{Keys: bson.D{{Key: "delivery_boy_id", Value: 1}}},
			{Keys: bson.D{{Key: "transaction_id", Value: 1}}},
		},
		"delivery_boys": {
			{Keys: bson.D{{Key: "phone_number", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
		"restaurants": {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
		"menu_items": {
			{Keys: bson.D{{Key: "restaurant_id", Value: 1}}},
		},
		"payments": {
			{Keys: bson.D{{Key: "transaction_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "order_id", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", name, err)
		}
	}
	return nil
}
