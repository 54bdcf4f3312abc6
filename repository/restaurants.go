package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"food-delivery/api/models"
)

type mongoRestaurantRepo struct {
	collection *mongo.Collection
}

func (r *mongoRestaurantRepo) Create(ctx context.Context, rest *models.Restaurant) error {
	if _, err := r.collection.InsertOne(ctx, rest); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("cannot create restaurant: %w", err)
	}
	return nil
}

func (r *mongoRestaurantRepo) GetByID(ctx context.Context, id string) (*models.Restaurant, error) {
	var rest models.Restaurant
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cannot get restaurant: %w", err)
	}
	return &rest, nil
}

func (r *mongoRestaurantRepo) List(ctx context.Context) ([]models.Restaurant, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list restaurants: %w", err)
	}
	defer cursor.Close(ctx)

	var result []models.Restaurant
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode restaurants: %w", err)
	}
	return result, nil
}

func (r *mongoRestaurantRepo) Update(ctx context.Context, rest *models.Restaurant) error {
	rest.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rest.ID}, rest)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("cannot update restaurant: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRestaurantRepo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete restaurant: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoMenuRepo struct {
	collection *mongo.Collection
}

func (r *mongoMenuRepo) Create(ctx context.Context, item *models.MenuItem) error {
	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("cannot create menu item: %w", err)
	}
	return nil
}

func (r *mongoMenuRepo) GetByID(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cannot get menu item: %w", err)
	}
	return &item, nil
}

func (r *mongoMenuRepo) ListByRestaurant(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"restaurant_id": restaurantID})
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var result []models.MenuItem
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode menu items: %w", err)
	}
	return result, nil
}

func (r *mongoMenuRepo) Update(ctx context.Context, item *models.MenuItem) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": item.ID, "restaurant_id": item.RestaurantID}, item)
	if err != nil {
		return fmt.Errorf("cannot update menu item: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoMenuRepo) Delete(ctx context.Context, restaurantID, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "restaurant_id": restaurantID})
	if err != nil {
		return fmt.Errorf("cannot delete menu item: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
