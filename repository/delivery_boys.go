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

type mongoDeliveryBoyRepo struct {
	collection *mongo.Collection
}

func (r *mongoDeliveryBoyRepo) Create(ctx context.Context, d *models.DeliveryBoy) error {
	if _, err := r.collection.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("cannot create delivery boy: %w", err)
	}
	return nil
}

func (r *mongoDeliveryBoyRepo) GetByID(ctx context.Context, id string) (*models.DeliveryBoy, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoDeliveryBoyRepo) GetByPhone(ctx context.Context, phone string) (*models.DeliveryBoy, error) {
	return r.findOne(ctx, bson.M{"phone_number": phone})
}

func (r *mongoDeliveryBoyRepo) findOne(ctx context.Context, filter bson.M) (*models.DeliveryBoy, error) {
	var d models.DeliveryBoy
	err := r.collection.FindOne(ctx, filter).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cannot get delivery boy: %w", err)
	}
	return &d, nil
}

func (r *mongoDeliveryBoyRepo) List(ctx context.Context) ([]models.DeliveryBoy, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list delivery boys: %w", err)
	}
	defer cursor.Close(ctx)

	var result []models.DeliveryBoy
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode delivery boys: %w", err)
	}
	return result, nil
}

// ClaimOrder marks an available courier busy and appends the order to its
// active list in one conditional update, so two concurrent placements can
// never claim the same courier.
func (r *mongoDeliveryBoyRepo) ClaimOrder(ctx context.Context, courierID, orderID string) error {
	filter := bson.M{"_id": courierID, "status": models.CourierStatusAvailable}
	update := bson.M{
		"$set":  bson.M{"status": models.CourierStatusBusy, "updated_at": time.Now()},
		"$push": bson.M{"orders": orderID},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot claim order: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	if _, getErr := r.GetByID(ctx, courierID); getErr != nil {
		return getErr
	}
	return ErrConflict
}

func (r *mongoDeliveryBoyRepo) ReleaseOrder(ctx context.Context, courierID, orderID string) error {
	update := bson.M{
		"$pull": bson.M{"orders": orderID},
		"$set":  bson.M{"status": models.CourierStatusAvailable, "updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": courierID}, update)
	if err != nil {
		return fmt.Errorf("cannot release order: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoDeliveryBoyRepo) UpdateStatus(ctx context.Context, id string, status models.CourierStatus) error {
	return r.setFields(ctx, id, bson.M{"status": status})
}

func (r *mongoDeliveryBoyRepo) UpdateLocation(ctx context.Context, id string, location models.GeoPoint) error {
	return r.setFields(ctx, id, bson.M{"location": location})
}

func (r *mongoDeliveryBoyRepo) setFields(ctx context.Context, id string, fields bson.M) error {
	fields["updated_at"] = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("cannot update delivery boy: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
