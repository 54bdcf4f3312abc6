package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"food-delivery/api/models"
)

type mongoOrderRepo struct {
	collection *mongo.Collection
}

func (r *mongoOrderRepo) Create(ctx context.Context, o *models.Order) error {
	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("cannot create order: %w", err)
	}
	return nil
}

func (r *mongoOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoOrderRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"transaction_id": transactionID})
}

func (r *mongoOrderRepo) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var o models.Order
	err := r.collection.FindOne(ctx, filter).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return &o, nil
}

func (r *mongoOrderRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return r.list(ctx, bson.M{"customer_id": customerID})
}

func (r *mongoOrderRepo) ListByDeliveryBoy(ctx context.Context, deliveryBoyID string, status models.OrderStatus) ([]models.Order, error) {
	filter := bson.M{"delivery_boy_id": deliveryBoyID}
	if status != "" {
		filter["status"] = status
	}
	return r.list(ctx, filter)
}

func (r *mongoOrderRepo) list(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []models.Order
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}
	return result, nil
}

func (r *mongoOrderRepo) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var o models.Order
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&o)
	if err == nil {
		return &o, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("cannot update order status: %w", err)
	}

	// No match: either the order is gone or someone moved it first.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrConflict
}

func (r *mongoOrderRepo) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Order, bool, error) {
	filter := bson.M{"_id": id, "payment_status": bson.M{"$ne": status}}
	update := bson.M{"$set": bson.M{"payment_status": status, "updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var o models.Order
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&o)
	if err == nil {
		return &o, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("cannot update payment status: %w", err)
	}

	// Already at the target status, or missing entirely.
	existing, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, false, getErr
	}
	return existing, false, nil
}

func (r *mongoOrderRepo) SetTransactionID(ctx context.Context, id, transactionID string) error {
	return r.setFields(ctx, id, bson.M{"transaction_id": transactionID})
}

func (r *mongoOrderRepo) ClearDeliveryBoy(ctx context.Context, id string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{"delivery_boy_id": ""},
		"$set":   bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("cannot clear delivery boy: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoOrderRepo) SetFeedback(ctx context.Context, id, feedback string) error {
	return r.setFields(ctx, id, bson.M{"feedback": feedback})
}

func (r *mongoOrderRepo) setFields(ctx context.Context, id string, fields bson.M) error {
	fields["updated_at"] = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("cannot update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
