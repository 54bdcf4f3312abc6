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

type mongoPaymentRepo struct {
	collection *mongo.Collection
}

func (r *mongoPaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	if _, err := r.collection.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("cannot create payment: %w", err)
	}
	return nil
}

func (r *mongoPaymentRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	var p models.Payment
	err := r.collection.FindOne(ctx, bson.M{"transaction_id": transactionID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cannot get payment: %w", err)
	}
	return &p, nil
}

func (r *mongoPaymentRepo) ListByOrder(ctx context.Context, orderID string) ([]models.Payment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"order_id": orderID})
	if err != nil {
		return nil, fmt.Errorf("cannot list payments: %w", err)
	}
	defer cursor.Close(ctx)

	var result []models.Payment
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode payments: %w", err)
	}
	return result, nil
}

func (r *mongoPaymentRepo) UpdateStatusByTransaction(ctx context.Context, transactionID string, status models.PaymentStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"transaction_id": transactionID}, update)
	if err != nil {
		return fmt.Errorf("cannot update payment status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
