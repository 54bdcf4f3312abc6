package repository

import (
	"context"
	"errors"

	"food-delivery/api/models"
)

var (
	// ErrNotFound is returned when the referenced document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate")
	// ErrConflict is returned when a conditional update lost against the
	// document's current state (busy courier, concurrent transition).
	ErrConflict = errors.New("conflict")
)

// OrderRepository defines operations on Order documents. Status and payment
// updates are conditional find-and-modify calls; the store's per-document
// atomicity is the only concurrency control in the order path.
type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	ListByDeliveryBoy(ctx context.Context, deliveryBoyID string, status models.OrderStatus) ([]models.Order, error)
	// UpdateStatus moves id from `from` to `to` in one conditional update.
	// ErrConflict means the order moved on concurrently.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error)
	// UpdatePaymentStatus sets the payment status unless it already holds
	// that value; the bool reports whether anything changed.
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Order, bool, error)
	SetTransactionID(ctx context.Context, id, transactionID string) error
	ClearDeliveryBoy(ctx context.Context, id string) error
	SetFeedback(ctx context.Context, id, feedback string) error
}

// DeliveryBoyRepository defines operations on courier documents.
type DeliveryBoyRepository interface {
	Create(ctx context.Context, d *models.DeliveryBoy) error
	GetByID(ctx context.Context, id string) (*models.DeliveryBoy, error)
	GetByPhone(ctx context.Context, phone string) (*models.DeliveryBoy, error)
	List(ctx context.Context) ([]models.DeliveryBoy, error)
	// ClaimOrder atomically takes an available courier for the order.
	// ErrConflict means the courier exists but is not available.
	ClaimOrder(ctx context.Context, courierID, orderID string) error
	// ReleaseOrder drops the order from the courier's active list and
	// marks the courier available again.
	ReleaseOrder(ctx context.Context, courierID, orderID string) error
	UpdateStatus(ctx context.Context, id string, status models.CourierStatus) error
	UpdateLocation(ctx context.Context, id string, location models.GeoPoint) error
}

type RestaurantRepository interface {
	Create(ctx context.Context, r *models.Restaurant) error
	GetByID(ctx context.Context, id string) (*models.Restaurant, error)
	List(ctx context.Context) ([]models.Restaurant, error)
	Update(ctx context.Context, r *models.Restaurant) error
	Delete(ctx context.Context, id string) error
}

type MenuRepository interface {
	Create(ctx context.Context, item *models.MenuItem) error
	GetByID(ctx context.Context, id string) (*models.MenuItem, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]models.MenuItem, error)
	Update(ctx context.Context, item *models.MenuItem) error
	Delete(ctx context.Context, restaurantID, id string) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]models.Payment, error)
	UpdateStatusByTransaction(ctx context.Context, transactionID string, status models.PaymentStatus) error
}

// Store bundles the repositories the handlers need.
type Store struct {
	Orders       OrderRepository
	DeliveryBoys DeliveryBoyRepository
	Restaurants  RestaurantRepository
	MenuItems    MenuRepository
	Payments     PaymentRepository
}
