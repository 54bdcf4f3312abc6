package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPrepared  OrderStatus = "prepared"
	OrderStatusPickedUp  OrderStatus = "picked up"
	OrderStatusOnTheWay  OrderStatus = "on the way"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// orderFlow is the allowed forward transition graph. An order may always
// re-apply its current status (idempotent updates re-emit the broadcast
// event). Delivered and canceled are terminal.
var orderFlow = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPrepared, OrderStatusCanceled},
	OrderStatusPrepared:  {OrderStatusPickedUp, OrderStatusCanceled},
	OrderStatusPickedUp:  {OrderStatusOnTheWay},
	OrderStatusOnTheWay:  {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCanceled:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderFlow[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range orderFlow[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

type Order struct {
	ID                    string          `json:"id" bson:"_id"`
	CustomerID            string          `json:"customer_id" bson:"customer_id"`
	RestaurantID          string          `json:"restaurant_id" bson:"restaurant_id"`
	DeliveryBoyID         string          `json:"delivery_boy_id,omitempty" bson:"delivery_boy_id,omitempty"`
	Items                 []OrderItem     `json:"items" bson:"items"`
	TotalAmount           float64         `json:"total_amount" bson:"total_amount"`
	Status                OrderStatus     `json:"status" bson:"status"`
	PaymentStatus         PaymentStatus   `json:"payment_status" bson:"payment_status"`
	TransactionID         string          `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	DeliveryAddress       DeliveryAddress `json:"delivery_address" bson:"delivery_address"`
	EstimatedDeliveryTime *time.Time      `json:"estimated_delivery_time,omitempty" bson:"estimated_delivery_time,omitempty"`
	Feedback              string          `json:"feedback,omitempty" bson:"feedback,omitempty"`
	CreatedAt             time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at" bson:"updated_at"`
}

type OrderItem struct {
	MenuItemID string  `json:"menu_item_id" bson:"menu_item_id"`
	Quantity   int     `json:"quantity" bson:"quantity"`
	UnitPrice  float64 `json:"unit_price" bson:"unit_price"`
}

type DeliveryAddress struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	ZipCode string `json:"zip_code" bson:"zip_code"`
	Country string `json:"country" bson:"country"`
}

func (a DeliveryAddress) Complete() bool {
	return a.Street != "" && a.City != "" && a.State != "" && a.ZipCode != "" && a.Country != ""
}

// Total sums unit price times quantity over all items. Orders are stored
// with this value so the invariant holds regardless of client input.
func Total(items []OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}
