package models

import "time"

type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodDebitCard    PaymentMethod = "debit_card"
	PaymentMethodPaypal       PaymentMethod = "paypal"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPaypal,
		PaymentMethodBankTransfer, PaymentMethodCash:
		return true
	}
	return false
}

// Payment records one charge attempt against an order. TransactionID is the
// processor's payment-intent id and is how webhook events find their way
// back to the order.
type Payment struct {
	ID            string        `json:"id" bson:"_id"`
	OrderID       string        `json:"order_id" bson:"order_id"`
	CustomerID    string        `json:"customer_id" bson:"customer_id"`
	Amount        float64       `json:"amount" bson:"amount"`
	Currency      string        `json:"currency" bson:"currency"`
	Method        PaymentMethod `json:"method" bson:"method"`
	Status        PaymentStatus `json:"status" bson:"status"`
	TransactionID string        `json:"transaction_id" bson:"transaction_id"`
	IsRefunded    bool          `json:"is_refunded" bson:"is_refunded"`
	RefundAmount  float64       `json:"refund_amount" bson:"refund_amount"`
	RefundDate    *time.Time    `json:"refund_date,omitempty" bson:"refund_date,omitempty"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
}
