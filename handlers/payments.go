package handlers

import (
	"errors"
	"log"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"food-delivery/api/broadcast"
	"food-delivery/api/models"
	"food-delivery/api/payment"
	"food-delivery/api/repository"
)

type createIntentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// createPaymentIntent opens a payment on the processor and hands the client
// secret back to the caller for client-side confirmation.
// @Summary Create a payment intent
// @Tags Payments
// @Router /api/payments/create-payment-intent [post]
func (s *Server) createPaymentIntent(c *fiber.Ctx) error {
	var req createIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Amount <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "amount must be greater than zero")
	}
	if req.Currency == "" {
		req.Currency = "usd"
	}

	intent, err := s.proc.CreateIntent(c.UserContext(), req.Amount, req.Currency)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"clientSecret": intent.ClientSecret})
}

type confirmPaymentRequest struct {
	OrderID         string `json:"order_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Method          string `json:"method"`
	PaymentMethodID string `json:"payment_method_id"`
}

// confirmPayment charges the order in one server-side call and records the
// payment document. A declined card is a client error; the order keeps its
// pending payment status and the client may retry.
// @Summary Confirm a payment for an order
// @Tags Payments
// @Router /api/payments [post]
func (s *Server) confirmPayment(c *fiber.Ctx) error {
	var req confirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OrderID == "" || req.PaymentMethodID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "order_id and payment_method_id are required")
	}
	method := models.PaymentMethod(req.Method)
	if !method.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment method "+req.Method)
	}
	if req.Currency == "" {
		req.Currency = "usd"
	}

	ctx := c.UserContext()

	order, err := s.store.Orders.GetByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}
	if order.PaymentStatus == models.PaymentStatusCompleted {
		return fiber.NewError(fiber.StatusConflict, "order is already paid")
	}

	amount := req.Amount
	if amount <= 0 {
		// Totals are stored as float dollars; rounding keeps the charged
		// cents equal to the order total for amounts like 19.99 whose
		// product is not exactly representable.
		amount = int64(math.Round(order.TotalAmount * 100))
	}

	intent, err := s.proc.ConfirmPayment(ctx, amount, req.Currency, req.PaymentMethodID)
	if err != nil {
		return err
	}

	pay := &models.Payment{
		ID:            uuid.New().String(),
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		Amount:        float64(amount) / 100,
		Currency:      req.Currency,
		Method:        method,
		Status:        models.PaymentStatusPending,
		TransactionID: intent.ID,
		CreatedAt:     time.Now(),
	}
	if intent.Status == "succeeded" {
		pay.Status = models.PaymentStatusCompleted
	}
	if err := s.store.Payments.Create(ctx, pay); err != nil {
		return err
	}
	if err := s.store.Orders.SetTransactionID(ctx, order.ID, intent.ID); err != nil {
		return err
	}

	// The webhook is the source of truth for the final payment status, but
	// a synchronous success is applied immediately so polling clients see it.
	if pay.Status == models.PaymentStatusCompleted {
		if updated, changed, err := s.store.Orders.UpdatePaymentStatus(ctx, order.ID, models.PaymentStatusCompleted); err != nil {
			log.Printf("cannot mark order %s paid: %v", order.ID, err)
		} else if changed {
			s.publisher.Publish(broadcast.EventOrderStatusUpdated, updated)
		}
	}

	s.audit.Record("payment_confirmed", map[string]interface{}{
		"order_id":       order.ID,
		"transaction_id": intent.ID,
		"status":         string(pay.Status),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment processed",
		"payment": pay,
	})
}

// @Summary Get payment status for an order
// @Tags Payments
// @Router /api/payments/{id} [get]
func (s *Server) getPaymentStatus(c *fiber.Ctx) error {
	payments, err := s.store.Payments.ListByOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if len(payments) == 0 {
		return fiber.NewError(fiber.StatusNotFound, "no payments for this order")
	}
	return c.JSON(payments)
}

// handlePaymentWebhook applies processor callbacks to order and payment
// documents. Verification failures are the only 4xx answer; everything past
// the signature check returns 200 so the processor stops redelivering.
// Replays are dropped by event-id dedup and by the conditional payment
// status update behind it.
// @Summary Payment processor webhook
// @Tags Payments
// @Router /api/payments/notification [post]
func (s *Server) handlePaymentWebhook(c *fiber.Ctx) error {
	event, err := payment.ParseWebhook(c.Body(), c.Get("Stripe-Signature"), s.cfg.Stripe.WebhookSecret)
	if err != nil {
		paymentWebhooks.WithLabelValues("invalid_signature").Inc()
		return fiber.NewError(fiber.StatusBadRequest, "webhook signature verification failed")
	}

	var status models.PaymentStatus
	switch event.Type {
	case payment.EventPaymentSucceeded:
		status = models.PaymentStatusCompleted
	case payment.EventPaymentFailed:
		status = models.PaymentStatusFailed
	default:
		paymentWebhooks.WithLabelValues("ignored").Inc()
		return c.JSON(fiber.Map{"received": true})
	}

	ctx := c.UserContext()

	order, err := s.store.Orders.GetByTransactionID(ctx, event.IntentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Intent from another environment or a deleted order. Ack so
			// the processor does not retry forever.
			log.Printf("webhook %s references unknown intent %s", event.ID, event.IntentID)
			paymentWebhooks.WithLabelValues("unknown_intent").Inc()
			return c.JSON(fiber.Map{"received": true})
		}
		return err
	}

	updated, changed, err := s.store.Orders.UpdatePaymentStatus(ctx, order.ID, status)
	if err != nil {
		// The event id stays unconsumed: the 500 makes the processor
		// redeliver and the retry gets a clean run at the update.
		return err
	}

	first, err := s.dedup.Once(ctx, "stripe:"+event.ID)
	if err != nil {
		log.Printf("webhook dedup check failed for %s: %v", event.ID, err)
	} else if !first {
		paymentWebhooks.WithLabelValues("duplicate").Inc()
		return c.JSON(fiber.Map{"received": true})
	}

	if changed {
		if err := s.store.Payments.UpdateStatusByTransaction(ctx, event.IntentID, status); err != nil {
			log.Printf("cannot update payment record for intent %s: %v", event.IntentID, err)
		}
		s.publisher.Publish(broadcast.EventOrderStatusUpdated, updated)
		s.audit.Record("payment_webhook_applied", map[string]interface{}{
			"order_id":       updated.ID,
			"transaction_id": event.IntentID,
			"payment_status": string(status),
		})
	}
	paymentWebhooks.WithLabelValues("processed").Inc()

	return c.JSON(fiber.Map{"received": true})
}
