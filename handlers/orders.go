package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"food-delivery/api/broadcast"
	"food-delivery/api/models"
	"food-delivery/api/repository"
)

type placeOrderRequest struct {
	CustomerID      string                 `json:"customer_id"`
	RestaurantID    string                 `json:"restaurant_id"`
	Items           []placeOrderItem       `json:"items"`
	DeliveryAddress models.DeliveryAddress `json:"delivery_address"`
	DeliveryBoyID   string                 `json:"delivery_boy_id"`
	DeviceToken     string                 `json:"device_token"`
}

type placeOrderItem struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// placeOrder creates a pending order. The order document is the commit
// point: courier assignment, broadcast and push notification are post-commit
// steps that degrade without rolling the order back.
// @Summary Place a new order
// @Tags Orders
// @Accept json
// @Produce json
// @Success 201 {object} models.Order
// @Router /api/orders [post]
func (s *Server) placeOrder(c *fiber.Ctx) error {
	var req placeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.CustomerID == "" || req.RestaurantID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "customer_id and restaurant_id are required")
	}
	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.MenuItemID == "" || item.Quantity < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "each item needs a menu_item_id and a quantity of at least 1")
		}
	}
	if !req.DeliveryAddress.Complete() {
		return fiber.NewError(fiber.StatusBadRequest, "delivery address must include street, city, state, zip code and country")
	}

	ctx := c.UserContext()

	restaurant, err := s.store.Restaurants.GetByID(ctx, req.RestaurantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "restaurant not found")
		}
		return err
	}

	// Unit prices come from the menu, never from the client, so the total
	// invariant holds by construction.
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, reqItem := range req.Items {
		menuItem, err := s.store.MenuItems.GetByID(ctx, reqItem.MenuItemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "unknown menu item "+reqItem.MenuItemID)
			}
			return err
		}
		if menuItem.RestaurantID != restaurant.ID {
			return fiber.NewError(fiber.StatusBadRequest, "menu item "+reqItem.MenuItemID+" does not belong to this restaurant")
		}
		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Quantity:   reqItem.Quantity,
			UnitPrice:  menuItem.Price,
		})
	}

	now := time.Now()
	order := &models.Order{
		ID:              uuid.New().String(),
		CustomerID:      req.CustomerID,
		RestaurantID:    restaurant.ID,
		DeliveryBoyID:   req.DeliveryBoyID,
		Items:           items,
		TotalAmount:     models.Total(items),
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		DeliveryAddress: req.DeliveryAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Orders.Create(ctx, order); err != nil {
		return err
	}

	assigned := false
	if req.DeliveryBoyID != "" {
		if err := s.store.DeliveryBoys.ClaimOrder(ctx, req.DeliveryBoyID, order.ID); err != nil {
			// The courier was taken (or vanished) between checkout and
			// commit. Keep the order, drop the assignment.
			log.Printf("cannot assign order %s to courier %s: %v", order.ID, req.DeliveryBoyID, err)
			if clearErr := s.store.Orders.ClearDeliveryBoy(ctx, order.ID); clearErr != nil {
				log.Printf("cannot clear courier from order %s: %v", order.ID, clearErr)
			}
			order.DeliveryBoyID = ""
		} else {
			assigned = true
		}
	}

	if assigned {
		s.publisher.Publish(broadcast.EventNewOrder, order)
	}
	if req.DeviceToken != "" {
		s.notifier.Push(req.DeviceToken, "Order Placed Successfully!",
			fmt.Sprintf("Your order #%s has been placed and is being prepared.", order.ID))
	}

	s.audit.Record("order_placed", map[string]interface{}{
		"order_id":      order.ID,
		"customer_id":   order.CustomerID,
		"restaurant_id": order.RestaurantID,
		"total_amount":  order.TotalAmount,
	})
	ordersPlaced.Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order placed successfully",
		"order":   order,
	})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// updateOrderStatus applies one transition of the order state machine and
// broadcasts the updated order. Re-applying the current status is allowed
// and re-emits the event.
// @Summary Update order status
// @Tags Orders
// @Router /api/orders/{id}/status [put]
func (s *Server) updateOrderStatus(c *fiber.Ctx) error {
	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	next := models.OrderStatus(req.Status)
	if !next.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order status "+req.Status)
	}

	ctx := c.UserContext()
	id := c.Params("id")

	order, err := s.store.Orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}
	if !order.Status.CanTransitionTo(next) {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("cannot transition order from %q to %q", order.Status, next))
	}

	updated, err := s.store.Orders.UpdateStatus(ctx, id, order.Status, next)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fiber.NewError(fiber.StatusConflict, "order status changed concurrently, retry")
		}
		return err
	}

	if next.Terminal() && updated.DeliveryBoyID != "" {
		if err := s.store.DeliveryBoys.ReleaseOrder(ctx, updated.DeliveryBoyID, updated.ID); err != nil {
			log.Printf("cannot release courier %s from order %s: %v", updated.DeliveryBoyID, updated.ID, err)
		}
	}

	s.publisher.Publish(broadcast.EventOrderStatusUpdated, updated)
	s.audit.Record("order_status_updated", map[string]interface{}{
		"order_id": updated.ID,
		"status":   string(updated.Status),
	})
	orderStatusUpdates.Inc()

	return c.JSON(fiber.Map{
		"message": "Order status updated successfully",
		"order":   updated,
	})
}

type restaurantSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type courierSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

type orderDetails struct {
	*models.Order
	Restaurant  *restaurantSummary `json:"restaurant,omitempty"`
	DeliveryBoy *courierSummary    `json:"delivery_boy,omitempty"`
}

// getOrder returns the order joined with restaurant and courier summaries.
// @Summary Get order details
// @Tags Orders
// @Router /api/orders/{id} [get]
func (s *Server) getOrder(c *fiber.Ctx) error {
	ctx := c.UserContext()

	order, err := s.store.Orders.GetByID(ctx, c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	details := orderDetails{Order: order}
	if restaurant, err := s.store.Restaurants.GetByID(ctx, order.RestaurantID); err == nil {
		details.Restaurant = &restaurantSummary{ID: restaurant.ID, Name: restaurant.Name}
	}
	if order.DeliveryBoyID != "" {
		if courier, err := s.store.DeliveryBoys.GetByID(ctx, order.DeliveryBoyID); err == nil {
			details.DeliveryBoy = &courierSummary{
				ID:          courier.ID,
				Name:        courier.Name,
				PhoneNumber: courier.PhoneNumber,
			}
		}
	}

	return c.JSON(details)
}

// @Summary List a customer's orders
// @Tags Orders
// @Router /api/orders/user/{userID} [get]
func (s *Server) listUserOrders(c *fiber.Ctx) error {
	orders, err := s.store.Orders.ListByCustomer(c.UserContext(), c.Params("userID"))
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// listDeliveryBoyOrders returns a courier's order queue, optionally filtered
// by status.
// @Summary List a courier's orders
// @Tags Orders
// @Router /api/orders/delivery-boy/{id} [get]
func (s *Server) listDeliveryBoyOrders(c *fiber.Ctx) error {
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order status "+string(status))
	}

	orders, err := s.store.Orders.ListByDeliveryBoy(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

// @Summary Submit feedback for a delivered order
// @Tags Orders
// @Router /api/orders/{id}/feedback [post]
func (s *Server) submitFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Feedback == "" {
		return fiber.NewError(fiber.StatusBadRequest, "feedback is required")
	}

	ctx := c.UserContext()
	order, err := s.store.Orders.GetByID(ctx, c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}
	if order.Status != models.OrderStatusDelivered {
		return fiber.NewError(fiber.StatusBadRequest, "feedback can only be submitted for delivered orders")
	}

	if err := s.store.Orders.SetFeedback(ctx, order.ID, req.Feedback); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Feedback submitted successfully"})
}
