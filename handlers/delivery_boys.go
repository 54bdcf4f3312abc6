package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"food-delivery/api/models"
	"food-delivery/api/repository"
)

type registerCourierRequest struct {
	Name           string                `json:"name"`
	PhoneNumber    string                `json:"phone_number"`
	Password       string                `json:"password"`
	VehicleDetails models.VehicleDetails `json:"vehicle_details"`
	Longitude      float64               `json:"longitude"`
	Latitude       float64               `json:"latitude"`
}

// @Summary Register a new delivery boy
// @Tags DeliveryBoys
// @Router /api/delivery-boys/register [post]
func (s *Server) registerDeliveryBoy(c *fiber.Ctx) error {
	var req registerCourierRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if !models.ValidPhoneNumber(req.PhoneNumber) {
		return fiber.NewError(fiber.StatusBadRequest, "phone number must be 10 digits")
	}
	if len(req.Password) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}
	if !req.VehicleDetails.Validate() {
		return fiber.NewError(fiber.StatusBadRequest, "vehicle details must include a valid type, model and license plate")
	}
	location := models.NewGeoPoint(req.Longitude, req.Latitude)
	if !location.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "location coordinates are out of range")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	courier := &models.DeliveryBoy{
		ID:             uuid.New().String(),
		Name:           req.Name,
		PhoneNumber:    req.PhoneNumber,
		PasswordHash:   string(hash),
		VehicleDetails: req.VehicleDetails,
		Location:       location,
		Status:         models.CourierStatusAvailable,
		Orders:         []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.DeliveryBoys.Create(c.UserContext(), courier); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fiber.NewError(fiber.StatusConflict, "phone number is already registered")
		}
		return err
	}

	s.audit.Record("delivery_boy_registered", map[string]interface{}{
		"delivery_boy_id": courier.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Delivery boy registered successfully",
		"delivery_boy": courier,
	})
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// loginDeliveryBoy exchanges credentials for a signed token. Bad phone and
// bad password share one message so the endpoint does not confirm which
// numbers are registered.
// @Summary Delivery boy login
// @Tags DeliveryBoys
// @Router /api/delivery-boys/login [post]
func (s *Server) loginDeliveryBoy(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.PhoneNumber == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone_number and password are required")
	}

	courier, err := s.store.DeliveryBoys.GetByPhone(c.UserContext(), req.PhoneNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid phone number or password")
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(courier.PasswordHash), []byte(req.Password)); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid phone number or password")
	}

	token, err := s.issueToken(courier.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"token":        token,
		"delivery_boy": courier,
	})
}

// @Summary List delivery boys
// @Tags DeliveryBoys
// @Router /api/delivery-boys [get]
func (s *Server) listDeliveryBoys(c *fiber.Ctx) error {
	couriers, err := s.store.DeliveryBoys.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(couriers)
}

// @Summary Get a delivery boy
// @Tags DeliveryBoys
// @Router /api/delivery-boys/{id} [get]
func (s *Server) getDeliveryBoy(c *fiber.Ctx) error {
	courier, err := s.store.DeliveryBoys.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "delivery boy not found")
		}
		return err
	}
	return c.JSON(courier)
}

// getDeliveryBoyLocation prefers the live position reported over the
// websocket and falls back to the registered location.
// @Summary Get a delivery boy's current location
// @Tags DeliveryBoys
// @Router /api/delivery-boys/{id}/location [get]
func (s *Server) getDeliveryBoyLocation(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")

	if s.presence != nil {
		if live, err := s.presence.Get(ctx, id); err == nil {
			return c.JSON(live)
		}
	}

	courier, err := s.store.DeliveryBoys.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "delivery boy not found")
		}
		return err
	}
	return c.JSON(fiber.Map{
		"courier_id": courier.ID,
		"longitude":  courier.Location.Coordinates[0],
		"latitude":   courier.Location.Coordinates[1],
		"is_active":  false,
	})
}

type updateCourierStatusRequest struct {
	Status string `json:"status"`
}

// @Summary Update a delivery boy's availability
// @Tags DeliveryBoys
// @Router /api/delivery-boys/{id}/status [put]
func (s *Server) updateDeliveryBoyStatus(c *fiber.Ctx) error {
	var req updateCourierStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	status := models.CourierStatus(req.Status)
	if !status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid courier status "+req.Status)
	}

	id := c.Params("id")
	if callerID, _ := c.Locals(localsCourierID).(string); callerID != id {
		return fiber.NewError(fiber.StatusForbidden, "cannot update another courier's status")
	}

	if err := s.store.DeliveryBoys.UpdateStatus(c.UserContext(), id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "delivery boy not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"message": "Status updated successfully"})
}

type updateLocationRequest struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// @Summary Update a delivery boy's registered location
// @Tags DeliveryBoys
// @Router /api/delivery-boys/{id}/location [put]
func (s *Server) updateDeliveryBoyLocation(c *fiber.Ctx) error {
	var req updateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	location := models.NewGeoPoint(req.Longitude, req.Latitude)
	if !location.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "location coordinates are out of range")
	}

	id := c.Params("id")
	if callerID, _ := c.Locals(localsCourierID).(string); callerID != id {
		return fiber.NewError(fiber.StatusForbidden, "cannot update another courier's location")
	}

	ctx := c.UserContext()
	if err := s.store.DeliveryBoys.UpdateLocation(ctx, id, location); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "delivery boy not found")
		}
		return err
	}
	if s.presence != nil {
		// Live presence is best effort, the document update already succeeded.
		if err := s.presence.UpdateLocation(ctx, id, req.Latitude, req.Longitude); err != nil {
			log.Printf("cannot update live location for courier %s: %v", id, err)
		}
	}
	return c.JSON(fiber.Map{"message": "Location updated successfully"})
}
