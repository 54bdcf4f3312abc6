package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"food-delivery/api/models"
	"food-delivery/api/repository"
)

type restaurantRequest struct {
	Name             string            `json:"name"`
	Address          models.Address    `json:"address"`
	Phone            string            `json:"phone"`
	Email            string            `json:"email"`
	Description      string            `json:"description"`
	Rating           float64           `json:"rating"`
	Image            string            `json:"image"`
	OpeningHours     string            `json:"opening_hours"`
	Website          string            `json:"website"`
	Cuisines         []string          `json:"cuisines"`
	Longitude        float64           `json:"longitude"`
	Latitude         float64           `json:"latitude"`
	SocialMediaLinks map[string]string `json:"social_media_links"`
}

func validateRestaurantRequest(req *restaurantRequest) error {
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if !models.ValidRestaurantPhone(req.Phone) {
		return fiber.NewError(fiber.StatusBadRequest, "phone must be a valid international number")
	}
	if !models.ValidEmail(req.Email) {
		return fiber.NewError(fiber.StatusBadRequest, "email is invalid")
	}
	if !models.ValidRating(req.Rating) {
		return fiber.NewError(fiber.StatusBadRequest, "rating must be between 0 and 5")
	}
	if req.OpeningHours != "" && !models.ValidOpeningHours(req.OpeningHours) {
		return fiber.NewError(fiber.StatusBadRequest, `opening hours must look like "Mo 9:00-18:00; Sa 10:00-14:00"`)
	}
	if !models.NewGeoPoint(req.Longitude, req.Latitude).Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "location coordinates are out of range")
	}
	return nil
}

// @Summary Register a restaurant
// @Tags Restaurants
// @Router /api/restaurants/register [post]
func (s *Server) registerRestaurant(c *fiber.Ctx) error {
	var req restaurantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validateRestaurantRequest(&req); err != nil {
		return err
	}

	now := time.Now()
	restaurant := &models.Restaurant{
		ID:               uuid.New().String(),
		Name:             req.Name,
		Address:          req.Address,
		Phone:            req.Phone,
		Email:            req.Email,
		Description:      req.Description,
		Rating:           req.Rating,
		Image:            req.Image,
		OpeningHours:     req.OpeningHours,
		Website:          req.Website,
		Cuisines:         req.Cuisines,
		Location:         models.NewGeoPoint(req.Longitude, req.Latitude),
		SocialMediaLinks: req.SocialMediaLinks,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.Restaurants.Create(c.UserContext(), restaurant); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fiber.NewError(fiber.StatusConflict, "a restaurant with this name, phone or email already exists")
		}
		return err
	}

	s.audit.Record("restaurant_registered", map[string]interface{}{
		"restaurant_id": restaurant.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Restaurant registered successfully",
		"restaurant": restaurant,
	})
}

// @Summary List restaurants
// @Tags Restaurants
// @Router /api/restaurants [get]
func (s *Server) listRestaurants(c *fiber.Ctx) error {
	restaurants, err := s.store.Restaurants.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(restaurants)
}

// @Summary Get a restaurant
// @Tags Restaurants
// @Router /api/restaurants/{id} [get]
func (s *Server) getRestaurant(c *fiber.Ctx) error {
	restaurant, err := s.store.Restaurants.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "restaurant not found")
		}
		return err
	}
	return c.JSON(restaurant)
}

// @Summary Update a restaurant
// @Tags Restaurants
// @Router /api/restaurants/{id} [put]
func (s *Server) updateRestaurant(c *fiber.Ctx) error {
	var req restaurantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validateRestaurantRequest(&req); err != nil {
		return err
	}

	ctx := c.UserContext()
	restaurant, err := s.store.Restaurants.GetByID(ctx, c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "restaurant not found")
		}
		return err
	}

	restaurant.Name = req.Name
	restaurant.Address = req.Address
	restaurant.Phone = req.Phone
	restaurant.Email = req.Email
	restaurant.Description = req.Description
	restaurant.Rating = req.Rating
	restaurant.Image = req.Image
	restaurant.OpeningHours = req.OpeningHours
	restaurant.Website = req.Website
	restaurant.Cuisines = req.Cuisines
	restaurant.Location = models.NewGeoPoint(req.Longitude, req.Latitude)
	restaurant.SocialMediaLinks = req.SocialMediaLinks
	restaurant.UpdatedAt = time.Now()

	if err := s.store.Restaurants.Update(ctx, restaurant); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":    "Restaurant updated successfully",
		"restaurant": restaurant,
	})
}

// @Summary Delete a restaurant
// @Tags Restaurants
// @Router /api/restaurants/{id} [delete]
func (s *Server) deleteRestaurant(c *fiber.Ctx) error {
	if err := s.store.Restaurants.Delete(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "restaurant not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"message": "Restaurant deleted successfully"})
}

type menuItemRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// @Summary Add a menu item to a restaurant
// @Tags Restaurants
// @Router /api/restaurants/{id}/menu [post]
func (s *Server) addMenuItem(c *fiber.Ctx) error {
	var req menuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if req.Price <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must be greater than zero")
	}

	ctx := c.UserContext()
	restaurant, err := s.store.Restaurants.GetByID(ctx, c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "restaurant not found")
		}
		return err
	}

	item := &models.MenuItem{
		ID:           uuid.New().String(),
		RestaurantID: restaurant.ID,
		Name:         req.Name,
		Price:        req.Price,
		CreatedAt:    time.Now(),
	}
	if err := s.store.MenuItems.Create(ctx, item); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Menu item added successfully",
		"menu_item": item,
	})
}

// @Summary List a restaurant's menu
// @Tags Restaurants
// @Router /api/restaurants/{id}/menu [get]
func (s *Server) listMenuItems(c *fiber.Ctx) error {
	items, err := s.store.MenuItems.ListByRestaurant(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// @Summary Update a menu item
// @Tags Restaurants
// @Router /api/restaurants/{restaurantID}/menu/{menuItemID} [put]
func (s *Server) updateMenuItem(c *fiber.Ctx) error {
	var req menuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if req.Price <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must be greater than zero")
	}

	ctx := c.UserContext()
	item, err := s.store.MenuItems.GetByID(ctx, c.Params("menuItemID"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "menu item not found")
		}
		return err
	}
	if item.RestaurantID != c.Params("restaurantID") {
		return fiber.NewError(fiber.StatusNotFound, "menu item not found")
	}

	item.Name = req.Name
	item.Price = req.Price
	if err := s.store.MenuItems.Update(ctx, item); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":   "Menu item updated successfully",
		"menu_item": item,
	})
}

// @Summary Delete a menu item
// @Tags Restaurants
// @Router /api/restaurants/{restaurantID}/menu/{menuItemID} [delete]
func (s *Server) deleteMenuItem(c *fiber.Ctx) error {
	err := s.store.MenuItems.Delete(c.UserContext(), c.Params("restaurantID"), c.Params("menuItemID"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "menu item not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"message": "Menu item deleted successfully"})
}
