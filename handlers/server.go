package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"food-delivery/api/broadcast"
	"food-delivery/api/config"
	_ "food-delivery/api/docs"
	"food-delivery/api/events"
	"food-delivery/api/notify"
	"food-delivery/api/payment"
	"food-delivery/api/repository"
)

// Server holds the dependencies shared by all route handlers. Everything is
// injected so tests can swap fakes for the store, the broadcast publisher
// and the payment processor.
type Server struct {
	cfg       *config.Config
	store     *repository.Store
	hub       *broadcast.Hub
	publisher broadcast.Publisher
	proc      payment.Processor
	notifier  notify.Notifier
	audit     events.Recorder
	dedup     repository.Deduper
	presence  *repository.PresenceStore
}

type Deps struct {
	Store     *repository.Store
	Hub       *broadcast.Hub
	Publisher broadcast.Publisher
	Processor payment.Processor
	Notifier  notify.Notifier
	Audit     events.Recorder
	Dedup     repository.Deduper
	Presence  *repository.PresenceStore
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:       cfg,
		store:     deps.Store,
		hub:       deps.Hub,
		publisher: deps.Publisher,
		proc:      deps.Processor,
		notifier:  deps.Notifier,
		audit:     deps.Audit,
		dedup:     deps.Dedup,
		presence:  deps.Presence,
	}
	if s.publisher == nil && s.hub != nil {
		s.publisher = s.hub
	}
	if s.publisher == nil {
		s.publisher = nopPublisher{}
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.audit == nil {
		s.audit = events.NopRecorder{}
	}
	if s.dedup == nil {
		s.dedup = repository.NewMemoryDeduper()
	}
	return s
}

// App builds the fiber application with all middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		ErrorHandler: s.errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(metricsMiddleware())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Food Delivery API")
	})
	app.Get("/health", healthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")

	orders := api.Group("/orders")
	orders.Get("/user/:userID", s.listUserOrders)
	orders.Get("/delivery-boy/:id", s.listDeliveryBoyOrders)
	orders.Post("/", s.requireAuth, placeOrderLimiter(), s.placeOrder)
	orders.Get("/:id", s.getOrder)
	orders.Put("/:id/status", s.requireAuth, s.updateOrderStatus)
	orders.Post("/:id/feedback", s.submitFeedback)

	payments := api.Group("/payments")
	payments.Post("/create-payment-intent", s.createPaymentIntent)
	payments.Post("/notification", s.handlePaymentWebhook)
	payments.Post("/", s.requireAuth, s.confirmPayment)
	payments.Get("/:id", s.requireAuth, s.getPaymentStatus)

	couriers := api.Group("/delivery-boys")
	couriers.Post("/register", s.registerDeliveryBoy)
	couriers.Post("/login", loginLimiter(), s.loginDeliveryBoy)
	couriers.Get("/", s.listDeliveryBoys)
	couriers.Get("/:id", s.getDeliveryBoy)
	couriers.Get("/:id/location", s.getDeliveryBoyLocation)
	couriers.Put("/:id/status", s.requireAuth, s.updateDeliveryBoyStatus)
	couriers.Put("/:id/location", s.requireAuth, s.updateDeliveryBoyLocation)

	restaurants := api.Group("/restaurants")
	restaurants.Post("/register", s.requireAuth, s.registerRestaurant)
	restaurants.Get("/", s.listRestaurants)
	restaurants.Get("/:id", s.getRestaurant)
	restaurants.Put("/:id", s.requireAuth, s.updateRestaurant)
	restaurants.Delete("/:id", s.requireAuth, s.deleteRestaurant)
	restaurants.Post("/:id/menu", s.requireAuth, s.addMenuItem)
	restaurants.Get("/:id/menu", s.listMenuItems)
	restaurants.Put("/:restaurantID/menu/:menuItemID", s.requireAuth, s.updateMenuItem)
	restaurants.Delete("/:restaurantID/menu/:menuItemID", s.requireAuth, s.deleteMenuItem)

	app.Use("/ws", s.wsUpgrade)
	app.Get("/ws", websocket.New(s.handleWebSocket))

	return app
}

// placeOrderLimiter bounds order creation per client IP.
func placeOrderLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,
		Expiration: 15 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests,
				"too many orders created from this IP, please try again later")
		},
	})
}

func loginLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests,
				"too many login attempts, please try again after 15 minutes")
		},
	})
}

// errorHandler maps the failure taxonomy onto HTTP statuses. Unmapped
// errors become 500 and leak details only outside production.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	case errors.Is(err, repository.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrConflict):
		code = fiber.StatusConflict
	case errors.Is(err, payment.ErrCardDeclined):
		code = fiber.StatusBadRequest
		message = "Your card was declined."
	}

	if code == fiber.StatusInternalServerError && s.cfg.Production() {
		message = "Internal Server Error"
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}

func healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now(),
	})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

type nopNotifier struct{}

func (nopNotifier) Push(string, string, string) {}
