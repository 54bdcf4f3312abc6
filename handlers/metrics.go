package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "food_delivery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "food_delivery_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ordersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "food_delivery_orders_placed_total",
		Help: "The total number of placed orders",
	})

	orderStatusUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "food_delivery_order_status_updates_total",
		Help: "The total number of order status transitions",
	})

	paymentWebhooks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "food_delivery_payment_webhooks_total",
			Help: "Payment processor webhook deliveries by result",
		},
		[]string{"result"},
	)

	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "food_delivery_ws_connected_clients",
		Help: "The number of currently connected broadcast clients",
	})
)

func metricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		httpRequestsTotal.WithLabelValues(c.Method(), path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())

		return err
	}
}
