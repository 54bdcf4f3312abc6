package main

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/streadway/amqp"

	"food-delivery/api/broadcast"
	"food-delivery/api/config"
	"food-delivery/api/events"
	"food-delivery/api/handlers"
	"food-delivery/api/notify"
	"food-delivery/api/payment"
	"food-delivery/api/repository"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx := context.Background()

	mongoClient, err := repository.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	store, err := repository.NewMongoStore(ctx, mongoClient.Database(cfg.Mongo.Database))
	if err != nil {
		log.Fatal("Failed to initialize store:", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	rabbitConn := dialRabbitMQ(cfg.RabbitMQ.URL)
	defer rabbitConn.Close()

	notifier, err := notify.NewQueueNotifier(rabbitConn, cfg.RabbitMQ.NotificationQueue)
	if err != nil {
		log.Fatal("Failed to set up notification queue:", err)
	}
	worker := notify.NewWorker(rabbitConn, cfg.RabbitMQ.NotificationQueue, cfg.Push.Endpoint, cfg.Push.ServerKey)
	go worker.Run()

	audit, err := events.NewKafkaRecorder(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Fatal("Failed to create Kafka producer:", err)
	}
	defer audit.Close()

	server := handlers.NewServer(cfg, handlers.Deps{
		Store:     store,
		Hub:       broadcast.NewHub(),
		Processor: payment.NewStripeProcessor(cfg.Stripe.SecretKey),
		Notifier:  notifier,
		Audit:     audit,
		Dedup:     repository.NewRedisDeduper(rdb, 24*time.Hour),
		Presence:  repository.NewPresenceStore(rdb),
	})

	app := server.App()
	log.Printf("Server starting on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}

// dialRabbitMQ retries the broker connection; at startup the broker often
// comes up a few seconds after the service.
func dialRabbitMQ(url string) *amqp.Connection {
	var conn *amqp.Connection
	var err error
	for i := 0; i < 5; i++ {
		log.Printf("Attempting to connect to RabbitMQ (attempt %d/5)...", i+1)
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn
		}
		if i < 4 {
			log.Printf("Failed to connect to RabbitMQ: %v. Retrying in 5 seconds...", err)
			time.Sleep(5 * time.Second)
		}
	}
	log.Fatalf("Failed to connect to RabbitMQ after 5 attempts: %v", err)
	return nil
}
