// Package notify delivers push notifications. Requests enqueue messages on
// a durable RabbitMQ queue and return immediately; a worker drains the queue
// and talks to the push service with a timeout and bounded retries.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/streadway/amqp"
)

// Notifier is the fire-and-forget side used by the handlers.
type Notifier interface {
	Push(deviceToken, title, body string)
}

type Message struct {
	DeviceToken string `json:"device_token"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

type QueueNotifier struct {
	ch    *amqp.Channel
	queue string
}

func NewQueueNotifier(conn *amqp.Connection, queue string) (*QueueNotifier, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	return &QueueNotifier{ch: ch, queue: queue}, nil
}

func (n *QueueNotifier) Push(deviceToken, title, body string) {
	data, err := json.Marshal(Message{DeviceToken: deviceToken, Title: title, Body: body})
	if err != nil {
		log.Printf("notify: cannot marshal message: %v", err)
		return
	}

	err = n.ch.Publish("", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         data,
	})
	if err != nil {
		log.Printf("notify: cannot publish message: %v", err)
	}
}

// Worker consumes the notification queue and delivers to the push service.
type Worker struct {
	conn     *amqp.Connection
	queue    string
	endpoint string
	key      string
	client   *http.Client
}

const (
	maxAttempts    = 3
	initialBackoff = 2 * time.Second
)

func NewWorker(conn *amqp.Connection, queue, endpoint, key string) *Worker {
	return &Worker{
		conn:     conn,
		queue:    queue,
		endpoint: endpoint,
		key:      key,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Run blocks consuming the queue until the connection closes.
func (w *Worker) Run() {
	ch, err := w.conn.Channel()
	if err != nil {
		log.Printf("notify: cannot open channel: %v", err)
		return
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(w.queue, true, false, false, false, nil); err != nil {
		log.Printf("notify: cannot declare queue: %v", err)
		return
	}

	msgs, err := ch.Consume(w.queue, "notify-worker", false, false, false, false, nil)
	if err != nil {
		log.Printf("notify: cannot consume queue: %v", err)
		return
	}

	for d := range msgs {
		var msg Message
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			log.Printf("notify: invalid message, dropping: %v", err)
			_ = d.Nack(false, false)
			continue
		}

		if err := w.deliver(msg); err != nil {
			log.Printf("notify: giving up on notification for %s: %v", msg.DeviceToken, err)
		}
		_ = d.Ack(false)
	}
}

// deliver posts the notification, retrying transient failures with backoff.
func (w *Worker) deliver(msg Message) error {
	payload, err := json.Marshal(map[string]interface{}{
		"to": msg.DeviceToken,
		"notification": map[string]string{
			"title": msg.Title,
			"body":  msg.Body,
		},
	})
	if err != nil {
		return err
	}

	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = w.post(payload)
		if lastErr == nil {
			return nil
		}
		log.Printf("notify: attempt %d/%d failed: %v", attempt, maxAttempts, lastErr)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return lastErr
}

func (w *Worker) post(payload []byte) error {
	req, err := http.NewRequest(http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+w.key)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push service returned %s", resp.Status)
	}
	return nil
}
