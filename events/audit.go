// Package events writes an append-only audit trail of order and payment
// activity to Kafka.
package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/Shopify/sarama"
)

// Recorder is the audit sink used by the handlers. Failures are logged and
// swallowed; auditing never fails a request.
type Recorder interface {
	Record(event string, fields map[string]interface{})
}

type KafkaRecorder struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaRecorder(brokers []string, topic string) (*KafkaRecorder, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &KafkaRecorder{producer: producer, topic: topic}, nil
}

func (r *KafkaRecorder) Record(event string, fields map[string]interface{}) {
	fields["event"] = event
	fields["timestamp"] = time.Now().Unix()

	data, err := json.Marshal(fields)
	if err != nil {
		log.Printf("audit: cannot marshal %s event: %v", event, err)
		return
	}

	_, _, err = r.producer.SendMessage(&sarama.ProducerMessage{
		Topic: r.topic,
		Value: sarama.StringEncoder(data),
	})
	if err != nil {
		log.Printf("audit: cannot send %s event: %v", event, err)
	}
}

func (r *KafkaRecorder) Close() error {
	return r.producer.Close()
}

// NopRecorder discards all events. Used when Kafka is not configured.
type NopRecorder struct{}

func (NopRecorder) Record(string, map[string]interface{}) {}
