package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaStore publishes records keyed by identity. On a log-compacted topic
// the latest message per key is the stored record, which gives upsert
// semantics; the hash balancer keeps a key on one partition.
type KafkaStore struct {
	writer  messageWriter
	brokers []string
}

// NewKafkaStore creates a producer for topic on brokers. Upsert waits for
// each message, so the writer flushes one message at a time.
func NewKafkaStore(brokers []string, topic string) *KafkaStore {
	return &KafkaStore{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: false,
			BatchSize:              1,
			BatchTimeout:           10 * time.Millisecond,
		},
		brokers: brokers,
	}
}

// NewKafkaStoreWithWriter builds a store using a custom writer (tests).
func NewKafkaStoreWithWriter(writer messageWriter) *KafkaStore {
	return &KafkaStore{writer: writer}
}

// Upsert publishes rec with key as the message key.
func (s *KafkaStore) Upsert(ctx context.Context, key string, rec *models.Record) error {
	if err := checkKey(key, rec); err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", key, err)
	}
	return nil
}

// Ping dials the first broker.
func (s *KafkaStore) Ping(ctx context.Context) error {
	if len(s.brokers) == 0 {
		return nil
	}
	conn, err := kafka.DialContext(ctx, "tcp", s.brokers[0])
	if err != nil {
		return fmt.Errorf("dial kafka %s: %w", s.brokers[0], err)
	}
	return conn.Close()
}

// Close shuts down the underlying writer.
func (s *KafkaStore) Close() error {
	return s.writer.Close()
}
