package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Ride lifecycle topics.
const (
	TopicRideRequested      = "ride.requested"
	TopicRideAccepted       = "ride.accepted"
	TopicRideStarted        = "ride.started"
	TopicRideCompleted      = "ride.completed"
	TopicRideCancelled      = "ride.cancelled"
	TopicRideRejected       = "ride.rejected"
	TopicRideStatusOverride = "ride.status_overridden"
	TopicRideLocation       = "ride.location"
)

// StatusTopics are the topics carrying a ride status change.
var StatusTopics = []string{
	TopicRideAccepted,
	TopicRideStarted,
	TopicRideCompleted,
	TopicRideCancelled,
	TopicRideRejected,
	TopicRideStatusOverride,
}

// AllTopics is everything the service produces.
func AllTopics() []string {
	out := []string{TopicRideRequested, TopicRideLocation}
	return append(out, StatusTopics...)
}

// Client wraps Kafka operations. A single Writer is shared across topics;
// each message names its own topic.
type Client struct {
	brokers []string
	writer  *kafkago.Writer
}

// NewClient returns a Client connected to the given brokers.
func NewClient(brokers []string) *Client {
	return &Client{
		brokers: brokers,
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Balancer:               &kafkago.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

// EnsureTopics creates topics if they don't already exist (with retry).
func (c *Client) EnsureTopics(ctx context.Context, topics ...string) error {
	if len(c.brokers) == 0 {
		return fmt.Errorf("kafka: no brokers configured")
	}
	for attempt := 1; attempt <= 20; attempt++ {
		conn, err := kafkago.DialContext(ctx, "tcp", c.brokers[0])
		if err != nil {
			log.Printf("[kafka] not ready, retrying in 3s... (%d/20)", attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		configs := make([]kafkago.TopicConfig, len(topics))
		for i, t := range topics {
			configs[i] = kafkago.TopicConfig{
				Topic:             t,
				NumPartitions:     3,
				ReplicationFactor: 1,
			}
		}

		err = conn.CreateTopics(configs...)
		conn.Close()
		if err != nil {
			log.Printf("[kafka] topic creation returned (may already exist): %v", err)
		}
		log.Printf("[kafka] %d topics ensured", len(topics))
		return nil
	}
	return fmt.Errorf("kafka: could not connect after 20 attempts")
}

// Publish sends a JSON-serialised message to a topic. Messages for the same
// ride share a key and therefore a partition, which keeps them ordered.
func (c *Client) Publish(ctx context.Context, topic, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	})
}

// Subscribe starts a background goroutine that reads every topic through one
// consumer-group reader until ctx is cancelled. handler receives the topic a
// message came from.
func (c *Client) Subscribe(ctx context.Context, groupID string, topics []string, handler func(topic string, value []byte) error) {
	// new groups start at the tail
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     c.brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.LastOffset,
	})

	go func() {
		defer r.Close()
		for {
			msg, err := r.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[kafka] read error on group %s: %v", groupID, err)
				time.Sleep(time.Second)
				continue
			}
			if err := handler(msg.Topic, msg.Value); err != nil {
				log.Printf("[kafka] handler error on %s: %v", msg.Topic, err)
			}
		}
	}()
}

// Close flushes and closes the shared writer.
func (c *Client) Close() error { return c.writer.Close() }
