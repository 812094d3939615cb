package tracking

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"ridesharing/internal/events"
	"ridesharing/pkg/kafka"
)

// Subscriber is the consuming half of the event bus. *kafka.Client
// satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, groupID string, topics []string, handler func(topic string, value []byte) error)
}

// LocationMessage is pushed to ride subscribers on every position update.
type LocationMessage struct {
	Type      string  `json:"type"`
	RideID    int64   `json:"rideId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	UpdatedAt string  `json:"updatedAt"`
}

// StatusMessage is pushed to ride subscribers on every status change.
type StatusMessage struct {
	Type   string `json:"type"`
	RideID int64  `json:"rideId"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	At     string `json:"at"`
}

// Relay feeds lifecycle events from the bus into the hub. Every instance
// uses its own consumer group so each hub sees every event.
type Relay struct {
	hub     *Hub
	sub     Subscriber
	groupID string
}

func NewRelay(hub *Hub, sub Subscriber) *Relay {
	return &Relay{hub: hub, sub: sub, groupID: "ride-tracking-" + uuid.NewString()}
}

// Start subscribes to the location and status topics until ctx ends. One
// reader covers all of them.
func (r *Relay) Start(ctx context.Context) {
	topics := append([]string{kafka.TopicRideLocation}, kafka.StatusTopics...)
	r.sub.Subscribe(ctx, r.groupID, topics, r.dispatch)
}

func (r *Relay) dispatch(topic string, data []byte) error {
	if topic == kafka.TopicRideLocation {
		return r.onLocation(data)
	}
	return r.onStatus(data)
}

func (r *Relay) onLocation(data []byte) error {
	var ev events.LocationEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	r.hub.Broadcast(ev.RideID, LocationMessage{
		Type:      "location",
		RideID:    ev.RideID,
		Latitude:  ev.Position.Lat,
		Longitude: ev.Position.Lng,
		UpdatedAt: ev.UpdatedAt,
	})
	return nil
}

func (r *Relay) onStatus(data []byte) error {
	var ev events.RideStatusEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	r.hub.Broadcast(ev.RideID, StatusMessage{
		Type:   "status",
		RideID: ev.RideID,
		Status: ev.Status,
		Reason: ev.Reason,
		At:     ev.OccurredAt,
	})
	return nil
}
