package events

import (
	"time"

	"github.com/google/uuid"
)

// LatLng is a coordinate pair used in event payloads.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RideRequestedEvent is published to ride.requested.
type RideRequestedEvent struct {
	EventID     string  `json:"event_id"`
	RideID      int64   `json:"ride_id"`
	RiderID     int64   `json:"rider_id"`
	Pickup      string  `json:"pickup"`
	Dropoff     string  `json:"dropoff"`
	PickupAt    *LatLng `json:"pickup_at,omitempty"`
	DropoffAt   *LatLng `json:"dropoff_at,omitempty"`
	VehicleType string  `json:"vehicle_type,omitempty"`
	RequestedAt string  `json:"requested_at"`
}

// RideStatusEvent is published on every other lifecycle change: accept,
// start, complete, cancel, reject and administrative overrides.
type RideStatusEvent struct {
	EventID    string   `json:"event_id"`
	RideID     int64    `json:"ride_id"`
	RiderID    int64    `json:"rider_id"`
	DriverID   *int64   `json:"driver_id,omitempty"`
	Status     string   `json:"status"`
	Reason     string   `json:"reason,omitempty"`
	Fare       *float64 `json:"fare,omitempty"`
	Distance   *float64 `json:"distance,omitempty"`
	Duration   *int     `json:"duration,omitempty"`
	OccurredAt string   `json:"occurred_at"`
}

// LocationEvent is published to ride.location.
type LocationEvent struct {
	EventID   string `json:"event_id"`
	RideID    int64  `json:"ride_id"`
	DriverID  *int64 `json:"driver_id,omitempty"`
	Position  LatLng `json:"position"`
	UpdatedAt string `json:"updated_at"`
}

// NewID returns a fresh event identifier.
func NewID() string { return uuid.New().String() }

// Timestamp renders t the way every payload carries times.
func Timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
