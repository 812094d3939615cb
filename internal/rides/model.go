package rides

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status enumerates the ride lifecycle states.
type Status string

const (
	StatusRequested     Status = "REQUESTED"
	StatusAccepted      Status = "ACCEPTED"
	StatusDriverArrived Status = "DRIVER_ARRIVED" // only reachable through SetStatus
	StatusInProgress    Status = "IN_PROGRESS"
	StatusCompleted     Status = "COMPLETED"
	StatusCancelled     Status = "CANCELLED"
	StatusRejected      Status = "REJECTED"
)

var allStatuses = []Status{
	StatusRequested, StatusAccepted, StatusDriverArrived, StatusInProgress,
	StatusCompleted, StatusCancelled, StatusRejected,
}

// ParseStatus matches a token against the status set, ignoring case.
func ParseStatus(token string) (Status, bool) {
	upper := strings.ToUpper(strings.TrimSpace(token))
	for _, s := range allStatuses {
		if string(s) == upper {
			return s, true
		}
	}
	return "", false
}

// Terminal reports whether no guarded transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// Active is everything except COMPLETED and CANCELLED. REJECTED counts as
// active here, matching how the active-ride queries have always behaved.
func (s Status) Active() bool {
	return s != StatusCompleted && s != StatusCancelled
}

// Ride is a single transport request from creation to a terminal outcome.
type Ride struct {
	ID                 int64      `json:"id"`
	RiderID            int64      `json:"riderId"`
	DriverID           *int64     `json:"driverId,omitempty"`
	PickupLocation     string     `json:"pickupLocation"`
	DropoffLocation    string     `json:"dropoffLocation"`
	PickupLatitude     *float64   `json:"pickupLatitude,omitempty"`
	PickupLongitude    *float64   `json:"pickupLongitude,omitempty"`
	DropoffLatitude    *float64   `json:"dropoffLatitude,omitempty"`
	DropoffLongitude   *float64   `json:"dropoffLongitude,omitempty"`
	Status             Status     `json:"status"`
	Fare               *float64   `json:"fare,omitempty"`
	Distance           *float64   `json:"distance,omitempty"`
	Duration           *int       `json:"duration,omitempty"` // minutes
	OTPCode            string     `json:"otpCode,omitempty"`
	VehicleType        string     `json:"vehicleType,omitempty"`
	RequestedAt        *time.Time `json:"requestedAt,omitempty"`
	AcceptedAt         *time.Time `json:"acceptedAt,omitempty"`
	StartedAt          *time.Time `json:"startedAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CurrentDriverLat   *float64   `json:"currentDriverLatitude,omitempty"`
	CurrentDriverLng   *float64   `json:"currentDriverLongitude,omitempty"`
	LastLocationAt     *time.Time `json:"lastLocationAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share pointer fields.
func (r *Ride) Clone() *Ride {
	c := *r
	c.DriverID = clonePtr(r.DriverID)
	c.PickupLatitude = clonePtr(r.PickupLatitude)
	c.PickupLongitude = clonePtr(r.PickupLongitude)
	c.DropoffLatitude = clonePtr(r.DropoffLatitude)
	c.DropoffLongitude = clonePtr(r.DropoffLongitude)
	c.Fare = clonePtr(r.Fare)
	c.Distance = clonePtr(r.Distance)
	c.Duration = clonePtr(r.Duration)
	c.RequestedAt = clonePtr(r.RequestedAt)
	c.AcceptedAt = clonePtr(r.AcceptedAt)
	c.StartedAt = clonePtr(r.StartedAt)
	c.CompletedAt = clonePtr(r.CompletedAt)
	c.CancelledAt = clonePtr(r.CancelledAt)
	c.CancellationReason = clonePtr(r.CancellationReason)
	c.CurrentDriverLat = clonePtr(r.CurrentDriverLat)
	c.CurrentDriverLng = clonePtr(r.CurrentDriverLng)
	c.LastLocationAt = clonePtr(r.LastLocationAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Coordinates is an optional lat/lon pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Location is the live driver position attached to a ride.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DriverCard is the minimal driver view shown to riders.
type DriverCard struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	Gender        string `json:"gender,omitempty"`
	VehicleNumber string `json:"vehicleNumber,omitempty"`
	VehicleType   string `json:"vehicleType,omitempty"`
}

// CreateRequest is the body for POST /api/rides.
type CreateRequest struct {
	RiderID         int64        `json:"riderId" validate:"required,gt=0"`
	PickupLocation  string       `json:"pickupLocation" validate:"required"`
	DropoffLocation string       `json:"dropoffLocation" validate:"required"`
	Pickup          *Coordinates `json:"pickup,omitempty"`
	Dropoff         *Coordinates `json:"dropoff,omitempty"`
	VehicleType     string       `json:"vehicleType,omitempty"`
}

// AcceptRequest is the body for POST /api/rides/{id}/accept.
type AcceptRequest struct {
	DriverID int64 `json:"driverId" validate:"required,gt=0"`
}

// LocationRequest is the body for POST /api/rides/{id}/location.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

// CancelRequest is the optional body for POST /api/rides/{id}/cancel.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// VerifyOTPRequest is the body for POST /api/rides/{id}/verify-otp.
type VerifyOTPRequest struct {
	OTP string `json:"otp" validate:"required"`
}

// CompleteRequest is the body for POST /api/rides/{id}/complete. Values are
// recorded verbatim; fare is computed elsewhere.
type CompleteRequest struct {
	Fare     *float64 `json:"fare"`
	Distance *float64 `json:"distance"`
	Duration *int     `json:"duration"`
}

// UnmarshalJSON accepts each figure as a JSON number or a numeric string.
// A value that does not parse fails the whole body.
func (c *CompleteRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Fare     *json.Number `json:"fare"`
		Distance *json.Number `json:"distance"`
		Duration *json.Number `json:"duration"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var (
		out CompleteRequest
		err error
	)
	if out.Fare, err = parseFloat(raw.Fare); err != nil {
		return fmt.Errorf("fare: %w", err)
	}
	if out.Distance, err = parseFloat(raw.Distance); err != nil {
		return fmt.Errorf("distance: %w", err)
	}
	if raw.Duration != nil {
		d, err := strconv.Atoi(raw.Duration.String())
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		out.Duration = &d
	}
	*c = out
	return nil
}

func parseFloat(n *json.Number) (*float64, error) {
	if n == nil {
		return nil, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// StatusRequest is the body for PUT /api/rides/{id}/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}
