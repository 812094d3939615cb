package rides

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"log"
	"math/big"
	"strconv"
	"strings"
	"time"

	"ridesharing/internal/apperrors"
	"ridesharing/internal/events"
	"ridesharing/pkg/kafka"
	"ridesharing/pkg/validation"
)

// DefaultCancelReason is recorded when a cancel request carries no reason.
const DefaultCancelReason = "User cancelled"

// Publisher delivers lifecycle events. *kafka.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// LocationCache holds the latest driver position per ride, plus a position
// index per driver.
type LocationCache interface {
	SetRideLocation(ctx context.Context, rideID int64, lat, lng float64, at time.Time) error
	RideLocation(ctx context.Context, rideID int64) (lat, lng float64, at time.Time, ok bool, err error)
	SetDriverLocation(ctx context.Context, driverID int64, lat, lng float64) error
}

// DriverLookup resolves the driver card attached to a fetched ride.
type DriverLookup interface {
	RideCard(ctx context.Context, driverID int64) (*DriverCard, error)
}

// Scope narrows the rider/driver list queries.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeActive
	ScopeRecent
)

// Service is the ride lifecycle engine. Every operation loads the row,
// checks the transition, mutates and saves. Nothing is held between calls.
type Service struct {
	store        Store
	events       Publisher
	cache        LocationCache
	drivers      DriverLookup
	recentWindow time.Duration

	now     func() time.Time
	nextOTP func() (string, error)
}

// NewService creates the engine. events, cache and drivers may be nil.
func NewService(store Store, pub Publisher, cache LocationCache, drivers DriverLookup, recentWindow time.Duration) *Service {
	if recentWindow <= 0 {
		recentWindow = 30 * 24 * time.Hour
	}
	return &Service{
		store:        store,
		events:       pub,
		cache:        cache,
		drivers:      drivers,
		recentWindow: recentWindow,
		now:          time.Now,
		nextOTP:      generateOTP,
	}
}

// generateOTP draws uniformly from [100000, 999999].
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// Create registers a new ride request with a fresh OTP.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Ride, error) {
	pickup := strings.TrimSpace(req.PickupLocation)
	dropoff := strings.TrimSpace(req.DropoffLocation)
	if req.RiderID <= 0 || pickup == "" || dropoff == "" {
		return nil, apperrors.Validation("riderId, pickupLocation and dropoffLocation are required")
	}

	otp, err := s.nextOTP()
	if err != nil {
		return nil, err
	}
	now := s.now()
	r := &Ride{
		RiderID:         req.RiderID,
		PickupLocation:  pickup,
		DropoffLocation: dropoff,
		Status:          StatusRequested,
		OTPCode:         otp,
		VehicleType:     strings.TrimSpace(req.VehicleType),
		RequestedAt:     &now,
	}
	if p := req.Pickup; p != nil {
		r.PickupLatitude, r.PickupLongitude = clonePtr(&p.Latitude), clonePtr(&p.Longitude)
	}
	if d := req.Dropoff; d != nil {
		r.DropoffLatitude, r.DropoffLongitude = clonePtr(&d.Latitude), clonePtr(&d.Longitude)
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	log.Printf("[rides] ride %d requested by rider %d", r.ID, r.RiderID)

	ev := events.RideRequestedEvent{
		EventID:     events.NewID(),
		RideID:      r.ID,
		RiderID:     r.RiderID,
		Pickup:      r.PickupLocation,
		Dropoff:     r.DropoffLocation,
		VehicleType: r.VehicleType,
		RequestedAt: events.Timestamp(now),
	}
	if req.Pickup != nil {
		ev.PickupAt = &events.LatLng{Lat: req.Pickup.Latitude, Lng: req.Pickup.Longitude}
	}
	if req.Dropoff != nil {
		ev.DropoffAt = &events.LatLng{Lat: req.Dropoff.Latitude, Lng: req.Dropoff.Longitude}
	}
	s.publish(kafka.TopicRideRequested, r.ID, ev)
	return r, nil
}

// Accept assigns driverID to a REQUESTED ride. Two concurrent accepts can
// both succeed; the later save wins.
func (s *Service) Accept(ctx context.Context, rideID, driverID int64) (*Ride, error) {
	if driverID <= 0 {
		return nil, apperrors.Validation("driverId is required")
	}
	r, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusRequested {
		return nil, apperrors.IllegalTransition("ride not in acceptable state")
	}
	now := s.now()
	r.DriverID = &driverID
	r.Status = StatusAccepted
	r.AcceptedAt = &now
	if err := s.save(ctx, r); err != nil {
		return nil, err
	}
	log.Printf("[rides] ride %d accepted by driver %d", r.ID, driverID)
	s.publishStatus(kafka.TopicRideAccepted, r, "")
	return r, nil
}

// UpdateDriverLocation overwrites the live position. Allowed in any status
// and never changes it.
func (s *Service) UpdateDriverLocation(ctx context.Context, rideID int64, lat, lng float64) (*Location, error) {
	if err := validation.Coordinates(lat, lng); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	r.CurrentDriverLat = &lat
	r.CurrentDriverLng = &lng
	r.LastLocationAt = &now
	if err := s.save(ctx, r); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRideLocation(ctx, r.ID, lat, lng, now); err != nil {
			log.Printf("[rides] cache location for ride %d: %v", r.ID, err)
		}
		if r.DriverID != nil {
			if err := s.cache.SetDriverLocation(ctx, *r.DriverID, lat, lng); err != nil {
				log.Printf("[rides] index driver %d position: %v", *r.DriverID, err)
			}
		}
	}
	s.publish(kafka.TopicRideLocation, r.ID, events.LocationEvent{
		EventID:   events.NewID(),
		RideID:    r.ID,
		DriverID:  clonePtr(r.DriverID),
		Position:  events.LatLng{Lat: lat, Lng: lng},
		UpdatedAt: events.Timestamp(now),
	})
	return &Location{Latitude: lat, Longitude: lng, UpdatedAt: now}, nil
}

// Cancel moves a REQUESTED or ACCEPTED ride to CANCELLED.
func (s *Service) Cancel(ctx context.Context, rideID int64, reason string) (*Ride, error) {
	r, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusRequested && r.Status != StatusAccepted {
		return nil, apperrors.IllegalTransition("ride not in cancellable state")
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = DefaultCancelReason
	}
	now := s.now()
	r.Status = StatusCancelled
	r.CancelledAt = &now
	r.CancellationReason = &reason
	if err := s.save(ctx, r); err != nil {
		return nil, err
	}
	log.Printf("[rides] ride %d cancelled: %s", r.ID, reason)
	s.publishStatus(kafka.TopicRideCancelled, r, reason)
	return r, nil
}

// Reject marks a REQUESTED ride as REJECTED.
func (s *Service) Reject(ctx context.Context, rideID int64) (*Ride, error) {
	r, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusRequested {
		return nil, apperrors.IllegalTransition("ride not in rejectable state")
	}
	r.Status = StatusRejected
	if err := s.save(ctx, r); err != nil {
		return nil, err
	}
	s.publishStatus(kafka.TopicRideRejected, r, "")
	return r, nil
}

// Start begins an ACCEPTED ride without OTP verification.
func (s *Service) Start(ctx context.Context, rideID int64) (*Ride, error) {
	r, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusAccepted {
		return nil, apperrors.IllegalTransition("ride not in startable state")
	}
	return s.begin(ctx, r)
}

// VerifyOtpAndStart begins an ACCEPTED ride when otp matches exactly. Every
// failure, a missing ride included, reports the same error.
func (s *Service) VerifyOtpAndStart(ctx context.Context, rideID int64, otp string) (*Ride, error) {
	r, err := s.store.Get(ctx, rideID)
	if errors.Is(err, ErrNotFound) {
		return nil, invalidOTP()
	}
	if err != nil {
		return nil, err
	}
	if r.Status != StatusAccepted || r.OTPCode == "" ||
		subtle.ConstantTimeCompare([]byte(r.OTPCode), []byte(otp)) != 1 {
		return nil, invalidOTP()
	}
	return s.begin(ctx, r)
}

func invalidOTP() error {
	return apperrors.Validation("invalid OTP or ride state")
}

func (s *Service) begin(ctx context.Context, r *Ride) (*Ride, error) {
	now := s.now()
	r.Status = StatusInProgress
	r.StartedAt = &now
	if err := s.save(ctx, r); err != nil {
		return nil, err
	}
	log.Printf("[rides] ride %d started", r.ID)
	s.publishStatus(kafka.TopicRideStarted, r, "")
	return r, nil
}

// Complete closes an IN_PROGRESS ride, recording the given figures as is.
func (s *Service) Complete(ctx context.Context, rideID int64, req CompleteRequest) (*Ride, error) {
	r, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusInProgress {
		return nil, apperrors.IllegalTransition("ride not in progress")
	}
	now := s.now()
	r.Status = StatusCompleted
	r.CompletedAt = &now
	r.Fare = clonePtr(req.Fare)
	r.Distance = clonePtr(req.Distance)
	r.Duration = clonePtr(req.Duration)
	if err := s.save(ctx, r); err != nil {
		return nil, err
	}
	log.Printf("[rides] ride %d completed", r.ID)
	s.publishStatus(kafka.TopicRideCompleted, r, "")
	return r, nil
}

// SetStatus is the administrative override. It skips every transition check
// and touches no timestamp other than the row's own bookkeeping.
func (s *Service) SetStatus(ctx context.Context, rideID int64, token string) (*Ride, error) {
	status, ok := ParseStatus(token)
	if !ok {
		return nil, apperrors.Validation("invalid status")
	}
	r, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	from := r.Status
	r.Status = status
	if err := s.save(ctx, r); err != nil {
		return nil, err
	}
	log.Printf("[rides] ride %d status overridden %s -> %s", r.ID, from, status)
	s.publishStatus(kafka.TopicRideStatusOverride, r, "")
	return r, nil
}

// Get fetches a ride and, when a driver is assigned, its driver card. A
// failed card lookup is logged and the ride returned without it.
func (s *Service) Get(ctx context.Context, rideID int64) (*Ride, *DriverCard, error) {
	r, err := s.load(ctx, rideID)
	if err != nil {
		return nil, nil, err
	}
	if r.DriverID == nil || s.drivers == nil {
		return r, nil, nil
	}
	card, err := s.drivers.RideCard(ctx, *r.DriverID)
	if err != nil {
		log.Printf("[rides] driver card for ride %d: %v", r.ID, err)
		return r, nil, nil
	}
	return r, card, nil
}

// ListByRider returns a rider's rides, newest first.
func (s *Service) ListByRider(ctx context.Context, riderID int64, scope Scope) ([]*Ride, error) {
	return s.list(ctx, Filter{RiderID: riderID}, scope)
}

// ListByDriver returns a driver's rides, newest first.
func (s *Service) ListByDriver(ctx context.Context, driverID int64, scope Scope) ([]*Ride, error) {
	return s.list(ctx, Filter{DriverID: driverID}, scope)
}

// ListByStatus returns rides in the given status, optionally one vehicle type.
func (s *Service) ListByStatus(ctx context.Context, token, vehicleType string) ([]*Ride, error) {
	status, ok := ParseStatus(token)
	if !ok {
		return nil, apperrors.Validation("invalid status")
	}
	return s.list(ctx, Filter{Status: status, VehicleType: strings.TrimSpace(vehicleType)}, ScopeAll)
}

func (s *Service) list(ctx context.Context, f Filter, scope Scope) ([]*Ride, error) {
	switch scope {
	case ScopeActive:
		f.ActiveOnly = true
	case ScopeRecent:
		f.Since = s.now().Add(-s.recentWindow)
	}
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*Ride{}
	}
	return out, nil
}

// Tracking returns the latest driver position, preferring the cache.
func (s *Service) Tracking(ctx context.Context, rideID int64) (*Location, error) {
	if s.cache != nil {
		lat, lng, at, ok, err := s.cache.RideLocation(ctx, rideID)
		if err != nil {
			log.Printf("[rides] read cached location for ride %d: %v", rideID, err)
		} else if ok {
			return &Location{Latitude: lat, Longitude: lng, UpdatedAt: at}, nil
		}
	}
	r, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.CurrentDriverLat == nil || r.CurrentDriverLng == nil {
		return nil, apperrors.NotFound("ride location")
	}
	loc := &Location{Latitude: *r.CurrentDriverLat, Longitude: *r.CurrentDriverLng}
	if r.LastLocationAt != nil {
		loc.UpdatedAt = *r.LastLocationAt
	}
	return loc, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Ride, error) {
	r, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFound("ride")
	}
	return r, err
}

func (s *Service) save(ctx context.Context, r *Ride) error {
	err := s.store.Save(ctx, r)
	if errors.Is(err, ErrNotFound) {
		return apperrors.NotFound("ride")
	}
	return err
}

func (s *Service) publishStatus(topic string, r *Ride, reason string) {
	s.publish(topic, r.ID, events.RideStatusEvent{
		EventID:    events.NewID(),
		RideID:     r.ID,
		RiderID:    r.RiderID,
		DriverID:   clonePtr(r.DriverID),
		Status:     string(r.Status),
		Reason:     reason,
		Fare:       clonePtr(r.Fare),
		Distance:   clonePtr(r.Distance),
		Duration:   clonePtr(r.Duration),
		OccurredAt: events.Timestamp(s.now()),
	})
}

// publish is fire-and-forget; the ride row is already saved.
func (s *Service) publish(topic string, rideID int64, ev any) {
	if s.events == nil {
		return
	}
	key := strconv.FormatInt(rideID, 10)
	go func() {
		if err := s.events.Publish(context.Background(), topic, key, ev); err != nil {
			log.Printf("[rides] failed to publish %s for ride %d: %v", topic, rideID, err)
		}
	}()
}
