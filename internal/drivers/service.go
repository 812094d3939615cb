package drivers

import (
	"context"
	"errors"
	"log"
	"strings"

	"ridesharing/internal/apperrors"
	"ridesharing/internal/rides"
	"ridesharing/pkg/credentials"
	"ridesharing/pkg/jwt"
	"ridesharing/pkg/validation"
)

// Service contains driver business logic.
type Service struct {
	store  Store
	hasher credentials.Hasher
}

// NewService creates a driver service.
func NewService(store Store, hasher credentials.Hasher) *Service {
	return &Service{store: store, hasher: hasher}
}

// Register creates a new driver account and returns a JWT. New drivers
// start OFFLINE.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.TrimSpace(req.Email)
	if err := validation.First(
		validation.Email(email),
		validation.Password(req.Password),
		validation.Name("name", req.Name),
		validation.Phone(req.PhoneNumber),
	); err != nil {
		return nil, err
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("email already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = DefaultRole
	}
	d := &Driver{
		Email:         email,
		PasswordHash:  hash,
		Name:          strings.TrimSpace(req.Name),
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
		VehicleNumber: strings.TrimSpace(req.VehicleNumber),
		VehicleType:   strings.TrimSpace(req.VehicleType),
		VehicleModel:  req.VehicleModel,
		VehicleColor:  req.VehicleColor,
		PhoneNumber:   req.PhoneNumber,
		Gender:        req.Gender,
		Status:        StatusOffline,
		Role:          role,
	}
	if err := s.store.Create(ctx, d); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperrors.Conflict(err.Error())
		}
		return nil, err
	}
	log.Printf("[drivers] registered driver %d", d.ID)

	token, err := jwt.Generate(d.ID, d.Email, d.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, Driver: d}, nil
}

// Login authenticates a driver. Unknown email, wrong password and role
// mismatch all produce the same error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	d, err := s.store.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.InvalidCredentials()
	}
	if err != nil {
		return nil, err
	}
	if !credentials.Check(s.hasher, req.Password, d.PasswordHash, req.Role, d.Role) {
		return nil, apperrors.InvalidCredentials()
	}

	token, err := jwt.Generate(d.ID, d.Email, d.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, Driver: d}, nil
}

// GetByID fetches a driver by primary key.
func (s *Service) GetByID(ctx context.Context, id int64) (*Driver, error) {
	d, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFound("driver")
	}
	return d, err
}

// GetByEmail fetches a driver by email, ignoring case.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Driver, error) {
	d, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFound("driver")
	}
	return d, err
}

// Save writes back the mutable profile fields of d.
func (s *Service) Save(ctx context.Context, d *Driver) error {
	err := s.store.Update(ctx, d)
	if errors.Is(err, ErrNotFound) {
		return apperrors.NotFound("driver")
	}
	return err
}

// UpdateStatus sets the driver's availability. It has no effect on rides.
func (s *Service) UpdateStatus(ctx context.Context, id int64, token string) (*Driver, error) {
	st, ok := ParseStatus(token)
	if !ok {
		return nil, apperrors.Validation("invalid status")
	}
	if err := s.store.UpdateStatus(ctx, id, st); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.NotFound("driver")
		}
		return nil, err
	}
	log.Printf("[drivers] driver %d is now %s", id, st)
	return s.GetByID(ctx, id)
}

// VehicleTypes lists the distinct vehicle types on file, optionally only
// among AVAILABLE drivers.
func (s *Service) VehicleTypes(ctx context.Context, onlyAvailable bool) ([]string, error) {
	return s.store.VehicleTypes(ctx, onlyAvailable)
}

// RideCard returns the summary riders see on an assigned ride.
func (s *Service) RideCard(ctx context.Context, id int64) (*rides.DriverCard, error) {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rides.DriverCard{
		ID:            d.ID,
		Name:          d.Name,
		Phone:         d.PhoneNumber,
		Gender:        d.Gender,
		VehicleNumber: d.VehicleNumber,
		VehicleType:   d.VehicleType,
	}, nil
}
