package profiles

import (
	"context"
	"log"

	"ridesharing/internal/apperrors"
	"ridesharing/internal/drivers"
	"ridesharing/internal/riders"
	"ridesharing/pkg/jwt"
)

// RiderDirectory is the slice of the rider service profiles need.
type RiderDirectory interface {
	GetByID(ctx context.Context, id int64) (*riders.Rider, error)
	GetByEmail(ctx context.Context, email string) (*riders.Rider, error)
	Save(ctx context.Context, r *riders.Rider) error
}

// DriverDirectory is the slice of the driver service profiles need.
type DriverDirectory interface {
	GetByID(ctx context.Context, id int64) (*drivers.Driver, error)
	GetByEmail(ctx context.Context, email string) (*drivers.Driver, error)
	Save(ctx context.Context, d *drivers.Driver) error
	VehicleTypes(ctx context.Context, onlyAvailable bool) ([]string, error)
}

// Service serves profile reads and merge-patch updates for both roles.
type Service struct {
	riders  RiderDirectory
	drivers DriverDirectory
}

func NewService(r RiderDirectory, d DriverDirectory) *Service {
	return &Service{riders: r, drivers: d}
}

// Load resolves the account for role and id.
func (s *Service) Load(ctx context.Context, role Role, id int64) (Account, error) {
	switch role {
	case RoleRider:
		r, err := s.riders.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &riderAccount{r: r, dir: s.riders}, nil
	case RoleDriver:
		d, err := s.drivers.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &driverAccount{d: d, dir: s.drivers}, nil
	}
	return nil, apperrors.Validation("invalid role")
}

// LoadByEmail resolves the account for role and email.
func (s *Service) LoadByEmail(ctx context.Context, role Role, email string) (Account, error) {
	switch role {
	case RoleRider:
		r, err := s.riders.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return &riderAccount{r: r, dir: s.riders}, nil
	case RoleDriver:
		d, err := s.drivers.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return &driverAccount{d: d, dir: s.drivers}, nil
	}
	return nil, apperrors.Validation("invalid role")
}

// Get returns the profile snapshot for role and id.
func (s *Service) Get(ctx context.Context, role Role, id int64) (*Profile, error) {
	acct, err := s.Load(ctx, role, id)
	if err != nil {
		return nil, err
	}
	p := acct.Snapshot()
	return &p, nil
}

// GetByEmail returns the profile snapshot for role and email.
func (s *Service) GetByEmail(ctx context.Context, role Role, email string) (*Profile, error) {
	acct, err := s.LoadByEmail(ctx, role, email)
	if err != nil {
		return nil, err
	}
	p := acct.Snapshot()
	return &p, nil
}

// Exists reports whether an account of role has the given id.
func (s *Service) Exists(ctx context.Context, role Role, id int64) (bool, error) {
	_, err := s.Load(ctx, role, id)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Update applies a merge-patch and saves only when something changed.
func (s *Service) Update(ctx context.Context, role Role, id int64, patch []byte) (*Profile, error) {
	acct, err := s.Load(ctx, role, id)
	if err != nil {
		return nil, err
	}
	changed, err := acct.Apply(patch)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := acct.Save(ctx); err != nil {
			return nil, err
		}
		log.Printf("[profiles] updated %s %d", role, id)
	}
	p := acct.Snapshot()
	return &p, nil
}

// Me resolves the caller's own role and id from token claims.
func Me(claims *jwt.Claims) (Role, int64, error) {
	if claims == nil {
		return 0, 0, apperrors.InvalidCredentials()
	}
	role, ok := ParseRole(claims.Role)
	if !ok {
		return 0, 0, apperrors.Validation("token carries an unknown role")
	}
	return role, claims.UserID, nil
}

// VehicleTypes lists distinct vehicle types across drivers.
func (s *Service) VehicleTypes(ctx context.Context, onlyAvailable bool) ([]string, error) {
	return s.drivers.VehicleTypes(ctx, onlyAvailable)
}
