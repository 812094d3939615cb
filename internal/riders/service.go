package riders

import (
	"context"
	"errors"
	"log"
	"strings"

	"ridesharing/internal/apperrors"
	"ridesharing/pkg/credentials"
	"ridesharing/pkg/jwt"
	"ridesharing/pkg/validation"
)

// WalletOpener creates a rider's wallet. *wallets.Service satisfies it.
type WalletOpener interface {
	Ensure(ctx context.Context, riderID int64) error
}

// Service contains rider account logic.
type Service struct {
	store   Store
	hasher  credentials.Hasher
	wallets WalletOpener
}

// NewService creates a rider service. wallets may be nil.
func NewService(store Store, hasher credentials.Hasher, wallets WalletOpener) *Service {
	return &Service{store: store, hasher: hasher, wallets: wallets}
}

// Signup creates a rider account, opens its wallet and returns a JWT.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	email := strings.TrimSpace(req.Email)
	if err := validation.First(
		validation.Email(email),
		validation.Password(req.Password),
		validation.Name("username", req.Username),
		validation.Phone(req.Phone),
	); err != nil {
		return nil, err
	}
	if req.Age < 0 {
		return nil, apperrors.Validation("invalid age")
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
	r := &Rider{
		Username:     strings.TrimSpace(req.Username),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Phone:        req.Phone,
		Age:          req.Age,
		Location:     req.Location,
		Avatar:       req.Avatar,
	}
	if err := s.store.Create(ctx, r); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperrors.Conflict(err.Error())
		}
		return nil, err
	}
	log.Printf("[riders] rider %d signed up", r.ID)

	if s.wallets != nil {
		// wallets are also created on first read
		if err := s.wallets.Ensure(ctx, r.ID); err != nil {
			log.Printf("[riders] open wallet for rider %d: %v", r.ID, err)
		}
	}

	token, err := jwt.Generate(r.ID, r.Email, r.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, Rider: r}, nil
}

// Login authenticates a rider. Unknown email, wrong password and role
// mismatch all produce the same error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	r, err := s.store.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.InvalidCredentials()
	}
	if err != nil {
		return nil, err
	}
	if !credentials.Check(s.hasher, req.Password, r.PasswordHash, req.Role, r.Role) {
		return nil, apperrors.InvalidCredentials()
	}

	token, err := jwt.Generate(r.ID, r.Email, r.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, Rider: r}, nil
}

// GetByID fetches a single rider by primary key.
func (s *Service) GetByID(ctx context.Context, id int64) (*Rider, error) {
	r, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFound("rider")
	}
	return r, err
}

// GetByEmail fetches a rider by email, ignoring case.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Rider, error) {
	r, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFound("rider")
	}
	return r, err
}

// Update merges p into the stored rider and saves it when anything changed.
func (s *Service) Update(ctx context.Context, id int64, p Patch) (*Rider, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Phone != nil {
		if err := validation.Phone(*p.Phone); err != nil {
			return nil, err
		}
	}
	if !r.Apply(p) {
		return r, nil
	}
	if err := s.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Save writes back the editable profile fields of r.
func (s *Service) Save(ctx context.Context, r *Rider) error {
	err := s.store.Update(ctx, r)
	if errors.Is(err, ErrNotFound) {
		return apperrors.NotFound("rider")
	}
	return err
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, id int64, req ChangePasswordRequest) error {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(req.CurrentPassword, r.PasswordHash) {
		return apperrors.InvalidCredentials()
	}
	if err := validation.Password(req.NewPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.NotFound("rider")
		}
		return err
	}
	log.Printf("[riders] rider %d changed password", id)
	return nil
}
