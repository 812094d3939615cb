package wallets

import (
	"context"
	"errors"
	"log"

	"ridesharing/internal/apperrors"
)

// Service contains wallet bookkeeping. Nothing here is tied to fare
// settlement; callers adjust balances explicitly.
type Service struct {
	store Store
}

// NewService creates a wallet service.
func NewService(store Store) *Service { return &Service{store: store} }

// Get returns the rider's wallet, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, riderID int64) (*Wallet, error) {
	if riderID <= 0 {
		return nil, apperrors.Validation("invalid riderId")
	}
	w, err := s.store.GetOrCreate(ctx, riderID)
	return w, mapErr(err)
}

// Ensure creates the wallet if it is missing.
func (s *Service) Ensure(ctx context.Context, riderID int64) error {
	_, err := s.Get(ctx, riderID)
	return err
}

// Adjust adds amount, which may be negative, to the balance.
func (s *Service) Adjust(ctx context.Context, riderID int64, amount float64) (*Wallet, error) {
	if riderID <= 0 {
		return nil, apperrors.Validation("invalid riderId")
	}
	w, err := s.store.Adjust(ctx, riderID, amount)
	if err != nil {
		return nil, mapErr(err)
	}
	log.Printf("[wallets] rider %d adjusted by %.2f, balance %.2f", riderID, amount, w.Balance)
	return w, nil
}

// HasSufficientBalance reports whether the balance covers amount.
func (s *Service) HasSufficientBalance(ctx context.Context, riderID int64, amount float64) (bool, error) {
	w, err := s.Get(ctx, riderID)
	if err != nil {
		return false, err
	}
	return w.Balance >= amount, nil
}

func mapErr(err error) error {
	if errors.Is(err, ErrNoOwner) {
		return apperrors.NotFound("rider")
	}
	return err
}
