package wallets

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ridesharing/pkg/db"
)

// ErrNoOwner is returned when the rider a wallet would belong to does not exist.
var ErrNoOwner = errors.New("wallet owner does not exist")

// Wallet is a rider's adjustable balance. The balance may go negative.
type Wallet struct {
	ID        int64     `json:"id"`
	RiderID   int64     `json:"riderId"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AdjustRequest is the body for POST /api/wallets/{riderId}/adjust. A
// negative amount debits.
type AdjustRequest struct {
	Amount *float64 `json:"amount" validate:"required"`
}

// Store persists wallets, one per rider.
type Store interface {
	GetOrCreate(ctx context.Context, riderID int64) (*Wallet, error)
	Adjust(ctx context.Context, riderID int64, delta float64) (*Wallet, error)
}

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, riderID int64) (*Wallet, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO wallets (rider_id,balance) VALUES ($1,0) ON CONFLICT (rider_id) DO NOTHING`, riderID)
	if db.IsForeignKeyViolation(err) {
		return nil, ErrNoOwner
	}
	if err != nil {
		return nil, err
	}
	var w Wallet
	err = s.db.QueryRow(ctx,
		`SELECT id,rider_id,balance,created_at,updated_at FROM wallets WHERE rider_id=$1`, riderID).
		Scan(&w.ID, &w.RiderID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *PostgresStore) Adjust(ctx context.Context, riderID int64, delta float64) (*Wallet, error) {
	if _, err := s.GetOrCreate(ctx, riderID); err != nil {
		return nil, err
	}
	var w Wallet
	err := s.db.QueryRow(ctx,
		`UPDATE wallets SET balance=balance+$1, updated_at=NOW() WHERE rider_id=$2
		 RETURNING id,rider_id,balance,created_at,updated_at`, delta, riderID).
		Scan(&w.ID, &w.RiderID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
