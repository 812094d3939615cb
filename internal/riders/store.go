package riders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridesharing/pkg/db"
)

var (
	ErrNotFound  = errors.New("rider not found")
	ErrDuplicate = errors.New("email already registered")
)

// Store persists rider accounts.
type Store interface {
	Create(ctx context.Context, r *Rider) error
	GetByID(ctx context.Context, id int64) (*Rider, error)
	GetByEmail(ctx context.Context, email string) (*Rider, error)
	Update(ctx context.Context, r *Rider) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

const riderColumns = `id,username,email,password_hash,role,phone,age,location,avatar,created_at,updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *Rider) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO riders (username,email,password_hash,role,phone,age,location,avatar)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING id,created_at,updated_at`,
		r.Username, r.Email, r.PasswordHash, r.Role, r.Phone, r.Age, r.Location, r.Avatar).
		Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*Rider, error) {
	return s.one(ctx, `SELECT `+riderColumns+` FROM riders WHERE id=$1`, id)
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*Rider, error) {
	return s.one(ctx, `SELECT `+riderColumns+` FROM riders WHERE LOWER(email)=LOWER($1)`, email)
}

func (s *PostgresStore) one(ctx context.Context, query string, arg any) (*Rider, error) {
	var r Rider
	err := s.db.QueryRow(ctx, query, arg).Scan(&r.ID, &r.Username, &r.Email, &r.PasswordHash,
		&r.Role, &r.Phone, &r.Age, &r.Location, &r.Avatar, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) Update(ctx context.Context, r *Rider) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE riders SET username=$1, phone=$2, age=$3, location=$4, avatar=$5, updated_at=NOW()
		 WHERE id=$6`,
		r.Username, r.Phone, r.Age, r.Location, r.Avatar, r.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE riders SET password_hash=$1, updated_at=NOW() WHERE id=$2`, hash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
