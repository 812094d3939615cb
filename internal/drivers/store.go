package drivers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridesharing/pkg/db"
)

var (
	ErrNotFound  = errors.New("driver not found")
	ErrDuplicate = errors.New("email or license number already registered")
)

// Store persists driver accounts.
type Store interface {
	Create(ctx context.Context, d *Driver) error
	GetByID(ctx context.Context, id int64) (*Driver, error)
	GetByEmail(ctx context.Context, email string) (*Driver, error)
	Update(ctx context.Context, d *Driver) error
	UpdateStatus(ctx context.Context, id int64, s Status) error
	VehicleTypes(ctx context.Context, onlyAvailable bool) ([]string, error)
}

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

const driverColumns = `id,email,password_hash,name,license_number,vehicle_number,vehicle_type,
	vehicle_model,vehicle_color,phone_number,gender,status,role,created_at,updated_at`

func (s *PostgresStore) Create(ctx context.Context, d *Driver) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO drivers (email,password_hash,name,license_number,vehicle_number,vehicle_type,
		    vehicle_model,vehicle_color,phone_number,gender,status,role)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 RETURNING id,created_at,updated_at`,
		d.Email, d.PasswordHash, d.Name, d.LicenseNumber, d.VehicleNumber, d.VehicleType,
		d.VehicleModel, d.VehicleColor, d.PhoneNumber, d.Gender, string(d.Status), d.Role).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*Driver, error) {
	return s.one(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id=$1`, id)
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*Driver, error) {
	return s.one(ctx, `SELECT `+driverColumns+` FROM drivers WHERE LOWER(email)=LOWER($1)`, email)
}

func (s *PostgresStore) one(ctx context.Context, query string, arg any) (*Driver, error) {
	var (
		d      Driver
		status string
	)
	err := s.db.QueryRow(ctx, query, arg).Scan(&d.ID, &d.Email, &d.PasswordHash, &d.Name,
		&d.LicenseNumber, &d.VehicleNumber, &d.VehicleType, &d.VehicleModel, &d.VehicleColor,
		&d.PhoneNumber, &d.Gender, &status, &d.Role, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Status = Status(status)
	return &d, nil
}

func (s *PostgresStore) Update(ctx context.Context, d *Driver) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE drivers SET name=$1, vehicle_number=$2, vehicle_type=$3, vehicle_model=$4,
		    vehicle_color=$5, phone_number=$6, gender=$7, status=$8, updated_at=NOW()
		 WHERE id=$9`,
		d.Name, d.VehicleNumber, d.VehicleType, d.VehicleModel, d.VehicleColor,
		d.PhoneNumber, d.Gender, string(d.Status), d.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, st Status) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE drivers SET status=$1, updated_at=NOW() WHERE id=$2`, string(st), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) VehicleTypes(ctx context.Context, onlyAvailable bool) ([]string, error) {
	query := `SELECT DISTINCT vehicle_type FROM drivers WHERE vehicle_type <> ''`
	var args []any
	if onlyAvailable {
		query += ` AND status=$1`
		args = append(args, string(StatusAvailable))
	}
	query += ` ORDER BY vehicle_type`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var vt string
		if err := rows.Scan(&vt); err != nil {
			return nil, err
		}
		out = append(out, vt)
	}
	return out, rows.Err()
}
