package rides

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by a Store when no row has the requested ID.
var ErrNotFound = errors.New("ride not found")

// Filter selects rides for the list queries. Zero values mean "any".
type Filter struct {
	RiderID     int64
	DriverID    int64
	Status      Status
	VehicleType string
	ActiveOnly  bool
	Since       time.Time
}

// Store persists rides. Save overwrites the whole row with no version check.
type Store interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id int64) (*Ride, error)
	Save(ctx context.Context, r *Ride) error
	List(ctx context.Context, f Filter) ([]*Ride, error)
}

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a ride store backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const rideColumns = `id,rider_id,driver_id,pickup_location,dropoff_location,
	pickup_latitude,pickup_longitude,dropoff_latitude,dropoff_longitude,
	status,fare,distance,duration,otp_code,vehicle_type,
	requested_at,accepted_at,started_at,completed_at,cancelled_at,cancellation_reason,
	current_driver_latitude,current_driver_longitude,last_location_at,created_at,updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *Ride) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO rides (rider_id,pickup_location,dropoff_location,
		    pickup_latitude,pickup_longitude,dropoff_latitude,dropoff_longitude,
		    status,otp_code,vehicle_type,requested_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING id,created_at,updated_at`,
		r.RiderID, r.PickupLocation, r.DropoffLocation,
		r.PickupLatitude, r.PickupLongitude, r.DropoffLatitude, r.DropoffLongitude,
		string(r.Status), r.OTPCode, nullString(r.VehicleType), r.RequestedAt).
		Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id=$1`, id)
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) Save(ctx context.Context, r *Ride) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE rides SET driver_id=$1, status=$2, fare=$3, distance=$4, duration=$5,
		    accepted_at=$6, started_at=$7, completed_at=$8, cancelled_at=$9, cancellation_reason=$10,
		    current_driver_latitude=$11, current_driver_longitude=$12, last_location_at=$13,
		    updated_at=NOW()
		 WHERE id=$14`,
		r.DriverID, string(r.Status), r.Fare, r.Distance, r.Duration,
		r.AcceptedAt, r.StartedAt, r.CompletedAt, r.CancelledAt, r.CancellationReason,
		r.CurrentDriverLat, r.CurrentDriverLng, r.LastLocationAt, r.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]*Ride, error) {
	query, args := buildListQuery(f)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// buildListQuery renders a Filter into SQL, newest first.
func buildListQuery(f Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.RiderID != 0 {
		add("rider_id=$%d", f.RiderID)
	}
	if f.DriverID != 0 {
		add("driver_id=$%d", f.DriverID)
	}
	if f.Status != "" {
		add("status=$%d", string(f.Status))
	}
	if f.VehicleType != "" {
		add("vehicle_type=$%d", f.VehicleType)
	}
	if f.ActiveOnly {
		where = append(where, fmt.Sprintf("status NOT IN ('%s','%s')", StatusCompleted, StatusCancelled))
	}
	if !f.Since.IsZero() {
		add("created_at>=$%d", f.Since)
	}

	query := `SELECT ` + rideColumns + ` FROM rides`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	return query, args
}

func scanRide(row pgx.Row) (*Ride, error) {
	var (
		r          Ride
		status     string
		otp, vtype *string
	)
	err := row.Scan(&r.ID, &r.RiderID, &r.DriverID, &r.PickupLocation, &r.DropoffLocation,
		&r.PickupLatitude, &r.PickupLongitude, &r.DropoffLatitude, &r.DropoffLongitude,
		&status, &r.Fare, &r.Distance, &r.Duration, &otp, &vtype,
		&r.RequestedAt, &r.AcceptedAt, &r.StartedAt, &r.CompletedAt, &r.CancelledAt, &r.CancellationReason,
		&r.CurrentDriverLat, &r.CurrentDriverLng, &r.LastLocationAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = Status(status)
	if otp != nil {
		r.OTPCode = *otp
	}
	if vtype != nil {
		r.VehicleType = *vtype
	}
	return &r, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
