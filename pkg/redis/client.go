package redis

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const driverGeoKey = "driver:locations"

// Client wraps the Redis connection.
type Client struct {
	rdb         *goredis.Client
	locationTTL time.Duration
}

// Options configures NewClient.
type Options struct {
	Addr        string
	Password    string
	LocationTTL time.Duration
	Attempts    int
}

// NewClient connects to Redis with retry.
func NewClient(opts Options) (*Client, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 20
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: opts.Addr, Password: opts.Password})
	for i := 0; i < opts.Attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			log.Println("[redis] connected")
			return Wrap(rdb, opts.LocationTTL), nil
		}
		log.Printf("[redis] waiting... (%d/%d)", i+1, opts.Attempts)
		if i < opts.Attempts-1 {
			time.Sleep(2 * time.Second)
		}
	}
	rdb.Close()
	return nil, fmt.Errorf("redis: failed to connect after %d attempts", opts.Attempts)
}

// Wrap adopts an existing go-redis client.
func Wrap(rdb *goredis.Client, locationTTL time.Duration) *Client {
	if locationTTL <= 0 {
		locationTTL = 6 * time.Hour
	}
	return &Client{rdb: rdb, locationTTL: locationTTL}
}

// Raw exposes the underlying client for middleware that needs plain commands.
func (c *Client) Raw() *goredis.Client { return c.rdb }

func rideKey(rideID int64) string { return "ride:" + strconv.FormatInt(rideID, 10) + ":location" }

// SetRideLocation stores the latest driver position for a ride in a hash
// with TTL.
func (c *Client) SetRideLocation(ctx context.Context, rideID int64, lat, lng float64, at time.Time) error {
	key := rideKey(rideID)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"lat": strconv.FormatFloat(lat, 'f', -1, 64),
		"lng": strconv.FormatFloat(lng, 'f', -1, 64),
		"at":  at.UTC().Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, c.locationTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// RideLocation reads the cached position. ok is false when nothing is cached.
func (c *Client) RideLocation(ctx context.Context, rideID int64) (lat, lng float64, at time.Time, ok bool, err error) {
	vals, err := c.rdb.HGetAll(ctx, rideKey(rideID)).Result()
	if err != nil || len(vals) == 0 {
		return 0, 0, time.Time{}, false, err
	}
	if lat, err = strconv.ParseFloat(vals["lat"], 64); err != nil {
		return 0, 0, time.Time{}, false, fmt.Errorf("redis: bad cached lat for ride %d: %w", rideID, err)
	}
	if lng, err = strconv.ParseFloat(vals["lng"], 64); err != nil {
		return 0, 0, time.Time{}, false, fmt.Errorf("redis: bad cached lng for ride %d: %w", rideID, err)
	}
	if at, err = time.Parse(time.RFC3339Nano, vals["at"]); err != nil {
		return 0, 0, time.Time{}, false, fmt.Errorf("redis: bad cached time for ride %d: %w", rideID, err)
	}
	return lat, lng, at, true, nil
}

// SetDriverLocation records a driver position in the GEO set.
func (c *Client) SetDriverLocation(ctx context.Context, driverID int64, lat, lng float64) error {
	return c.rdb.GeoAdd(ctx, driverGeoKey, &goredis.GeoLocation{
		Name:      strconv.FormatInt(driverID, 10),
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// Close tears down the Redis connection.
func (c *Client) Close() error { return c.rdb.Close() }
