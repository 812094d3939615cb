package rides

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store. It copies on the way in and out so tests
// observe the same isolation a database gives.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	rides  map[int64]*Ride
	saves  int
}

func newMemStore() *memStore {
	return &memStore{rides: make(map[int64]*Ride)}
}

func (m *memStore) Create(_ context.Context, r *Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	r.UpdatedAt = r.CreatedAt
	m.rides[r.ID] = r.Clone()
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (m *memStore) Save(_ context.Context, r *Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[r.ID]; !ok {
		return ErrNotFound
	}
	m.saves++
	r.UpdatedAt = time.Now()
	m.rides[r.ID] = r.Clone()
	return nil
}

func (m *memStore) List(_ context.Context, f Filter) ([]*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Ride
	for _, r := range m.rides {
		if f.RiderID != 0 && r.RiderID != f.RiderID {
			continue
		}
		if f.DriverID != 0 && (r.DriverID == nil || *r.DriverID != f.DriverID) {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.VehicleType != "" && r.VehicleType != f.VehicleType {
			continue
		}
		if f.ActiveOnly && !r.Status.Active() {
			continue
		}
		if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) put(r *Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = r.Clone()
	if r.ID > m.nextID {
		m.nextID = r.ID
	}
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// recordingPublisher captures published topics.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	done   chan string
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{done: make(chan string, 32)}
}

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, _ any) error {
	p.mu.Lock()
	p.topics = append(p.topics, topic)
	p.mu.Unlock()
	p.done <- topic
	return nil
}

// memCache is a LocationCache backed by maps.
type memCache struct {
	mu      sync.Mutex
	locs    map[int64]Location
	drivers map[int64][2]float64
}

func newMemCache() *memCache {
	return &memCache{locs: make(map[int64]Location), drivers: make(map[int64][2]float64)}
}

func (c *memCache) SetDriverLocation(_ context.Context, driverID int64, lat, lng float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drivers[driverID] = [2]float64{lat, lng}
	return nil
}

func (c *memCache) SetRideLocation(_ context.Context, rideID int64, lat, lng float64, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locs[rideID] = Location{Latitude: lat, Longitude: lng, UpdatedAt: at}
	return nil
}

func (c *memCache) RideLocation(_ context.Context, rideID int64) (float64, float64, time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locs[rideID]
	return l.Latitude, l.Longitude, l.UpdatedAt, ok, nil
}
