package tracking

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ridesharing/internal/events"
	"ridesharing/pkg/kafka"
)

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitSubscribers(t *testing.T, h *Hub, rideID int64, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers(rideID) != n {
		if time.Now().After(deadline) {
			t.Fatalf("ride %d has %d subscribers, want %d", rideID, h.Subscribers(rideID), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readJSON(t *testing.T, conn *websocket.Conn, dst any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(dst); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func TestHubBroadcastsPerRide(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()

	a := dial(t, srv, "/rides/1")
	b := dial(t, srv, "/rides/2")
	waitSubscribers(t, hub, 1, 1)
	waitSubscribers(t, hub, 2, 1)

	hub.Broadcast(1, map[string]string{"hello": "one"})
	hub.Broadcast(2, map[string]string{"hello": "two"})

	var got map[string]string
	readJSON(t, a, &got)
	if got["hello"] != "one" {
		t.Errorf("ride 1 got %v", got)
	}
	readJSON(t, b, &got)
	if got["hello"] != "two" {
		t.Errorf("ride 2 got %v", got)
	}
}

func TestHubDropsClosedConnections(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()

	conn := dial(t, srv, "/rides/7")
	waitSubscribers(t, hub, 7, 1)

	conn.Close()
	waitSubscribers(t, hub, 7, 0)
}

func TestHubRejectsBadRideID(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/rides/abc"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Errorf("response = %v, want 400", resp)
	}
}

type fakeSubscriber struct {
	calls   int
	groupID string
	topics  []string
	handler func(string, []byte) error
}

func (f *fakeSubscriber) Subscribe(_ context.Context, groupID string, topics []string, handler func(string, []byte) error) {
	f.calls++
	f.groupID = groupID
	f.topics = topics
	f.handler = handler
}

func TestRelayForwardsEvents(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()

	sub := &fakeSubscriber{}
	NewRelay(hub, sub).Start(context.Background())

	if sub.calls != 1 {
		t.Fatalf("relay opened %d readers, want 1", sub.calls)
	}
	if sub.groupID == "" {
		t.Error("empty consumer group")
	}
	want := map[string]bool{kafka.TopicRideLocation: true}
	for _, topic := range kafka.StatusTopics {
		want[topic] = true
	}
	if len(sub.topics) != len(want) {
		t.Errorf("topics = %v", sub.topics)
	}
	for _, topic := range sub.topics {
		if !want[topic] {
			t.Errorf("unexpected topic %s", topic)
		}
	}

	conn := dial(t, srv, "/rides/42")
	waitSubscribers(t, hub, 42, 1)

	loc, _ := json.Marshal(events.LocationEvent{
		RideID:    42,
		Position:  events.LatLng{Lat: 12.5, Lng: 77.5},
		UpdatedAt: "2024-01-01T00:00:00Z",
	})
	if err := sub.handler(kafka.TopicRideLocation, loc); err != nil {
		t.Fatal(err)
	}
	var lm LocationMessage
	readJSON(t, conn, &lm)
	if lm.Type != "location" || lm.RideID != 42 || lm.Latitude != 12.5 || lm.Longitude != 77.5 {
		t.Errorf("location message = %+v", lm)
	}

	st, _ := json.Marshal(events.RideStatusEvent{RideID: 42, Status: "CANCELLED", Reason: "late"})
	if err := sub.handler(kafka.TopicRideCancelled, st); err != nil {
		t.Fatal(err)
	}
	var sm StatusMessage
	readJSON(t, conn, &sm)
	if sm.Type != "status" || sm.Status != "CANCELLED" || sm.Reason != "late" {
		t.Errorf("status message = %+v", sm)
	}

	if err := sub.handler(kafka.TopicRideAccepted, []byte("{")); err == nil {
		t.Error("malformed payload accepted")
	}
}
