package rides

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"ridesharing/pkg/jwt"
)

type envelope struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Ride    *Ride       `json:"ride"`
	Rides   []*Ride     `json:"rides"`
	Count   int         `json:"count"`
	Loc     *Location   `json:"location"`
	Driver  *DriverCard `json:"driver"`
}

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	store := newMemStore()
	svc := NewService(store, nil, nil, nil, 0)
	authed := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := jwt.WithClaims(r.Context(), &jwt.Claims{UserID: 1, Role: "User"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	srv := httptest.NewServer(authed(NewHandler(svc).Routes()))
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url, body string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env envelope
	json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func TestHandlerLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	code, env := do(t, http.MethodPost, srv.URL+"/", `{"riderId":1,"pickupLocation":"A","dropoffLocation":"B"}`)
	if code != http.StatusCreated || !env.Success || env.Ride == nil {
		t.Fatalf("create: %d %+v", code, env)
	}
	ride := env.Ride
	base := srv.URL + "/" + strconv.FormatInt(ride.ID, 10)

	code, env = do(t, http.MethodPost, base+"/accept", `{"driverId":9}`)
	if code != http.StatusOK || env.Ride.Status != StatusAccepted {
		t.Fatalf("accept: %d %+v", code, env)
	}

	code, _ = do(t, http.MethodPost, base+"/accept", `{"driverId":9}`)
	if code != http.StatusConflict {
		t.Errorf("second accept: %d, want 409", code)
	}

	code, env = do(t, http.MethodPost, base+"/location", `{"latitude":12.1,"longitude":77.2}`)
	if code != http.StatusOK || env.Loc == nil || env.Loc.Latitude != 12.1 {
		t.Fatalf("location: %d %+v", code, env)
	}

	code, env = do(t, http.MethodGet, base+"/tracking", "")
	if code != http.StatusOK || env.Loc.Longitude != 77.2 {
		t.Fatalf("tracking: %d %+v", code, env)
	}

	code, env = do(t, http.MethodPost, base+"/verify-otp", `{"otp":"`+ride.OTPCode+`"}`)
	if code != http.StatusOK || env.Ride.Status != StatusInProgress {
		t.Fatalf("verify: %d %+v", code, env)
	}

	code, env = do(t, http.MethodPost, base+"/complete", `{"fare":120,"distance":4.2,"duration":15}`)
	if code != http.StatusOK || env.Ride.Status != StatusCompleted || *env.Ride.Fare != 120 {
		t.Fatalf("complete: %d %+v", code, env)
	}

	code, env = do(t, http.MethodGet, srv.URL+"/rider/1", "")
	if code != http.StatusOK || env.Count != 1 {
		t.Fatalf("rider list: %d %+v", code, env)
	}
	code, env = do(t, http.MethodGet, srv.URL+"/rider/1/active", "")
	if code != http.StatusOK || env.Count != 0 {
		t.Fatalf("rider active: %d %+v", code, env)
	}
}

func TestHandlerErrors(t *testing.T) {
	srv, store := newTestServer(t)
	store.put(&Ride{ID: 5, RiderID: 1, Status: StatusRequested, OTPCode: "123456"})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
		code   string
	}{
		{"create missing fields", http.MethodPost, "/", `{"riderId":1}`, http.StatusBadRequest, "validation_failed"},
		{"malformed body", http.MethodPost, "/5/accept", `{`, http.StatusBadRequest, "validation_failed"},
		{"bad id", http.MethodGet, "/abc", "", http.StatusBadRequest, "validation_failed"},
		{"missing ride", http.MethodGet, "/404", "", http.StatusNotFound, "not_found"},
		{"start before accept", http.MethodPost, "/5/start", "", http.StatusConflict, "illegal_transition"},
		{"wrong otp", http.MethodPost, "/5/verify-otp", `{"otp":"654321"}`, http.StatusBadRequest, "validation_failed"},
		{"unknown status", http.MethodPut, "/5/status", `{"status":"FLYING"}`, http.StatusBadRequest, "validation_failed"},
		{"unknown list status", http.MethodGet, "/status/FLYING", "", http.StatusBadRequest, "validation_failed"},
		{"location out of range", http.MethodPost, "/5/location", `{"latitude":100,"longitude":0}`, http.StatusBadRequest, "validation_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, tt.method, srv.URL+tt.path, tt.body)
			if code != tt.want {
				t.Fatalf("status = %d, want %d", code, tt.want)
			}
			if env.Success || env.Error != tt.code {
				t.Errorf("envelope = %+v, want error %q", env, tt.code)
			}
		})
	}
}

func TestHandlerCancelWithoutBody(t *testing.T) {
	srv, store := newTestServer(t)
	store.put(&Ride{ID: 3, RiderID: 1, Status: StatusAccepted})

	code, env := do(t, http.MethodPost, srv.URL+"/3/cancel", "")
	if code != http.StatusOK || env.Ride.Status != StatusCancelled {
		t.Fatalf("cancel: %d %+v", code, env)
	}
	if *env.Ride.CancellationReason != DefaultCancelReason {
		t.Errorf("reason = %q", *env.Ride.CancellationReason)
	}
}

func TestHandlerCompleteBody(t *testing.T) {
	srv, store := newTestServer(t)
	store.put(&Ride{ID: 11, RiderID: 1, Status: StatusInProgress})
	store.put(&Ride{ID: 12, RiderID: 1, Status: StatusInProgress})

	for _, body := range []string{
		`{"fare":"abc","distance":4.2,"duration":15}`,
		`{"fare":120,"distance":true}`,
		`{"fare":120,"duration":"15.5"}`,
		`{"fare":`,
	} {
		code, env := do(t, http.MethodPost, srv.URL+"/11/complete", body)
		if code != http.StatusBadRequest || env.Error != "validation_failed" {
			t.Errorf("complete %s: %d %+v", body, code, env)
		}
	}
	_, env := do(t, http.MethodGet, srv.URL+"/11", "")
	if env.Ride.Status != StatusInProgress || env.Ride.Fare != nil {
		t.Fatalf("rejected body changed ride: %+v", env.Ride)
	}

	code, env := do(t, http.MethodPost, srv.URL+"/12/complete", `{"fare":"120.0","distance":"4.2","duration":"15"}`)
	if code != http.StatusOK || env.Ride.Status != StatusCompleted {
		t.Fatalf("complete: %d %+v", code, env)
	}
	if *env.Ride.Fare != 120 || *env.Ride.Distance != 4.2 || *env.Ride.Duration != 15 {
		t.Errorf("figures = %v %v %v", *env.Ride.Fare, *env.Ride.Distance, *env.Ride.Duration)
	}
}

func TestHandlerCancelRejectsBadReason(t *testing.T) {
	srv, store := newTestServer(t)
	store.put(&Ride{ID: 4, RiderID: 1, Status: StatusAccepted})

	code, env := do(t, http.MethodPost, srv.URL+"/4/cancel", `{"reason":5}`)
	if code != http.StatusBadRequest || env.Error != "validation_failed" {
		t.Fatalf("cancel: %d %+v", code, env)
	}
	_, env = do(t, http.MethodGet, srv.URL+"/4", "")
	if env.Ride.Status != StatusAccepted {
		t.Errorf("status = %s, want ACCEPTED", env.Ride.Status)
	}
}

func TestHandlerSetStatusOverride(t *testing.T) {
	srv, store := newTestServer(t)
	store.put(&Ride{ID: 8, RiderID: 1, Status: StatusCompleted})

	code, env := do(t, http.MethodPut, srv.URL+"/8/status", `{"status":"driver_arrived"}`)
	if code != http.StatusOK || env.Ride.Status != StatusDriverArrived {
		t.Fatalf("override: %d %+v", code, env)
	}
}

func TestHandlerRequiresAuth(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil, nil, 0)
	srv := httptest.NewServer(NewHandler(svc).Routes())
	defer srv.Close()

	code, _ := do(t, http.MethodGet, srv.URL+"/1", "")
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}
