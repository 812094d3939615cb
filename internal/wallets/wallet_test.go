package wallets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ridesharing/internal/apperrors"
	"ridesharing/pkg/jwt"
)

// memStore knows a fixed set of riders; wallets for anyone else fail the
// way the foreign key does.
type memStore struct {
	mu      sync.Mutex
	riders  map[int64]bool
	wallets map[int64]*Wallet
	creates int
}

func newMemStore(riders ...int64) *memStore {
	m := &memStore{riders: map[int64]bool{}, wallets: map[int64]*Wallet{}}
	for _, id := range riders {
		m.riders[id] = true
	}
	return m
}

func (m *memStore) GetOrCreate(_ context.Context, riderID int64) (*Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreate(riderID)
}

func (m *memStore) getOrCreate(riderID int64) (*Wallet, error) {
	if w, ok := m.wallets[riderID]; ok {
		cp := *w
		return &cp, nil
	}
	if !m.riders[riderID] {
		return nil, ErrNoOwner
	}
	m.creates++
	now := time.Now()
	w := &Wallet{ID: int64(len(m.wallets) + 1), RiderID: riderID, CreatedAt: now, UpdatedAt: now}
	m.wallets[riderID] = w
	cp := *w
	return &cp, nil
}

func (m *memStore) Adjust(_ context.Context, riderID int64, delta float64) (*Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getOrCreate(riderID); err != nil {
		return nil, err
	}
	w := m.wallets[riderID]
	w.Balance += delta
	cp := *w
	return &cp, nil
}

func TestGetCreatesLazily(t *testing.T) {
	store := newMemStore(1)
	svc := NewService(store)
	ctx := context.Background()

	w, err := svc.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if w.Balance != 0 || w.RiderID != 1 {
		t.Errorf("wallet = %+v", w)
	}
	svc.Get(ctx, 1)
	if store.creates != 1 {
		t.Errorf("creates = %d, want 1", store.creates)
	}

	if _, err := svc.Get(ctx, 2); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("unknown rider err = %v", err)
	}
	if _, err := svc.Get(ctx, 0); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("zero id err = %v", err)
	}
}

func TestAdjustAndSufficient(t *testing.T) {
	svc := NewService(newMemStore(1))
	ctx := context.Background()

	tests := []struct {
		amount float64
		want   float64
	}{
		{100, 100},
		{-30.5, 69.5},
		{-100, -30.5},
	}
	for _, tt := range tests {
		w, err := svc.Adjust(ctx, 1, tt.amount)
		if err != nil {
			t.Fatal(err)
		}
		if w.Balance != tt.want {
			t.Errorf("after %v balance = %v, want %v", tt.amount, w.Balance, tt.want)
		}
	}

	ok, _ := svc.HasSufficientBalance(ctx, 1, 0)
	if ok {
		t.Error("negative balance reported sufficient")
	}
	svc.Adjust(ctx, 1, 50)
	ok, _ = svc.HasSufficientBalance(ctx, 1, 19.5)
	if !ok {
		t.Error("19.5 should cover 19.5")
	}
}

func TestHandler(t *testing.T) {
	jwt.Init("wallet-test-secret", time.Hour)
	token, _ := jwt.Generate(1, "r@ride.io", "User")
	srv := httptest.NewServer(jwt.OptionalAuth(NewHandler(NewService(newMemStore(1))).Routes()))
	defer srv.Close()

	call := func(method, path, body string) (int, map[string]any) {
		req, _ := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		out := map[string]any{}
		json.NewDecoder(resp.Body).Decode(&out)
		return resp.StatusCode, out
	}

	code, body := call(http.MethodPost, "/1/adjust", `{"amount":25}`)
	if code != http.StatusOK || body["wallet"].(map[string]any)["balance"] != 25.0 {
		t.Fatalf("adjust: %d %v", code, body)
	}
	if code, _ := call(http.MethodPost, "/1/adjust", `{}`); code != http.StatusBadRequest {
		t.Errorf("adjust without amount: %d", code)
	}
	code, body = call(http.MethodGet, "/1/sufficient?amount=30", "")
	if code != http.StatusOK || body["sufficient"] != false {
		t.Errorf("sufficient: %d %v", code, body)
	}
	if code, _ := call(http.MethodGet, "/9", ""); code != http.StatusNotFound {
		t.Errorf("unknown rider: %d", code)
	}
}
