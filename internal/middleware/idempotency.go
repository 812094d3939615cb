package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"ridesharing/internal/apperrors"
	"ridesharing/pkg/httpx"
	"ridesharing/pkg/jwt"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	idempotencyPrefix = "idempotency:"
	lockTTL           = 30 * time.Second
)

// Idempotency replays the first 2xx response for a repeated
// Idempotency-Key, so a retried ride request does not create a second ride.
// Keys are scoped to the authenticated account.
type Idempotency struct {
	redis *goredis.Client
}

type cachedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	BodyHash    string `json:"body_hash"`
}

func NewIdempotency(rdb *goredis.Client) *Idempotency {
	return &Idempotency{redis: rdb}
}

// recorder captures the response for caching.
type recorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *recorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func (m *Idempotency) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyHeader)
		if key == "" || (r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch) {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			httpx.Error(w, apperrors.Validation("failed to read request body"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		bodyHash := hashBody(body)
		cacheKey := idempotencyPrefix + scope(r) + ":" + key
		ctx := r.Context()

		if cached, err := m.lookup(ctx, cacheKey); err == nil {
			if cached.BodyHash != bodyHash {
				httpx.Error(w, apperrors.Conflict("idempotency key already used with a different request"))
				return
			}
			w.Header().Set("Content-Type", cached.ContentType)
			w.Header().Set("Idempotent-Replay", "true")
			w.WriteHeader(cached.StatusCode)
			w.Write(cached.Body)
			return
		} else if !errors.Is(err, goredis.Nil) {
			log.Printf("[idempotency] lookup %s: %v", cacheKey, err)
		}

		lockKey := cacheKey + ":lock"
		locked, err := m.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
		if err != nil {
			// Redis is unavailable: serve the request without replay protection
			log.Printf("[idempotency] lock %s: %v", lockKey, err)
			next.ServeHTTP(w, r)
			return
		}
		if !locked {
			httpx.Error(w, apperrors.Conflict("a request with this idempotency key is already being processed"))
			return
		}
		defer m.redis.Del(context.Background(), lockKey)

		rw := &recorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode < 200 || rw.statusCode >= 300 {
			return
		}
		data, _ := json.Marshal(cachedResponse{
			StatusCode:  rw.statusCode,
			ContentType: rw.Header().Get("Content-Type"),
			Body:        rw.body.Bytes(),
			BodyHash:    bodyHash,
		})
		if err := m.redis.Set(context.Background(), cacheKey, data, idempotencyTTL).Err(); err != nil {
			log.Printf("[idempotency] store %s: %v", cacheKey, err)
		}
	})
}

func (m *Idempotency) lookup(ctx context.Context, key string) (*cachedResponse, error) {
	data, err := m.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func scope(r *http.Request) string {
	if c := jwt.GetClaims(r.Context()); c != nil {
		return c.Role + ":" + strconv.FormatInt(c.UserID, 10)
	}
	return "anon"
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
