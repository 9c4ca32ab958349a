package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railtix/tickets/internal/middleware"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func riderClaims(sub string, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
}

// serveAuth runs one request with the given Authorization header through the
// middleware and reports the rider id the inner handler saw, if it ran.
func serveAuth(t *testing.T, header string) (*httptest.ResponseRecorder, uuid.UUID, bool) {
	t.Helper()
	var (
		seen uuid.UUID
		ran  bool
	)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ran = middleware.RiderID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := middleware.NewRiderAuth(testSecret)(inner)

	req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen, ran
}

func TestRiderAuth_ValidToken(t *testing.T) {
	id := uuid.New()
	tok := signToken(t, jwt.SigningMethodHS256, testSecret, riderClaims(id.String(), time.Hour))

	rec, seen, ran := serveAuth(t, "Bearer "+tok)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)
	assert.Equal(t, id, seen)
}

func TestRiderAuth_Rejects(t *testing.T) {
	id := uuid.NewString()
	tests := []struct {
		name   string
		header func(t *testing.T) string
	}{
		{"missing header", func(*testing.T) string { return "" }},
		{"not bearer", func(*testing.T) string { return "Basic dXNlcjpwYXNz" }},
		{"empty token", func(*testing.T) string { return "Bearer " }},
		{"garbage", func(*testing.T) string { return "Bearer not.a.jwt" }},
		{"wrong secret", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), riderClaims(id, time.Hour))
		}},
		{"wrong algorithm", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS512, testSecret, riderClaims(id, time.Hour))
		}},
		{"expired", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, riderClaims(id, -time.Minute))
		}},
		{"no expiry", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{Subject: id})
		}},
		{"subject not a uuid", func(t *testing.T) string {
			return "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, riderClaims("alice", time.Hour))
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, _, ran := serveAuth(t, tc.header(t))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, ran, "inner handler must not run")

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, "unauthorized", body.Error.Code)
		})
	}
}
