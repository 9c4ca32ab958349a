package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type riderKey struct{}

// NewRiderAuth returns a middleware that requires an HS256 bearer token
// signed with secret. The token subject must be a rider UUID; it is stored
// in the request context for RiderID. Anything else gets a 401.
func NewRiderAuth(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := riderFromHeader(parser, keyFunc, r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="tickets"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRiderID(r.Context(), id)))
		})
	}
}

func riderFromHeader(parser *jwt.Parser, keyFunc jwt.Keyfunc, header string) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, errors.New("missing bearer token")
	}

	var claims jwt.RegisteredClaims
	if _, err := parser.ParseWithClaims(strings.TrimSpace(raw), &claims, keyFunc); err != nil {
		return uuid.Nil, errors.New("invalid token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.New("token subject is not a rider id")
	}
	return id, nil
}

// WithRiderID returns a copy of ctx carrying the authenticated rider id.
func WithRiderID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, riderKey{}, id)
}

// RiderID returns the rider id placed in ctx by NewRiderAuth.
func RiderID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(riderKey{}).(uuid.UUID)
	return id, ok
}

// writeError writes the API's JSON error envelope.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	})
}
