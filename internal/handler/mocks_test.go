package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/railtix/tickets/internal/domain"
	"github.com/railtix/tickets/internal/handler"
	"github.com/railtix/tickets/internal/middleware"
	"github.com/railtix/tickets/internal/service"
)

// mockFareServicer is a test double for handler.FareServicer.
// Set only the method fields your test needs.
type mockFareServicer struct {
	quote        func(ctx context.Context, rider domain.Rider, req service.QuoteRequest) (decimal.Decimal, error)
	destinations func(ctx context.Context, p domain.PaginationParams) ([]domain.Destination, int64, error)
}

func (m *mockFareServicer) Quote(ctx context.Context, rider domain.Rider, req service.QuoteRequest) (decimal.Decimal, error) {
	return m.quote(ctx, rider, req)
}
func (m *mockFareServicer) Destinations(ctx context.Context, p domain.PaginationParams) ([]domain.Destination, int64, error) {
	return m.destinations(ctx, p)
}

var _ handler.FareServicer = (*mockFareServicer)(nil)

// mockReservationServicer is a test double for handler.ReservationServicer.
type mockReservationServicer struct {
	reserve   func(ctx context.Context, riderID uuid.UUID, req service.ReserveRequest) ([]domain.Reservation, error)
	list      func(ctx context.Context, riderID uuid.UUID) ([]domain.Reservation, error)
	pay       func(ctx context.Context, riderID, id uuid.UUID) error
	editDates func(ctx context.Context, riderID, id uuid.UUID, shift domain.DateShift) (domain.Reservation, error)
	cancel    func(ctx context.Context, riderID, id uuid.UUID) error
}

func (m *mockReservationServicer) Reserve(ctx context.Context, riderID uuid.UUID, req service.ReserveRequest) ([]domain.Reservation, error) {
	return m.reserve(ctx, riderID, req)
}
func (m *mockReservationServicer) List(ctx context.Context, riderID uuid.UUID) ([]domain.Reservation, error) {
	return m.list(ctx, riderID)
}
func (m *mockReservationServicer) Pay(ctx context.Context, riderID, id uuid.UUID) error {
	return m.pay(ctx, riderID, id)
}
func (m *mockReservationServicer) EditDates(ctx context.Context, riderID, id uuid.UUID, shift domain.DateShift) (domain.Reservation, error) {
	return m.editDates(ctx, riderID, id, shift)
}
func (m *mockReservationServicer) Cancel(ctx context.Context, riderID, id uuid.UUID) error {
	return m.cancel(ctx, riderID, id)
}

var _ handler.ReservationServicer = (*mockReservationServicer)(nil)

// mockRiderDirectory is a test double for handler.RiderDirectory.
type mockRiderDirectory struct {
	getByID func(ctx context.Context, id uuid.UUID) (domain.Rider, error)
}

func (m *mockRiderDirectory) GetByID(ctx context.Context, id uuid.UUID) (domain.Rider, error) {
	return m.getByID(ctx, id)
}

var _ handler.RiderDirectory = (*mockRiderDirectory)(nil)

// ---- helpers ---------------------------------------------------------------

var testRiderID = uuid.MustParse("5b8f0c1e-2d7a-4f3b-9e6c-1a2b3c4d5e6f")

// fakeAuth stands in for middleware.NewRiderAuth: every request is testRiderID.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.WithRiderID(r.Context(), testRiderID)))
	})
}

type deps struct {
	fares        handler.FareServicer
	reservations handler.ReservationServicer
	riders       handler.RiderDirectory
	db           handler.Pinger
}

// newHTTPHandler wires a Server with the given mocks into its router,
// the same way main.go does in production.
func newHTTPHandler(d deps) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := handler.NewServer(d.fares, d.reservations, d.riders, d.db, log)
	return srv.Handler(fakeAuth)
}

func serve(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// errorCode decodes the error envelope and returns its code.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code
}

func decimalOf(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
