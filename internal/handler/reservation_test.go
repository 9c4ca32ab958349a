package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railtix/tickets/internal/domain"
	"github.com/railtix/tickets/internal/handler"
	"github.com/railtix/tickets/internal/middleware"
	"github.com/railtix/tickets/internal/service"
)

func reservationFixture() domain.Reservation {
	start := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	r := domain.NewReservation(testRiderID, uuid.New(), start, start.AddDate(0, 0, 2), decimalOf("9.5"))
	r.ID = uuid.New()
	r.TownFrom, r.TownTo, r.Distance = "Sofia", "Varna", 443
	r.CreatedAt = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	return r
}

// ---- CreateReservations ----------------------------------------------------

func TestCreateReservations_returns204(t *testing.T) {
	routeID := uuid.New()
	var (
		gotRider uuid.UUID
		gotReq   service.ReserveRequest
	)
	svc := &mockReservationServicer{
		reserve: func(_ context.Context, riderID uuid.UUID, req service.ReserveRequest) ([]domain.Reservation, error) {
			gotRider, gotReq = riderID, req
			return make([]domain.Reservation, req.Count), nil
		},
	}
	h := newHTTPHandler(deps{reservations: svc})

	rec := serve(h, http.MethodPost, "/reservations", jsonBody(t, map[string]any{
		"route_id":  routeID,
		"starts_at": "2025-06-01T08:30:00Z",
		"ends_at":   "2025-06-03T18:00:00Z",
		"price":     "13.00",
		"count":     3,
	}))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, testRiderID, gotRider)
	assert.Equal(t, routeID, gotReq.RouteID)
	assert.Equal(t, 3, gotReq.Count)
	assert.Equal(t, "13", gotReq.Price.String())
	assert.True(t, gotReq.StartsAt.Equal(time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)))
}

func TestCreateReservations_numericPrice(t *testing.T) {
	var gotReq service.ReserveRequest
	svc := &mockReservationServicer{
		reserve: func(_ context.Context, _ uuid.UUID, req service.ReserveRequest) ([]domain.Reservation, error) {
			gotReq = req
			return nil, nil
		},
	}
	h := newHTTPHandler(deps{reservations: svc})

	body := `{"route_id":"` + uuid.NewString() + `","starts_at":"2025-06-01T08:30:00Z","ends_at":"2025-06-03T18:00:00Z","price":9.95,"count":1}`
	rec := serve(h, http.MethodPost, "/reservations", strings.NewReader(body))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "9.95", gotReq.Price.String())
}

func TestCreateReservations_missingField(t *testing.T) {
	h := newHTTPHandler(deps{reservations: &mockReservationServicer{}})

	rec := serve(h, http.MethodPost, "/reservations", jsonBody(t, map[string]any{
		"route_id":  uuid.New(),
		"starts_at": "2025-06-01T08:30:00Z",
		"ends_at":   "2025-06-03T18:00:00Z",
		"count":     1,
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
}

func TestCreateReservations_malformedJSON(t *testing.T) {
	h := newHTTPHandler(deps{reservations: &mockReservationServicer{}})

	rec := serve(h, http.MethodPost, "/reservations", strings.NewReader(`{"count":`))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateReservations_negativeCount(t *testing.T) {
	svc := &mockReservationServicer{
		reserve: func(context.Context, uuid.UUID, service.ReserveRequest) ([]domain.Reservation, error) {
			return nil, fmt.Errorf("%w: number of tickets must not be negative", domain.ErrInvalidArgument)
		},
	}
	h := newHTTPHandler(deps{reservations: svc})

	rec := serve(h, http.MethodPost, "/reservations", jsonBody(t, map[string]any{
		"route_id":  uuid.New(),
		"starts_at": "2025-06-01T08:30:00Z",
		"ends_at":   "2025-06-03T18:00:00Z",
		"price":     "13.00",
		"count":     -2,
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- ListReservations ------------------------------------------------------

func TestListReservations_returnsData(t *testing.T) {
	res := reservationFixture()
	svc := &mockReservationServicer{
		list: func(_ context.Context, riderID uuid.UUID) ([]domain.Reservation, error) {
			require.Equal(t, testRiderID, riderID)
			return []domain.Reservation{res}, nil
		},
	}
	h := newHTTPHandler(deps{reservations: svc})

	rec := serve(h, http.MethodGet, "/reservations", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []struct {
			ID        uuid.UUID `json:"id"`
			TownTo    string    `json:"town_to"`
			Price     string    `json:"price"`
			Payment   string    `json:"payment"`
			ExpiresAt time.Time `json:"expires_at"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, res.ID, body.Data[0].ID)
	assert.Equal(t, "Varna", body.Data[0].TownTo)
	assert.Equal(t, "9.50", body.Data[0].Price)
	assert.Equal(t, "UNPAID", body.Data[0].Payment)
	assert.True(t, body.Data[0].ExpiresAt.Equal(res.StartsAt.AddDate(0, 0, 7)))
}

func TestListReservations_emptyIsArray(t *testing.T) {
	svc := &mockReservationServicer{
		list: func(context.Context, uuid.UUID) ([]domain.Reservation, error) {
			return []domain.Reservation{}, nil
		},
	}
	h := newHTTPHandler(deps{reservations: svc})

	rec := serve(h, http.MethodGet, "/reservations", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

// ---- PayReservation --------------------------------------------------------

func TestPayReservation_returns204(t *testing.T) {
	id := uuid.New()
	var gotID uuid.UUID
	svc := &mockReservationServicer{
		pay: func(_ context.Context, _ uuid.UUID, resID uuid.UUID) error {
			gotID = resID
			return nil
		},
	}
	h := newHTTPHandler(deps{reservations: svc})

	rec := serve(h, http.MethodPatch, "/reservations/"+id.String()+"/pay", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id, gotID)
}

func TestPayReservation_notFound(t *testing.T) {
	svc := &mockReservationServicer{
		pay: func(context.Context, uuid.UUID, uuid.UUID) error {
			return fmt.Errorf("service.ReservationService.Pay: %w", domain.ErrNotFound)
		},
	}
	h := newHTTPHandler(deps{reservations: svc})

	rec := serve(h, http.MethodPatch, "/reservations/"+uuid.NewString()+"/pay", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))
}

func TestPayReservation_badID(t *testing.T) {
	h := newHTTPHandler(deps{reservations: &mockReservationServicer{}})

	rec := serve(h, http.MethodPatch, "/reservations/not-a-uuid/pay", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- EditReservationDates --------------------------------------------------

func TestEditReservationDates_returnsUpdated(t *testing.T) {
	res := reservationFixture()
	var gotShift domain.DateShift
	svc := &mockReservationServicer{
		editDates: func(_ context.Context, _ uuid.UUID, id uuid.UUID, shift domain.DateShift) (domain.Reservation, error) {
			gotShift = shift
			out := res
			out.Shift(shift)
			return out, nil
		},
	}
	h := newHTTPHandler(deps{reservations: svc})

	rec := serve(h, http.MethodPatch, "/reservations/"+res.ID.String(), jsonBody(t, map[string]any{
		"start_days":   2,
		"start_months": 1,
		"end_months":   1,
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, gotShift.StartDays)
	assert.Equal(t, 1, gotShift.StartMonths)
	require.NotNil(t, gotShift.EndMonths)
	assert.Equal(t, 1, *gotShift.EndMonths)
	assert.Nil(t, gotShift.EndDays, "absent end_days must stay absent")

	var body struct {
		StartsAt time.Time `json:"starts_at"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.StartsAt.Equal(time.Date(2025, 7, 3, 8, 30, 0, 0, time.UTC)))
}

func TestEditReservationDates_notFound(t *testing.T) {
	svc := &mockReservationServicer{
		editDates: func(context.Context, uuid.UUID, uuid.UUID, domain.DateShift) (domain.Reservation, error) {
			return domain.Reservation{}, domain.ErrNotFound
		},
	}
	h := newHTTPHandler(deps{reservations: svc})

	rec := serve(h, http.MethodPatch, "/reservations/"+uuid.NewString(), jsonBody(t, map[string]any{"start_days": 1}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- CancelReservation -----------------------------------------------------

func TestCancelReservation_returns204(t *testing.T) {
	svc := &mockReservationServicer{
		cancel: func(context.Context, uuid.UUID, uuid.UUID) error { return nil },
	}
	h := newHTTPHandler(deps{reservations: svc})

	rec := serve(h, http.MethodDelete, "/reservations/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCancelReservation_paid(t *testing.T) {
	svc := &mockReservationServicer{
		cancel: func(context.Context, uuid.UUID, uuid.UUID) error {
			return fmt.Errorf("service.ReservationService.Cancel: %w", fmt.Errorf("%w: the ticket is already paid, cannot cancel", domain.ErrInvalidState))
		},
	}
	h := newHTTPHandler(deps{reservations: svc})

	rec := serve(h, http.MethodDelete, "/reservations/"+uuid.NewString(), nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	var body struct {
		Error struct{ Code, Message string } `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "invalid_state", body.Error.Code)
	assert.Equal(t, "the ticket is already paid, cannot cancel", body.Error.Message)
}

func TestCancelReservation_internalError(t *testing.T) {
	svc := &mockReservationServicer{
		cancel: func(context.Context, uuid.UUID, uuid.UUID) error { return errors.New("db exploded") },
	}
	h := newHTTPHandler(deps{reservations: svc})

	rec := serve(h, http.MethodDelete, "/reservations/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db exploded", "internal details stay in the log")
}

// ---- auth ------------------------------------------------------------------

func TestRiderRoutes_requireToken(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := handler.NewServer(&mockFareServicer{}, &mockReservationServicer{}, &mockRiderDirectory{}, nil, log)
	h := srv.Handler(middleware.NewRiderAuth([]byte("secret")))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/fares/quote?time_of_day=10:00&town_from=Sofia&trip_type=ONE_WAY"},
		{http.MethodGet, "/reservations"},
		{http.MethodPost, "/reservations"},
		{http.MethodPatch, "/reservations/" + uuid.NewString() + "/pay"},
		{http.MethodPatch, "/reservations/" + uuid.NewString()},
		{http.MethodDelete, "/reservations/" + uuid.NewString()},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := serve(h, tc.method, tc.path, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
