package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"github.com/railtix/tickets/internal/domain"
	"github.com/railtix/tickets/internal/service"
)

type reservation struct {
	ID        openapi_types.UUID  `json:"id"`
	RouteID   openapi_types.UUID  `json:"route_id"`
	TownFrom  string              `json:"town_from"`
	TownTo    string              `json:"town_to"`
	Distance  int                 `json:"distance"`
	StartsAt  time.Time           `json:"starts_at"`
	EndsAt    time.Time           `json:"ends_at"`
	ExpiresAt time.Time           `json:"expires_at"`
	Price     string              `json:"price"`
	Payment   domain.PaymentState `json:"payment"`
	CreatedAt time.Time           `json:"created_at"`
}

type reservationList struct {
	Data []reservation `json:"data"`
}

type createReservationsRequest struct {
	RouteID  *openapi_types.UUID `json:"route_id"`
	StartsAt *time.Time          `json:"starts_at"`
	EndsAt   *time.Time          `json:"ends_at"`
	Price    *decimal.Decimal    `json:"price"`
	Count    *int                `json:"count"`
}

type editDatesRequest struct {
	StartDays   *int `json:"start_days"`
	StartMonths *int `json:"start_months"`
	EndDays     *int `json:"end_days"`
	EndMonths   *int `json:"end_months"`
}

// CreateReservations handles POST /reservations.
// Books count identical tickets at the quoted price. A count of zero books
// nothing and still answers 204.
func (s *Server) CreateReservations(w http.ResponseWriter, r *http.Request) {
	riderID, ok := authRiderID(w, r)
	if !ok {
		return
	}

	var body createReservationsRequest
	if !decodeBody(w, r, &body) {
		return
	}
	req, msg := body.toService()
	if msg != "" {
		requestError(w, msg)
		return
	}

	if _, err := s.reservations.Reserve(r.Context(), riderID, req); err != nil {
		s.writeError(w, r, err, "route not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListReservations handles GET /reservations.
// Lapsed unpaid reservations are removed before the list is built.
func (s *Server) ListReservations(w http.ResponseWriter, r *http.Request) {
	riderID, ok := authRiderID(w, r)
	if !ok {
		return
	}

	list, err := s.reservations.List(r.Context(), riderID)
	if err != nil {
		s.writeError(w, r, err, "reservations not found")
		return
	}

	data := make([]reservation, len(list))
	for i, res := range list {
		data[i] = reservationToResponse(res)
	}
	writeJSON(w, http.StatusOK, reservationList{Data: data})
}

// PayReservation handles PATCH /reservations/{id}/pay.
func (s *Server) PayReservation(w http.ResponseWriter, r *http.Request) {
	riderID, ok := authRiderID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		requestError(w, err.Error())
		return
	}

	if err := s.reservations.Pay(r.Context(), riderID, id); err != nil {
		s.writeError(w, r, err, "reservation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EditReservationDates handles PATCH /reservations/{id}.
func (s *Server) EditReservationDates(w http.ResponseWriter, r *http.Request) {
	riderID, ok := authRiderID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		requestError(w, err.Error())
		return
	}

	var body editDatesRequest
	if !decodeBody(w, r, &body) {
		return
	}

	updated, err := s.reservations.EditDates(r.Context(), riderID, id, domain.DateShift{
		StartDays:   deref(body.StartDays),
		StartMonths: deref(body.StartMonths),
		EndDays:     body.EndDays,
		EndMonths:   body.EndMonths,
	})
	if err != nil {
		s.writeError(w, r, err, "reservation not found")
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(updated))
}

// CancelReservation handles DELETE /reservations/{id}.
// A paid reservation cannot be cancelled (409).
func (s *Server) CancelReservation(w http.ResponseWriter, r *http.Request) {
	riderID, ok := authRiderID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		requestError(w, err.Error())
		return
	}

	if err := s.reservations.Cancel(r.Context(), riderID, id); err != nil {
		s.writeError(w, r, err, "reservation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// toService checks required fields and converts the body. A non-empty
// message names the first problem.
func (b createReservationsRequest) toService() (service.ReserveRequest, string) {
	switch {
	case b.RouteID == nil:
		return service.ReserveRequest{}, "route_id is required"
	case b.StartsAt == nil:
		return service.ReserveRequest{}, "starts_at is required"
	case b.EndsAt == nil:
		return service.ReserveRequest{}, "ends_at is required"
	case b.Price == nil:
		return service.ReserveRequest{}, "price is required"
	case b.Count == nil:
		return service.ReserveRequest{}, "count is required"
	}
	return service.ReserveRequest{
		RouteID:  *b.RouteID,
		StartsAt: *b.StartsAt,
		EndsAt:   *b.EndsAt,
		Price:    *b.Price,
		Count:    *b.Count,
	}, ""
}

func reservationToResponse(r domain.Reservation) reservation {
	return reservation{
		ID:        r.ID,
		RouteID:   r.RouteID,
		TownFrom:  r.TownFrom,
		TownTo:    r.TownTo,
		Distance:  r.Distance,
		StartsAt:  r.StartsAt,
		EndsAt:    r.EndsAt,
		ExpiresAt: r.ExpiresAt,
		Price:     r.Price.StringFixed(2),
		Payment:   r.Payment,
		CreatedAt: r.CreatedAt,
	}
}
