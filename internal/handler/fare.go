package handler

import (
	"errors"
	"net/http"

	"github.com/railtix/tickets/internal/domain"
	"github.com/railtix/tickets/internal/service"
)

type destination struct {
	TownFrom string `json:"town_from"`
	TownTo   string `json:"town_to"`
	Distance int    `json:"distance"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type destinationPage struct {
	Data       []destination `json:"data"`
	Pagination pagination    `json:"pagination"`
}

type quoteResponse struct {
	Price     string          `json:"price"`
	TownFrom  string          `json:"town_from"`
	TownTo    string          `json:"town_to,omitempty"`
	TripType  domain.TripType `json:"trip_type"`
	TimeOfDay string          `json:"time_of_day"`
}

// ListDestinations handles GET /destinations.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=50, max=200).
func (s *Server) ListDestinations(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	if err := queryParam(r, "page", false, &page); err != nil {
		requestError(w, err.Error())
		return
	}
	if err := queryParam(r, "limit", false, &limit); err != nil {
		requestError(w, err.Error())
		return
	}

	params := domain.NewPaginationParams(page, limit)
	dests, total, err := s.fares.Destinations(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err, "no destinations")
		return
	}

	data := make([]destination, len(dests))
	for i, d := range dests {
		data[i] = destination{TownFrom: d.TownFrom, TownTo: d.TownTo, Distance: d.Distance}
	}
	writeJSON(w, http.StatusOK, destinationPage{
		Data:       data,
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: int(total)},
	})
}

// QuoteFare handles GET /fares/quote.
// Required: time_of_day (HH:MM:SS), town_from, trip_type. Optional: town_to
// (any destination when absent) and has_child (default false).
func (s *Server) QuoteFare(w http.ResponseWriter, r *http.Request) {
	riderID, ok := authRiderID(w, r)
	if !ok {
		return
	}

	var (
		rawTime, townFrom, tripType string
		townTo                      *string
		hasChild                    *bool
	)
	for _, p := range []struct {
		name     string
		required bool
		dest     any
	}{
		{"time_of_day", true, &rawTime},
		{"town_from", true, &townFrom},
		{"trip_type", true, &tripType},
		{"town_to", false, &townTo},
		{"has_child", false, &hasChild},
	} {
		if err := queryParam(r, p.name, p.required, p.dest); err != nil {
			requestError(w, err.Error())
			return
		}
	}

	at, err := domain.ParseTimeOfDay(rawTime)
	if err != nil {
		requestError(w, unwrapMessage(err, domain.ErrInvalidArgument))
		return
	}

	rider, err := s.riders.GetByID(r.Context(), riderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErrorBody(w, http.StatusUnauthorized, "unauthorized", "unknown rider")
			return
		}
		s.writeError(w, r, err, "rider not found")
		return
	}

	req := service.QuoteRequest{
		TimeOfDay: at,
		TownFrom:  townFrom,
		TownTo:    deref(townTo),
		TripType:  domain.TripType(tripType),
		HasChild:  deref(hasChild),
	}
	price, err := s.fares.Quote(r.Context(), rider, req)
	if err != nil {
		s.writeError(w, r, err, "route not found")
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Price:     price.StringFixed(2),
		TownFrom:  req.TownFrom,
		TownTo:    req.TownTo,
		TripType:  req.TripType,
		TimeOfDay: at.String(),
	})
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
