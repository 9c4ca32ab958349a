// Package handler implements the HTTP handlers for the rail tickets API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, fare.go, reservation.go) but share the same Server struct
// so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/railtix/tickets/internal/domain"
	"github.com/railtix/tickets/internal/service"
)

// FareServicer defines the pricing operations the fare handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type FareServicer interface {
	Quote(ctx context.Context, rider domain.Rider, req service.QuoteRequest) (decimal.Decimal, error)
	Destinations(ctx context.Context, p domain.PaginationParams) ([]domain.Destination, int64, error)
}

// ReservationServicer defines the reservation lifecycle the handlers depend on.
type ReservationServicer interface {
	Reserve(ctx context.Context, riderID uuid.UUID, req service.ReserveRequest) ([]domain.Reservation, error)
	List(ctx context.Context, riderID uuid.UUID) ([]domain.Reservation, error)
	Pay(ctx context.Context, riderID, id uuid.UUID) error
	EditDates(ctx context.Context, riderID, id uuid.UUID, shift domain.DateShift) (domain.Reservation, error)
	Cancel(ctx context.Context, riderID, id uuid.UUID) error
}

// RiderDirectory resolves the authenticated rider's profile.
type RiderDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Rider, error)
}

// Pinger reports whether the database is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies of every endpoint.
type Server struct {
	fares        FareServicer
	reservations ReservationServicer
	riders       RiderDirectory
	db           Pinger
	log          *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// db may be nil, in which case /healthz does not check the database.
func NewServer(fares FareServicer, reservations ReservationServicer, riders RiderDirectory, db Pinger, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{fares: fares, reservations: reservations, riders: riders, db: db, log: log}
}

// Handler returns the API routes. requireRider guards every rider-scoped
// route and must place the rider id in the request context
// (middleware.NewRiderAuth does).
func (s *Server) Handler(requireRider func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/destinations", s.ListDestinations)

	r.Group(func(r chi.Router) {
		r.Use(requireRider)

		r.Get("/fares/quote", s.QuoteFare)

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", s.ListReservations)
			r.Post("/", s.CreateReservations)
			r.Patch("/{id}", s.EditReservationDates)
			r.Delete("/{id}", s.CancelReservation)
			r.Patch("/{id}/pay", s.PayReservation)
		})
	})

	return r
}
