// Package service contains the business logic of the rail tickets service.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/railtix/tickets/internal/domain"
	"github.com/railtix/tickets/internal/repo"
)

// QuoteRequest describes the trip a rider wants priced.
// An empty TownTo asks for the cheapest trip leaving TownFrom.
type QuoteRequest struct {
	TimeOfDay domain.TimeOfDay
	TownFrom  string
	TownTo    string
	TripType  domain.TripType
	HasChild  bool
}

// FareService prices trips against the route catalog.
type FareService struct {
	routes repo.RouteRepo
}

// NewFareService constructs a FareService backed by the provided RouteRepo.
func NewFareService(routes repo.RouteRepo) *FareService {
	return &FareService{routes: routes}
}

// Quote returns the price of one ticket for rider.
// Returns domain.ErrInvalidArgument when no train serves the towns or the
// trip type is unknown.
func (s *FareService) Quote(ctx context.Context, rider domain.Rider, req QuoteRequest) (decimal.Decimal, error) {
	ok, err := s.routes.Exists(ctx, req.TownFrom, req.TownTo)
	if err != nil {
		return decimal.Zero, fmt.Errorf("service.FareService.Quote: %w", err)
	}
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: there is no train for your trip to this town", domain.ErrInvalidArgument)
	}
	if _, err := domain.ParseTripType(string(req.TripType)); err != nil {
		return decimal.Zero, err
	}

	base, err := s.routes.BasePrice(ctx, req.TownFrom, req.TownTo)
	if err != nil {
		return decimal.Zero, fmt.Errorf("service.FareService.Quote: %w", err)
	}

	price, err := domain.Quote(base, req.TripType, req.TimeOfDay, req.HasChild, rider.CardType)
	if err != nil {
		return decimal.Zero, fmt.Errorf("service.FareService.Quote: %w", err)
	}
	return price, nil
}

// Destinations returns one page of the town pairs trains run between.
// Always returns a non-nil slice.
func (s *FareService) Destinations(ctx context.Context, p domain.PaginationParams) ([]domain.Destination, int64, error) {
	out, total, err := s.routes.ListDestinations(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.FareService.Destinations: %w", err)
	}
	if out == nil {
		out = []domain.Destination{}
	}
	return out, total, nil
}
