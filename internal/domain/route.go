// Package domain contains the core types and pure rules of the rail tickets
// service: routes, riders, reservations, and fare calculation.
// It has no I/O and is imported by every other internal package.
package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Route is a directed town pair served by a train.
// Routes are maintained by catalog tooling outside this service and are
// read-only here.
type Route struct {
	ID        uuid.UUID
	TownFrom  string
	TownTo    string
	Distance  int
	BasePrice decimal.Decimal
}

// Destination is the public view of a Route: where it goes, not what it costs.
type Destination struct {
	TownFrom string `json:"town_from"`
	TownTo   string `json:"town_to"`
	Distance int    `json:"distance"`
}
