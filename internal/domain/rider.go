package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CardType is a rider's railway discount card.
type CardType string

const (
	CardNone    CardType = "NONE"
	CardFamily  CardType = "FAMILY"
	CardElderly CardType = "ELDERLY"
)

// ParseCardType accepts the card names case-insensitively.
func ParseCardType(s string) (CardType, error) {
	switch c := CardType(strings.ToUpper(strings.TrimSpace(s))); c {
	case CardNone, CardFamily, CardElderly:
		return c, nil
	}
	return "", fmt.Errorf("%w: invalid card type %q, choose from ELDERLY, FAMILY and NONE", ErrInvalidArgument, s)
}

// Rider is the authenticated caller as far as pricing and ownership care.
type Rider struct {
	ID       uuid.UUID
	Username string
	CardType CardType
}
