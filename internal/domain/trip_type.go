package domain

import "fmt"

// TripType selects between a single journey and an out-and-back journey.
type TripType string

const (
	OneWay    TripType = "ONE_WAY"
	RoundTrip TripType = "ROUND_TRIP"
)

// ParseTripType is strict: names must match exactly.
func ParseTripType(s string) (TripType, error) {
	switch t := TripType(s); t {
	case OneWay, RoundTrip:
		return t, nil
	}
	return "", fmt.Errorf("%w: invalid way of trip %q", ErrInvalidArgument, s)
}
