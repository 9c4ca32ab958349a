package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimeOfDay is an offset from midnight, used to place a departure in a
// discount window.
type TimeOfDay time.Duration

// ParseTimeOfDay accepts "15:04:05" or "15:04".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Clock(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return 0, fmt.Errorf("%w: invalid time of day %q, expected HH:MM:SS", ErrInvalidArgument, s)
}

// Clock builds a TimeOfDay from wall-clock components.
func Clock(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second)
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// Off-peak windows: (09:35:00, 16:00:00) and everything after 19:30:00.
// All bounds are exclusive.
var (
	middayFrom  = Clock(9, 35, 0)
	middayUntil = Clock(16, 0, 0)
	eveningFrom = Clock(19, 30, 0)
)

const offPeakPercent = 5

// Quote computes the price of one ticket.
//
// A round trip doubles the base price first. Two discounts are then worked out
// on that price, one for travelling off-peak and one for the rider's card,
// and only the larger of the two is applied. Each discount is rounded up to
// the smallest unit of the price's own scale.
func Quote(base decimal.Decimal, trip TripType, at TimeOfDay, hasChild bool, card CardType) (decimal.Decimal, error) {
	price, err := tripPrice(base, trip)
	if err != nil {
		return decimal.Zero, err
	}
	cardPct, err := cardPercent(card, hasChild)
	if err != nil {
		return decimal.Zero, err
	}

	var offPeak decimal.Decimal
	if isOffPeak(at) {
		offPeak = percentCeil(price, offPeakPercent)
	}
	byCard := percentCeil(price, cardPct)

	if byCard.GreaterThanOrEqual(offPeak) {
		return price.Sub(byCard), nil
	}
	return price.Sub(offPeak), nil
}

func tripPrice(base decimal.Decimal, trip TripType) (decimal.Decimal, error) {
	switch trip {
	case OneWay:
		return base, nil
	case RoundTrip:
		return base.Mul(decimal.NewFromInt(2)), nil
	}
	return decimal.Zero, fmt.Errorf("%w: invalid way of trip %q", ErrInvalidArgument, trip)
}

func isOffPeak(at TimeOfDay) bool {
	return (at > middayFrom && at < middayUntil) || at > eveningFrom
}

// cardPercent is the card discount table. Without a child only the elderly
// card earns anything.
func cardPercent(card CardType, hasChild bool) (int64, error) {
	switch card {
	case CardFamily:
		if hasChild {
			return 50, nil
		}
		return 0, nil
	case CardElderly:
		return 34, nil
	case CardNone:
		if hasChild {
			return 10, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: invalid card type %q", ErrInvalidArgument, card)
}

func percentCeil(price decimal.Decimal, pct int64) decimal.Decimal {
	places := max(-price.Exponent(), 0)
	return price.Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100)).RoundCeil(places)
}
