// Package estimate implements the two pricing calculators: a quick quote from
// vehicle class, condition and photo count, and an itemized quote priced from
// the tenant's service catalog.
package estimate

import (
	"errors"
	"fmt"
)

// VehicleClass buckets vehicles for quick-quote base pricing.
type VehicleClass string

const (
	ClassSedan VehicleClass = "sedan"
	ClassCoupe VehicleClass = "coupe"
	ClassSUV   VehicleClass = "suv"
	ClassTruck VehicleClass = "truck"
	ClassVan   VehicleClass = "van"
)

// Condition grades how dirty or worn the vehicle is.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

var basePrice = map[VehicleClass]float64{
	ClassSedan: 100,
	ClassCoupe: 110,
	ClassSUV:   150,
	ClassTruck: 180,
	ClassVan:   170,
}

var conditionFactor = map[Condition]float64{
	ConditionExcellent: 0.9,
	ConditionGood:      1.0,
	ConditionFair:      1.25,
	ConditionPoor:      1.5,
}

// perImageSurcharge is the fractional bump added per customer photo; each
// photo usually reveals extra work.
const perImageSurcharge = 0.05

var (
	ErrUnknownVehicleClass = errors.New("unknown vehicle class")
	ErrUnknownCondition    = errors.New("unknown condition")
	ErrInvalidImageCount   = errors.New("image count must not be negative")
	ErrNoServices          = errors.New("at least one service is required")
)

// QuickQuote prices a job sight-unseen from the vehicle class, its condition
// and how many photos the customer attached. The result is in dollars.
func QuickQuote(class VehicleClass, cond Condition, imageCount int) (float64, error) {
	base, ok := basePrice[class]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVehicleClass, class)
	}
	factor, ok := conditionFactor[cond]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCondition, cond)
	}
	if imageCount < 0 {
		return 0, ErrInvalidImageCount
	}
	return base * factor * (1 + perImageSurcharge*float64(imageCount)), nil
}

// ItemizedOptions adjust an itemized quote.
type ItemizedOptions struct {
	// Rush adds a 25% surcharge for same-week scheduling.
	Rush bool
	// EcoProducts applies the 5% discount for waterless/eco product lines.
	EcoProducts bool
	// Condition optionally grades the vehicle: poor adds 15%, excellent
	// takes 10% off. Empty means no adjustment.
	Condition Condition
}

// ItemizedQuote sums the selected services' catalog prices and applies the
// option multipliers. Prices come in as cents; the result is in dollars.
func ItemizedQuote(priceCents []int64, opts ItemizedOptions) (float64, error) {
	if len(priceCents) == 0 {
		return 0, ErrNoServices
	}
	var totalCents int64
	for _, p := range priceCents {
		if p < 0 {
			return 0, fmt.Errorf("negative service price: %d", p)
		}
		totalCents += p
	}
	total := float64(totalCents) / 100
	if opts.Rush {
		total *= 1.25
	}
	if opts.EcoProducts {
		total *= 0.95
	}
	switch opts.Condition {
	case ConditionPoor:
		total *= 1.15
	case ConditionExcellent:
		total *= 0.90
	case "", ConditionGood, ConditionFair:
		// no adjustment
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCondition, opts.Condition)
	}
	return total, nil
}
