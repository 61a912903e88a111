// Package quoting prices a unit of work from professionals' published rate cards.
package quoting

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	// SquareMetersPerHour is the labor heuristic: one hour per 10 m².
	SquareMetersPerHour = 10.0
	// SquareMetersPerDay is the throughput heuristic: 20 m² per working day.
	SquareMetersPerDay = 20.0
	// MaxSurfaceArea bounds a single request so hour and day counts stay exact integers.
	MaxSurfaceArea = 1e6
)

var (
	ErrMissingWorkType     = errors.New("work type is required")
	ErrInvalidSurfaceArea  = errors.New("surface area must be greater than 0")
	ErrSurfaceAreaTooLarge = errors.New("surface area exceeds 1000000 m²")
)

type RateCard struct {
	ProfessionalID   uuid.UUID
	HourlyRate       float64
	SquareMeterRates map[string]float64
	Specialties      []string
	Verified         bool
}

func (r RateCard) hasSpecialty(workType string) bool {
	for _, s := range r.Specialties {
		if s == workType {
			return true
		}
	}
	return false
}

type Quote struct {
	ProfessionalID        uuid.UUID `json:"professional_id"`
	WorkType              string    `json:"work_type"`
	SurfaceArea           float64   `json:"surface_area"`
	SquareMeterRate       float64   `json:"square_meter_rate"`
	HourlyRate            float64   `json:"hourly_rate"`
	EstimatedHours        int       `json:"estimated_hours"`
	EstimatedDurationDays int       `json:"estimated_duration_days"`
	Price                 float64   `json:"price"`
}

// ValidateInput checks the preconditions of ComputeQuotes.
func ValidateInput(workType string, surfaceArea float64) error {
	if strings.TrimSpace(workType) == "" {
		return ErrMissingWorkType
	}
	if !(surfaceArea > 0) {
		return ErrInvalidSurfaceArea
	}
	if surfaceArea > MaxSurfaceArea {
		return ErrSurfaceAreaTooLarge
	}
	return nil
}

// ComputeQuotes prices workType over surfaceArea for every eligible candidate and returns the
// quotes cheapest first. Ties keep the candidate order. No eligible candidate yields an empty slice.
func ComputeQuotes(workType string, surfaceArea float64, candidates []RateCard) []Quote {
	hours := int(math.Ceil(surfaceArea / SquareMetersPerHour))
	days := int(math.Ceil(surfaceArea / SquareMetersPerDay))

	quotes := make([]Quote, 0, len(candidates))
	for _, c := range candidates {
		if !c.Verified || !c.hasSpecialty(workType) {
			continue
		}
		rate, ok := c.SquareMeterRates[workType]
		if !ok || rate <= 0 {
			continue
		}
		quotes = append(quotes, Quote{
			ProfessionalID:        c.ProfessionalID,
			WorkType:              workType,
			SurfaceArea:           surfaceArea,
			SquareMeterRate:       rate,
			HourlyRate:            c.HourlyRate,
			EstimatedHours:        hours,
			EstimatedDurationDays: days,
			Price:                 RoundCents(rate*surfaceArea + c.HourlyRate*float64(hours)),
		})
	}

	sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].Price < quotes[j].Price })
	return quotes
}

// RoundCents rounds half-up to two decimals. The epsilon absorbs binary representation error
// so 10.005 lands on 10.01.
func RoundCents(v float64) float64 {
	return math.Floor(v*100+0.5+1e-9) / 100
}
