package services

import (
	"math"

	"github.com/smarttransit/route-ledger/internal/models"
)

// Fare estimation constants
const (
	BaseFare        = 10.0
	FarePerKm       = 0.5
	AverageSpeedKmh = 60.0
)

// FareQuote is the estimated fare and travel time for a distance
type FareQuote struct {
	Distance float64 `json:"distance"`
	Fare     float64 `json:"fare"`
	Time     float64 `json:"time"`
}

// FareService estimates fares and travel times from distance
type FareService struct{}

// NewFareService creates a new fare service
func NewFareService() *FareService {
	return &FareService{}
}

// Fare returns the base fare plus the per-km rate
func (s *FareService) Fare(distance float64) float64 {
	return models.RoundMoney(BaseFare + distance*FarePerKm)
}

// TravelTime returns the estimated hours at average speed
func (s *FareService) TravelTime(distance float64) float64 {
	return math.Round(distance/AverageSpeedKmh*100) / 100
}

// Quote validates the distance and returns fare and time
func (s *FareService) Quote(distance float64) (FareQuote, error) {
	if distance < 0 || math.IsNaN(distance) || math.IsInf(distance, 0) {
		return FareQuote{}, validation("distance must be a non-negative number")
	}
	return FareQuote{
		Distance: distance,
		Fare:     s.Fare(distance),
		Time:     s.TravelTime(distance),
	}, nil
}
