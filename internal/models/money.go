package models

import "math"

// RoundMoney rounds an amount to whole cents so persisted values reload exactly
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
