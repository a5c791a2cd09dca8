package utils

import "math"

// RoundDecimal rounds half away from zero to the given number of decimal places.
func RoundDecimal(value float64, decimals int) float64 {
	pow := math.Pow10(decimals)
	return math.Round(value*pow) / pow
}
