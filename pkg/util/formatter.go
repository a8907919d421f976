package util

import (
	"fmt"
	"math"
)

type siPrefix struct {
	scale  float64
	symbol string
}

// Descending. Values below the last prefix print in exponent form.
var valuePrefixes = []siPrefix{
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "u"},
	{1e-9, "n"},
	{1e-12, "p"},
}

var frequencyPrefixes = []siPrefix{
	{1e9, "GHz"},
	{1e6, "MHz"},
	{1e3, "kHz"},
}

// FormatValueFactor prints value with three decimals and an SI prefix on unit,
// e.g. 0.012 A as "12.000 mA".
func FormatValueFactor(value float64, unit string) string {
	abs := math.Abs(value)
	if abs == 0 {
		return fmt.Sprintf("%.3f %s", value, unit)
	}
	for _, p := range valuePrefixes {
		if abs >= p.scale {
			return fmt.Sprintf("%.3f %s%s", value/p.scale, p.symbol, unit)
		}
	}
	return fmt.Sprintf("%.3e %s", value, unit)
}

// FormatFrequency prints a fixed width column value.
func FormatFrequency(freq float64) string {
	for _, p := range frequencyPrefixes {
		if freq >= p.scale {
			return fmt.Sprintf("%7.3f %s", freq/p.scale, p.symbol)
		}
	}
	return fmt.Sprintf("%7.3f Hz ", freq)
}

func FormatMagnitude(value float64) string {
	abs := math.Abs(value)
	if abs >= 1000 || (abs < 0.001 && abs != 0) {
		return fmt.Sprintf("%8.2e", value)
	}
	return fmt.Sprintf("%8.3g", value)
}

func FormatPhase(value float64) string {
	return fmt.Sprintf("%6.1f", value)
}
