package commands

import "fmt"

// positiveInteger rejects non-positive flag values with a flag-specific
// message.
func positiveInteger(name string, value int) error {
	if value < 1 {
		return fmt.Errorf("--%s must be a positive integer, got %d", name, value)
	}
	return nil
}

// floatRange rejects flag values outside [low, high].
func floatRange(name string, value, low, high float64) error {
	if value < low || value > high {
		return fmt.Errorf("--%s must be between %g and %g, got %g", name, low, high, value)
	}
	return nil
}
