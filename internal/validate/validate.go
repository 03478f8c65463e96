package validate

import "fmt"

// Allowed measurement units.
const (
	UnitRI   = "RI"
	UnitBrix = "Brix"
)

// Measurement bounds. RI is dimensionless; liquids sit around 1.33-1.34,
// the wide window tolerates calibration fluids.
const (
	riMin   = 1.0
	riMax   = 2.0
	brixMin = 0.0
	brixMax = 100.0
	tempMin = -50.0
	tempMax = 150.0
)

// ReadingValues checks unit membership and value/temperature ranges.
// Pure: no I/O, no state. Returns nil when the payload values are acceptable.
func ReadingValues(unit string, value float64, temperatureC *float64) error {
	switch unit {
	case UnitRI:
		if value < riMin || value > riMax {
			return fmt.Errorf("refractive index value %v out of range [%v, %v]", value, riMin, riMax)
		}
	case UnitBrix:
		if value < brixMin || value > brixMax {
			return fmt.Errorf("brix value %v out of range [%v, %v]", value, brixMin, brixMax)
		}
	default:
		return fmt.Errorf("invalid unit: %q, must be %q or %q", unit, UnitRI, UnitBrix)
	}

	if temperatureC != nil {
		if *temperatureC < tempMin || *temperatureC > tempMax {
			return fmt.Errorf("temperature %v°C out of range [%v, %v]", *temperatureC, tempMin, tempMax)
		}
	}
	return nil
}
