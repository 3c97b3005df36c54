// Package indicators holds rolling statistics over numeric series.
package indicators

import "fmt"

// MA calculates the simple moving average of the last period values.
func MA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period {
		return 0, fmt.Errorf("not enough values: need %d, got %d", period, len(values))
	}

	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// MAs returns the moving average of the last period values for every
// period in periods. A period longer than values, or <= 0, averages the
// whole series.
func MAs(values []float64, periods []int) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no values")
	}
	out := make([]float64, len(periods))
	for i, p := range periods {
		if p <= 0 || p > len(values) {
			p = len(values)
		}
		v, err := MA(values, p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
