package timing

import "time"

// CostEMA smooths frame costs with an exponential moving average, giving
// the live console display a stable figure instead of a flickering one.
type CostEMA struct {
	alpha       float64
	value       float64
	initialized bool
}

// NewCostEMA creates an EMA with the given smoothing factor alpha in (0, 1].
func NewCostEMA(alpha float64) *CostEMA {
	return &CostEMA{alpha: alpha}
}

// Update feeds one frame duration and returns the smoothed cost.
// The first observation initializes the average to itself.
func (e *CostEMA) Update(d time.Duration) time.Duration {
	if !e.initialized {
		e.value = float64(d)
		e.initialized = true

		return d
	}

	e.value = e.alpha*float64(d) + (1-e.alpha)*e.value

	return time.Duration(e.value)
}

// Value returns the current smoothed cost (0 before any Update).
func (e *CostEMA) Value() time.Duration {
	return time.Duration(e.value)
}

// Initialized reports whether Update has been called at least once.
func (e *CostEMA) Initialized() bool {
	return e.initialized
}
