package processor

import (
	"fmt"
	"math"
)

// ConfigError reports a parameter that cannot be processed.
// It is always returned before any audio is touched.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// NumericAnomalyError reports a NaN or infinite sample produced (or received) by a stage.
// Band is -1 when the anomaly is not specific to one band.
type NumericAnomalyError struct {
	Stage   string
	Pass    int
	Channel int
	Band    int
	Index   int
	Value   float64
}

func (e *NumericAnomalyError) Error() string {
	where := fmt.Sprintf("channel %d, sample %d", e.Channel, e.Index)
	if e.Band >= 0 {
		where = fmt.Sprintf("channel %d, band %d, sample %d", e.Channel, e.Band, e.Index)
	}
	return fmt.Sprintf("numeric anomaly in %s (pass %d, %s): %v", e.Stage, e.Pass+1, where, e.Value)
}

// checkFinite returns a *NumericAnomalyError for the first non-finite sample
func checkFinite(samples []float64, stage string, channel, band int) error {
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &NumericAnomalyError{
				Stage:   stage,
				Channel: channel,
				Band:    band,
				Index:   i,
				Value:   v,
			}
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
