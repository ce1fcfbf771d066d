package processor

// GateState is the per-channel recurrence threaded through the gate, one sample at a time.
type GateState struct {
	Hold int     // Samples of hold remaining
	Gain float64 // Smoothed gain after the latest sample
}

// InitialGateState is the state before the first sample: no hold and zero gain,
// so a gate always ramps in from silence.
var InitialGateState = GateState{Hold: 0, Gain: 0}

// closedGain is the target gain, and the smoothing floor, while the gate is closed
func (p GateParams) closedGain() float64 {
	if p.Mode == ModeDuck {
		return 1 - p.Reduction
	}
	return p.Reduction
}

// Step advances the state by one envelope sample.
//
// An envelope above the threshold opens the gate and reloads the hold counter.
// Otherwise a running hold keeps the gate open while it counts down, and once it
// reaches zero the gate is closed. The gain then moves linearly towards the target:
// up by 1/AttackSamples per sample, down by 1/DecaySamples, never past the target.
func (p GateParams) Step(s GateState, envelope float64) GateState {
	target := 1.0
	switch {
	case envelope > p.Threshold:
		s.Hold = p.HoldSamples
	case s.Hold > 0:
		s.Hold--
	default:
		target = p.closedGain()
	}

	switch {
	case target > s.Gain:
		s.Gain = min(target, s.Gain+1/float64(p.AttackSamples))
	case target < s.Gain:
		s.Gain = max(target, s.Gain-1/float64(p.DecaySamples))
	}
	return s
}

// GainTrajectory folds Step over an envelope from InitialGateState and returns
// the gain after every sample.
func GainTrajectory(envelope []float64, p GateParams) []float64 {
	gains := make([]float64, len(envelope))
	s := InitialGateState
	for i, e := range envelope {
		s = p.Step(s, e)
		gains[i] = s.Gain
	}
	return gains
}
