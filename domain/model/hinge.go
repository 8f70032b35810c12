package model

// Hinge re-expresses a raw predictor value relative to a fixed
// changepoint: Hinge(x, c) = x - c. The changepoint is configuration, not
// a free parameter; it is chosen from domain knowledge (e.g. a known
// regime-shift year). The same transform must be applied when generating
// synthetic data and when preparing real data for inference, otherwise
// recovered parameters are not comparable to the generating truth.
func Hinge(raw, changepoint float64) float64 {
	return raw - changepoint
}
