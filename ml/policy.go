package ml

// Threshold is the churn probability cutoff picked during calibration for the
// precision/recall trade-off.
const Threshold = 0.66

// Decide maps a churn probability to a label: 1 when p >= Threshold.
func Decide(probability float64) int {
	if probability >= Threshold {
		return 1
	}
	return 0
}
