package inference

import (
	"encoding/json"
	"math"
)

// Result is an immutable churn decision.
type Result struct {
	Label       int
	Probability float64
}

// Percent is the probability as a percentage rounded to two decimals.
func (r Result) Percent() float64 {
	return math.Round(r.Probability*100*100) / 100
}

type resultJSON struct {
	ChurnPrediction  int     `json:"churn_prediction"`
	ChurnProbability float64 `json:"churn_probability"`
}

// MarshalJSON writes the client-facing shape:
// {"churn_prediction": 0|1, "churn_probability": <percent>}.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{ChurnPrediction: r.Label, ChurnProbability: r.Percent()})
}

// UnmarshalJSON reads the client-facing shape back; the probability keeps
// only the two decimals of the percentage.
func (r *Result) UnmarshalJSON(data []byte) error {
	var v resultJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.Label = v.ChurnPrediction
	r.Probability = v.ChurnProbability / 100
	return nil
}
