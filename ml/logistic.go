package ml

import "fmt"

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	W       []float64
	B       float64
	classes int
}

func NewLogisticRegression(weights []float64, bias float64, classes int) *LogisticRegression {
	return &LogisticRegression{W: append([]float64(nil), weights...), B: bias, classes: classes}
}

func (m *LogisticRegression) PredictProba(features FeatureVector) ([]float64, error) {
	if len(features) != len(m.W) {
		return nil, fmt.Errorf("expected %d features, got %d", len(m.W), len(features))
	}
	sum := m.B
	for j, v := range features {
		sum += m.W[j] * v
	}
	return binaryProba(sigmoid(sum), m.classes), nil
}
