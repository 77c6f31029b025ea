package ml

import "math"

// Classifier is a trained binary model. PredictProba returns one probability
// per class the model was fit on, ordered by class label.
type Classifier interface {
	PredictProba(features FeatureVector) ([]float64, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(features FeatureVector) ([]float64, error)

func (f ClassifierFunc) PredictProba(features FeatureVector) ([]float64, error) {
	return f(features)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// binaryProba expands a positive-class probability to [p0, p1], or to a
// single-element array when the model only ever saw one class.
func binaryProba(p float64, classes int) []float64 {
	if classes == 1 {
		return []float64{1}
	}
	return []float64{1 - p, p}
}
