package ml

import (
	"encoding/binary"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Engine scores feature vectors with a loaded classifier. It never mutates
// the model and is safe for concurrent use.
type Engine struct {
	classifier Classifier
	width      int
	memo       *lru.Cache[string, float64]
}

// NewEngine wraps classifier for vectors of the given width. memoSize > 0
// caches scores for repeated vectors.
func NewEngine(classifier Classifier, width int, memoSize int) (*Engine, error) {
	e := &Engine{classifier: classifier, width: width}
	if memoSize > 0 {
		memo, err := lru.New[string, float64](memoSize)
		if err != nil {
			return nil, fmt.Errorf("score cache: %w", err)
		}
		e.memo = memo
	}
	return e, nil
}

// ScoreChurnProbability returns the positive-class probability. A model that
// reports a single class yields 0.
func (e *Engine) ScoreChurnProbability(vector FeatureVector) (float64, error) {
	if len(vector) != e.width {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d", len(vector), e.width)
	}

	var key string
	if e.memo != nil {
		key = vectorKey(vector)
		if p, ok := e.memo.Get(key); ok {
			return p, nil
		}
	}

	probs, err := e.classifier.PredictProba(vector)
	if err != nil {
		return 0, err
	}
	p := 0.0
	if len(probs) > 1 {
		p = probs[1]
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("classifier returned probability %v outside [0,1]", p)
	}

	if e.memo != nil {
		e.memo.Add(key, p)
	}
	return p, nil
}

func vectorKey(vector FeatureVector) string {
	buf := make([]byte, 8*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return string(buf)
}
