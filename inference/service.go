// Package inference runs the churn prediction request pipeline and keeps the
// latest result.
package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"churnguard/logging"
	"churnguard/ml"
)

// Transformer converts raw records into model-ordered vectors.
type Transformer interface {
	Transform(raw ml.Record) (ml.Transformed, error)
}

// Scorer returns the churn probability for a vector.
type Scorer interface {
	ScoreChurnProbability(vector ml.FeatureVector) (float64, error)
}

// Publisher is told about every stored result.
type Publisher interface {
	Publish(r Result)
}

// Recorder receives pipeline observations.
type Recorder interface {
	ObservePrediction(r Result, elapsed time.Duration)
	ObserveDefaulted(fields []string)
	ObserveError(kind string)
}

// Service composes transformer, scorer, threshold and cache.
type Service struct {
	transformer Transformer
	scorer      Scorer
	cache       *Cache
	logger      *zap.Logger
	recorder    Recorder
	publishers  []Publisher
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publishers = append(s.publishers, p) }
}

func NewService(transformer Transformer, scorer Scorer, cache *Cache, opts ...Option) *Service {
	s := &Service{
		transformer: transformer,
		scorer:      scorer,
		cache:       cache,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict runs one inference and stores its result.
func (s *Service) Predict(ctx context.Context, raw ml.Record) (Result, error) {
	logger := s.logger.With(zap.String("request_id", logging.RequestID(ctx)))
	if len(raw) == 0 {
		s.observeError(ErrEmptyInput)
		return Result{}, ErrEmptyInput
	}

	start := time.Now()
	result, err := s.run(raw)
	if err != nil {
		s.observeError(err)
		logger.Warn("prediction failed", zap.Error(err))
		return Result{}, err
	}

	s.cache.Store(result)
	for _, p := range s.publishers {
		p.Publish(result)
	}
	elapsed := time.Since(start)
	if s.recorder != nil {
		s.recorder.ObservePrediction(result, elapsed)
	}
	logger.Info("prediction served",
		zap.Int("churn_prediction", result.Label),
		zap.Float64("churn_probability", result.Percent()),
		zap.Duration("elapsed", elapsed))
	return result, nil
}

// run transforms, scores and decides. Panics from the model surface as
// InternalError.
func (s *Service) run(raw ml.Record) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InternalError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	transformed, err := s.transformer.Transform(raw)
	if err != nil {
		if errors.Is(err, ml.ErrUnrecognizedInput) {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return Result{}, &InternalError{Err: err}
	}
	if len(transformed.Defaulted) > 0 {
		s.logger.Debug("input fields defaulted to zero", zap.Strings("fields", transformed.Defaulted))
		if s.recorder != nil {
			s.recorder.ObserveDefaulted(transformed.Defaulted)
		}
	}

	probability, err := s.scorer.ScoreChurnProbability(transformed.Vector)
	if err != nil {
		return Result{}, &InternalError{Err: err}
	}
	return Result{Label: ml.Decide(probability), Probability: probability}, nil
}

// Latest returns the cached result without running inference.
func (s *Service) Latest(ctx context.Context) (Result, error) {
	result, ok := s.cache.Latest()
	if !ok {
		return Result{}, ErrNoPredictionYet
	}
	return result, nil
}

func (s *Service) observeError(err error) {
	if s.recorder != nil {
		s.recorder.ObserveError(ErrorKind(err))
	}
}
