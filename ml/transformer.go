package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record is a raw client input: field name to string, number, bool or nil.
type Record map[string]any

// FeatureVector is ordered like Schema.FeatureOrder and holds only finite values.
type FeatureVector []float64

// InputPolicy decides what happens to values the transformer cannot interpret.
type InputPolicy string

const (
	// DefaultZero silently replaces unparseable numbers and unknown labels with 0.
	DefaultZero InputPolicy = "default_zero"
	// RejectUnrecognized fails the transformation instead.
	RejectUnrecognized InputPolicy = "reject"
)

var ErrUnrecognizedInput = errors.New("unrecognized input values")

// ParseInputPolicy maps a config value to a policy. Empty means DefaultZero.
func ParseInputPolicy(s string) (InputPolicy, error) {
	switch InputPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DefaultZero:
		return DefaultZero, nil
	case RejectUnrecognized:
		return RejectUnrecognized, nil
	default:
		return "", fmt.Errorf("unknown input policy %q", s)
	}
}

// Transformed is the output of Transformer.Transform.
type Transformed struct {
	Vector FeatureVector
	// Defaulted lists supplied fields whose value fell back to zero.
	Defaulted []string
}

// Transformer turns raw records into feature vectors for one schema.
type Transformer struct {
	schema *Schema
	policy InputPolicy
}

func NewTransformer(schema *Schema, policy InputPolicy) *Transformer {
	if policy == "" {
		policy = DefaultZero
	}
	return &Transformer{schema: schema, policy: policy}
}

func (t *Transformer) Policy() InputPolicy {
	return t.policy
}

// Transform coerces numeric fields, encodes categorical fields, passes other
// required fields through and reindexes into schema order with missing
// positions set to 0. Under DefaultZero it never returns an error.
func (t *Transformer) Transform(raw Record) (Transformed, error) {
	values := make(map[string]float64, len(raw))
	var defaulted []string

	for name, value := range raw {
		if mapping, ok := t.schema.encodings[name]; ok {
			code, ok := encodeCategory(mapping, value)
			if !ok {
				defaulted = append(defaulted, name)
			}
			values[name] = float64(code)
			continue
		}

		_, numeric := t.schema.numeric[name]
		if !numeric && !t.schema.requires(name) {
			continue
		}
		number, ok := toFinite(value)
		if !ok {
			defaulted = append(defaulted, name)
		}
		values[name] = number
	}

	sort.Strings(defaulted)
	if len(defaulted) > 0 && t.policy == RejectUnrecognized {
		return Transformed{}, fmt.Errorf("%w: %s", ErrUnrecognizedInput, strings.Join(defaulted, ", "))
	}

	vector := make(FeatureVector, len(t.schema.required))
	for i, name := range t.schema.required {
		vector[i] = values[name]
	}
	return Transformed{Vector: vector, Defaulted: defaulted}, nil
}

func (s *Schema) requires(name string) bool {
	for _, required := range s.required {
		if required == name {
			return true
		}
	}
	return false
}

// encodeCategory matches string labels exactly. Anything else maps to 0.
func encodeCategory(mapping map[string]int, value any) (int, bool) {
	label, ok := value.(string)
	if !ok {
		return 0, false
	}
	code, ok := mapping[label]
	if !ok {
		return 0, false
	}
	return code, true
}

// toFinite coerces a decoded JSON value to a finite float. Null, unparseable
// and non-finite values yield (0, false).
func toFinite(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case json.Number:
		parsed, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
