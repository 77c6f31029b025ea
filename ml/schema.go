package ml

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Default telco field names accepted from clients.
const (
	FieldMonthlyCharge      = "Monthly Charge"
	FieldTenureMonths       = "Tenure in Months"
	FieldAvgMonthlyGB       = "Avg Monthly GB Download"
	FieldReferrals          = "Number of Referrals"
	FieldContract           = "Contract"
	FieldPaymentMethod      = "Payment Method"
	FieldOnlineSecurity     = "Online Security"
	FieldPremiumTechSupport = "Premium Tech Support"
)

// DefaultNumericFeatures are coerced to numbers before scoring.
func DefaultNumericFeatures() []string {
	return []string{FieldMonthlyCharge, FieldTenureMonths, FieldAvgMonthlyGB, FieldReferrals}
}

// DefaultCategoricalEncodings maps category labels to the integer codes the
// model was trained with.
func DefaultCategoricalEncodings() map[string]map[string]int {
	return map[string]map[string]int{
		FieldContract:           {"Month-to-Month": 0, "One Year": 1, "Two Year": 2},
		FieldPaymentMethod:      {"Electronic Check": 0, "Mailed Check": 1, "Bank Transfer": 2, "Credit Card": 3},
		FieldOnlineSecurity:     {"No": 0, "Yes": 1},
		FieldPremiumTechSupport: {"No": 0, "Yes": 1},
	}
}

// Schema describes the feature vector a model was fit on. It is immutable
// once built.
type Schema struct {
	required  []string
	numeric   map[string]struct{}
	encodings map[string]map[string]int
}

// NewSchema builds a schema. required must come from the model artifact.
func NewSchema(required []string, numeric []string, encodings map[string]map[string]int) (*Schema, error) {
	if len(required) == 0 {
		return nil, errors.New("schema declares no feature names")
	}
	seen := make(map[string]struct{}, len(required))
	for i, name := range required {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("feature name at position %d is blank", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate feature name %q", name)
		}
		seen[name] = struct{}{}
	}

	s := &Schema{
		required:  append([]string(nil), required...),
		numeric:   make(map[string]struct{}, len(numeric)),
		encodings: make(map[string]map[string]int, len(encodings)),
	}
	for _, name := range numeric {
		s.numeric[name] = struct{}{}
	}
	for name, mapping := range encodings {
		if _, ok := s.numeric[name]; ok {
			return nil, fmt.Errorf("feature %q is both numeric and categorical", name)
		}
		codes := make(map[string]int, len(mapping))
		for label, code := range mapping {
			codes[label] = code
		}
		s.encodings[name] = codes
	}
	return s, nil
}

// FeatureOrder returns the model's feature names in vector order.
func (s *Schema) FeatureOrder() []string {
	return append([]string(nil), s.required...)
}

// Len is the length of every vector built against this schema.
func (s *Schema) Len() int {
	return len(s.required)
}

func (s *Schema) IsNumeric(name string) bool {
	_, ok := s.numeric[name]
	return ok
}

// Encoding returns a copy of the label->code mapping for a categorical field.
func (s *Schema) Encoding(name string) (map[string]int, bool) {
	mapping, ok := s.encodings[name]
	if !ok {
		return nil, false
	}
	out := make(map[string]int, len(mapping))
	for k, v := range mapping {
		out[k] = v
	}
	return out, true
}

// NumericFeatures returns the numeric field names, sorted.
func (s *Schema) NumericFeatures() []string {
	names := make([]string, 0, len(s.numeric))
	for name := range s.numeric {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CategoricalFeatures returns the categorical field names, sorted.
func (s *Schema) CategoricalFeatures() []string {
	names := make([]string, 0, len(s.encodings))
	for name := range s.encodings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
