package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	ModelGradientBoosting   = "gradient_boosting"
	ModelDecisionTree       = "decision_tree"
	ModelLogisticRegression = "logistic_regression"
)

// ArtifactFile is the on-disk JSON form of a trained model.
type ArtifactFile struct {
	ModelType    string   `json:"model_type"`
	FeatureNames []string `json:"feature_names"`
	Classes      []int    `json:"classes"`

	BaseScore float64 `json:"base_score"`
	Trees     []Tree  `json:"trees"`
	Nodes     Tree    `json:"nodes"`

	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`

	NumericFeatures      []string                  `json:"numeric_features,omitempty"`
	CategoricalEncodings map[string]map[string]int `json:"categorical_encodings,omitempty"`
}

// Artifact is a loaded model: the schema it was fit on and its classifier.
type Artifact struct {
	ModelType  string
	Schema     *Schema
	Classifier Classifier
}

// LoadArtifact reads and validates a model artifact from disk.
func LoadArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var file ArtifactFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	return BuildArtifact(file)
}

// BuildArtifact validates a decoded artifact and constructs its classifier.
func BuildArtifact(file ArtifactFile) (*Artifact, error) {
	numeric := file.NumericFeatures
	if numeric == nil {
		numeric = DefaultNumericFeatures()
	}
	encodings := file.CategoricalEncodings
	if encodings == nil {
		encodings = DefaultCategoricalEncodings()
	}
	schema, err := NewSchema(file.FeatureNames, numeric, encodings)
	if err != nil {
		return nil, fmt.Errorf("model artifact schema: %w", err)
	}

	classes := len(file.Classes)
	if classes == 0 {
		classes = 2
	}
	if classes > 2 {
		return nil, fmt.Errorf("model artifact declares %d classes, want a binary model", classes)
	}

	var classifier Classifier
	switch file.ModelType {
	case ModelGradientBoosting:
		if len(file.Trees) == 0 {
			return nil, errors.New("gradient boosting artifact has no trees")
		}
		for i, tree := range file.Trees {
			if err := tree.Validate(schema.Len()); err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
		}
		classifier = NewGradientBoosting(file.Trees, file.BaseScore, classes)
	case ModelDecisionTree:
		if err := file.Nodes.Validate(schema.Len()); err != nil {
			return nil, fmt.Errorf("decision tree: %w", err)
		}
		classifier = NewDecisionTree(file.Nodes, classes)
	case ModelLogisticRegression:
		if len(file.Coefficients) != schema.Len() {
			return nil, fmt.Errorf("logistic regression has %d coefficients for %d features",
				len(file.Coefficients), schema.Len())
		}
		classifier = NewLogisticRegression(file.Coefficients, file.Intercept, classes)
	default:
		return nil, fmt.Errorf("unsupported model type %q", file.ModelType)
	}

	return &Artifact{ModelType: file.ModelType, Schema: schema, Classifier: classifier}, nil
}
