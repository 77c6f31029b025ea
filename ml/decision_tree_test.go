package ml

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// stump splits on feature 0 at 50.
var stump = Tree{
	{FeatureIdx: 0, Threshold: 50, LeftChild: 1, RightChild: 2},
	{IsLeaf: true, Value: 0.1},
	{IsLeaf: true, Value: 0.9},
}

func TestDecisionTreePredictProba(t *testing.T) {
	model := NewDecisionTree(stump, 2)

	probs, err := model.PredictProba(FeatureVector{20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probs) != 2 || probs[1] != 0.1 {
		t.Fatalf("unexpected probabilities: %v", probs)
	}

	probs, err = model.PredictProba(FeatureVector{80})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[1] != 0.9 {
		t.Fatalf("expected 0.9, got %v", probs[1])
	}
}

func TestTreeValidate(t *testing.T) {
	if err := stump.Validate(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := stump.Validate(0); err == nil {
		t.Fatal("expected feature index error")
	}
	loop := Tree{{FeatureIdx: 0, LeftChild: 0, RightChild: 1}, {IsLeaf: true}}
	if err := loop.Validate(1); err == nil {
		t.Fatal("expected child index error")
	}
	if err := (Tree{}).Validate(1); err == nil {
		t.Fatal("expected empty tree error")
	}
}

func TestGradientBoostingLogisticLink(t *testing.T) {
	model := NewGradientBoosting([]Tree{stump, {{IsLeaf: true, Value: 0.5}}}, -0.2, 2)

	probs, err := model.PredictProba(FeatureVector{80})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 1 / (1 + math.Exp(-(-0.2 + 0.9 + 0.5)))
	if math.Abs(probs[1]-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, probs[1])
	}
	if math.Abs(probs[0]+probs[1]-1) > 1e-12 {
		t.Fatalf("probabilities must sum to 1: %v", probs)
	}
}

func TestSingleClassModel(t *testing.T) {
	model := NewLogisticRegression([]float64{1}, 0, 1)
	probs, err := model.PredictProba(FeatureVector{3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probs) != 1 {
		t.Fatalf("expected single-class output, got %v", probs)
	}
}

func TestLoadArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	artifact := `{
		"model_type": "gradient_boosting",
		"feature_names": ["Tenure in Months", "Monthly Charge", "Contract"],
		"classes": [0, 1],
		"base_score": 0,
		"trees": [[
			{"feature_idx": 2, "threshold": 0.5, "left_child": 1, "right_child": 2},
			{"is_leaf": true, "value": 1.5},
			{"is_leaf": true, "value": -1.5}
		]]
	}`
	if err := os.WriteFile(path, []byte(artifact), 0o600); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Schema.Len() != 3 {
		t.Fatalf("expected 3 features, got %d", loaded.Schema.Len())
	}
	if _, ok := loaded.Schema.Encoding(FieldContract); !ok {
		t.Fatal("expected default encodings")
	}

	probs, err := loaded.Classifier.PredictProba(FeatureVector{1, 50, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[1] <= 0.5 {
		t.Fatalf("expected month-to-month contract to score high, got %v", probs[1])
	}
}

func TestBuildArtifactFailures(t *testing.T) {
	cases := map[string]ArtifactFile{
		"no features":   {ModelType: ModelLogisticRegression},
		"unknown type":  {ModelType: "svm", FeatureNames: []string{"a"}},
		"no trees":      {ModelType: ModelGradientBoosting, FeatureNames: []string{"a"}},
		"coef mismatch": {ModelType: ModelLogisticRegression, FeatureNames: []string{"a"}, Coefficients: []float64{1, 2}},
		"bad tree":      {ModelType: ModelDecisionTree, FeatureNames: []string{"a"}, Nodes: Tree{{FeatureIdx: 3, LeftChild: 1, RightChild: 2}}},
		"multiclass":    {ModelType: ModelLogisticRegression, FeatureNames: []string{"a"}, Coefficients: []float64{1}, Classes: []int{0, 1, 2}},
	}
	for name, file := range cases {
		if _, err := BuildArtifact(file); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	if _, err := LoadArtifact(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}

func TestBundledArtifact(t *testing.T) {
	artifact, err := LoadArtifact(filepath.Join("..", "models", "churn_model.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	transformer := NewTransformer(artifact.Schema, DefaultZero)
	engine, err := NewEngine(artifact.Classifier, artifact.Schema.Len(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	score := func(raw Record) float64 {
		out, err := transformer.Transform(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		p, err := engine.ScoreChurnProbability(out.Vector)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return p
	}

	risky := score(Record{"Contract": "Month-to-Month", "Tenure in Months": "5", "Monthly Charge": "90"})
	loyal := score(Record{"Contract": "Two Year", "Tenure in Months": "60", "Monthly Charge": "20", "Number of Referrals": "3"})
	if Decide(risky) != 1 || Decide(loyal) != 0 {
		t.Fatalf("unexpected decisions: risky=%v loyal=%v", risky, loyal)
	}
}
