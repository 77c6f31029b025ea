package ml

import (
	"errors"
	"fmt"
)

// TreeNode is one node of a flattened regression/classification tree.
// Leaves carry Value; internal nodes route on features[FeatureIdx] <= Threshold.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// Tree is a flattened tree rooted at index 0.
type Tree []TreeNode

// Validate checks child and feature indices so evaluation cannot loop or
// index out of range.
func (t Tree) Validate(featureCount int) error {
	if len(t) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range t {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= featureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(t) {
			return fmt.Errorf("node %d: invalid left child %d", i, node.LeftChild)
		}
		if node.RightChild <= i || node.RightChild >= len(t) {
			return fmt.Errorf("node %d: invalid right child %d", i, node.RightChild)
		}
	}
	return nil
}

// Eval walks the tree and returns the leaf value.
func (t Tree) Eval(features FeatureVector) (float64, error) {
	if len(t) == 0 {
		return 0, errors.New("model not trained")
	}
	idx := 0
	for {
		node := t[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(t) {
			return 0, errors.New("invalid tree state")
		}
	}
}

// DecisionTree is a single tree whose leaves hold the churn probability.
type DecisionTree struct {
	nodes   Tree
	classes int
}

func NewDecisionTree(nodes Tree, classes int) *DecisionTree {
	return &DecisionTree{nodes: nodes, classes: classes}
}

func (dt *DecisionTree) PredictProba(features FeatureVector) ([]float64, error) {
	p, err := dt.nodes.Eval(features)
	if err != nil {
		return nil, err
	}
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("leaf probability %v outside [0,1]", p)
	}
	return binaryProba(p, dt.classes), nil
}

// GradientBoosting sums tree margins on top of a base margin and applies the
// logistic link, as binary:logistic boosters do.
type GradientBoosting struct {
	trees      []Tree
	baseMargin float64
	classes    int
}

func NewGradientBoosting(trees []Tree, baseMargin float64, classes int) *GradientBoosting {
	return &GradientBoosting{trees: trees, baseMargin: baseMargin, classes: classes}
}

func (gb *GradientBoosting) PredictProba(features FeatureVector) ([]float64, error) {
	if len(gb.trees) == 0 {
		return nil, errors.New("model not trained")
	}
	margin := gb.baseMargin
	for i, tree := range gb.trees {
		v, err := tree.Eval(features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		margin += v
	}
	return binaryProba(sigmoid(margin), gb.classes), nil
}
