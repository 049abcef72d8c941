package ml

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// DecisionTree is a binary classification tree stored as a flat node array.
// Node 0 is the root; leaves carry the class distribution of their training samples.
type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx    int       `json:"feature_idx"`
	Threshold     float64   `json:"threshold"`
	LeftChild     int       `json:"left_child"`
	RightChild    int       `json:"right_child"`
	IsLeaf        bool      `json:"is_leaf"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

// NewLeaf returns a leaf node predicting the given class distribution.
func NewLeaf(probabilities ...float64) TreeNode {
	return TreeNode{
		FeatureIdx:    -1,
		LeftChild:     -1,
		RightChild:    -1,
		IsLeaf:        true,
		Probabilities: probabilities,
	}
}

// NewSplit returns an inner node sending rows with features[featureIdx] <= threshold left.
func NewSplit(featureIdx int, threshold float64, left, right int) TreeNode {
	return TreeNode{
		FeatureIdx: featureIdx,
		Threshold:  threshold,
		LeftChild:  left,
		RightChild: right,
	}
}

func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
	if len(dt.Nodes) == 0 {
		return nil, errors.Wrap(ErrIncompatibleArtifact, "decision tree has no nodes")
	}
	idx := 0
	// a well-formed tree reaches a leaf in at most len(Nodes) steps
	for steps := 0; steps <= len(dt.Nodes); steps++ {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			if len(node.Probabilities) != 2 {
				return nil, errors.Wrapf(ErrIncompatibleArtifact, "leaf %d has %d class probabilities, want 2",
					idx, len(node.Probabilities))
			}
			return append([]float64(nil), node.Probabilities...), nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return nil, errors.Wrapf(ErrSchemaMismatch, "node %d reads feature %d of %d",
				idx, node.FeatureIdx, len(features))
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.Nodes) {
			return nil, errors.Wrapf(ErrIncompatibleArtifact, "invalid tree state at node %d", idx)
		}
	}
	return nil, errors.Wrap(ErrIncompatibleArtifact, "decision tree contains a cycle")
}

// NumFeatures returns the smallest row width the tree can evaluate.
func (dt *DecisionTree) NumFeatures() int {
	n := 0
	for _, node := range dt.Nodes {
		if !node.IsLeaf && node.FeatureIdx+1 > n {
			n = node.FeatureIdx + 1
		}
	}
	return n
}

func (dt *DecisionTree) UnmarshalJSON(data []byte) error {
	type plain DecisionTree
	var payload plain
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if len(payload.Nodes) == 0 {
		return errors.New("decision tree has no nodes")
	}
	*dt = DecisionTree(payload)
	return nil
}
