package ml

import (
	"math"

	"github.com/pkg/errors"
)

// LogisticRegression scores P(class 1) = sigmoid(w·x + b).
type LogisticRegression struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

func (lr *LogisticRegression) PredictProba(features []float64) ([]float64, error) {
	if len(lr.Weights) != len(features) {
		return nil, errors.Wrapf(ErrSchemaMismatch, "logistic regression has %d weights for %d features",
			len(lr.Weights), len(features))
	}
	z := lr.Intercept
	for i, w := range lr.Weights {
		z += w * features[i]
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

func (lr *LogisticRegression) NumFeatures() int {
	return len(lr.Weights)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
