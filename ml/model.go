package ml

import "github.com/pkg/errors"

var (
	// ErrArtifactNotFound is returned when the artifact for an ID is missing or unreadable.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrIncompatibleArtifact is returned when the artifact cannot produce class probabilities.
	ErrIncompatibleArtifact = errors.New("incompatible artifact")
	// ErrSchemaMismatch is returned when the artifact expects other feature columns.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInvalidInput is returned for malformed covariates or identifiers.
	ErrInvalidInput = errors.New("invalid input")
)

// ProbabilityModel is the capability every usable artifact must provide:
// a distribution over the two classes for a single feature row.
type ProbabilityModel interface {
	PredictProba(features []float64) ([]float64, error)
}

type featureCounter interface {
	NumFeatures() int
}
