package ml

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Predictor loads the artifact for each request and returns P(class 1).
// It keeps no state between calls and is safe for concurrent use.
type Predictor struct {
	loader Loader
	logger *zap.Logger
}

type PredictorOption func(*Predictor)

func WithLogger(logger *zap.Logger) PredictorOption {
	return func(p *Predictor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithLoader(loader Loader) PredictorOption {
	return func(p *Predictor) {
		if loader != nil {
			p.loader = loader
		}
	}
}

// NewPredictor returns a Predictor reading artifacts from modelsDir.
func NewPredictor(modelsDir string, opts ...PredictorOption) *Predictor {
	p := &Predictor{
		loader: DirLoader{Dir: modelsDir},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PredictProbability returns the positive-class probability for in.
func (p *Predictor) PredictProbability(in Input) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if !InClockRange(in.Time) {
		p.logger.Warn("time outside clock range, bucketing anyway",
			zap.Float64("time", in.Time), zap.Int("bucket", TimeBucket(in.Time)))
	}

	row := NewFeatureRow(in)
	artifact, err := p.loader.Load(in.ID)
	if err != nil {
		return 0, err
	}
	if err := checkSchema(artifact); err != nil {
		return 0, err
	}

	probabilities, err := artifact.Model.PredictProba(FeatureVector(row))
	if err != nil {
		if errors.Is(err, ErrSchemaMismatch) || errors.Is(err, ErrIncompatibleArtifact) {
			return 0, errors.Wrap(err, artifact.Path)
		}
		return 0, errors.Wrapf(ErrIncompatibleArtifact, "%s: predict: %v", artifact.Path, err)
	}
	if len(probabilities) != 2 {
		return 0, errors.Wrapf(ErrIncompatibleArtifact, "%s: expected 2 class probabilities, got %d",
			artifact.Path, len(probabilities))
	}
	probability := probabilities[1]
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return 0, errors.Wrapf(ErrIncompatibleArtifact, "%s: probability %v outside [0,1]",
			artifact.Path, probability)
	}

	p.logger.Debug("prediction",
		zap.String("id", in.ID),
		zap.String("artifact", artifact.Path),
		zap.String("model_type", artifact.Type),
		zap.Int("time_bucket", row.TimeBucket),
		zap.Float64("probability", probability))
	return probability, nil
}

func checkSchema(artifact *Artifact) error {
	names := FeatureNames()
	if len(artifact.Features) > 0 {
		if len(artifact.Features) != len(names) {
			return errors.Wrapf(ErrSchemaMismatch, "%s: artifact has %d feature columns, want %d",
				artifact.Path, len(artifact.Features), len(names))
		}
		for i, name := range names {
			if artifact.Features[i] != name {
				return errors.Wrapf(ErrSchemaMismatch, "%s: column %d is %q, want %q",
					artifact.Path, i, artifact.Features[i], name)
			}
		}
	}
	if counter, ok := artifact.Model.(featureCounter); ok && counter.NumFeatures() > len(names) {
		return errors.Wrapf(ErrSchemaMismatch, "%s: model reads %d features, row has %d",
			artifact.Path, counter.NumFeatures(), len(names))
	}
	return nil
}
