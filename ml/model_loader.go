package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

const (
	DefaultModelsDir = "models"
	ArtifactExt      = ".json"

	DecisionTreeType       = "decision_tree"
	LogisticRegressionType = "logistic_regression"
)

// ModelFactory returns an empty value for an artifact's "model" payload to be decoded into.
type ModelFactory func() any

var (
	registryMu sync.RWMutex
	registry   = map[string]ModelFactory{
		DecisionTreeType:       func() any { return &DecisionTree{} },
		LogisticRegressionType: func() any { return &LogisticRegression{} },
	}
)

// RegisterModelType makes a model type loadable from artifacts.
// Registering an existing name replaces its factory.
func RegisterModelType(name string, factory ModelFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// ModelTypes lists the registered model type names.
func ModelTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupModelType(name string) (ModelFactory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[name]
	return factory, ok
}

// Artifact is a deserialized model together with the columns it was trained on.
type Artifact struct {
	ID       string
	Path     string
	Type     string
	Features []string
	Model    ProbabilityModel
}

type envelope struct {
	Type     string          `json:"type"`
	Features []string        `json:"features,omitempty"`
	Model    json.RawMessage `json:"model"`
}

// ArtifactPath derives the artifact location for an ID.
func ArtifactPath(dir, id string) string {
	if dir == "" {
		dir = DefaultModelsDir
	}
	return filepath.Join(dir, "model_"+id+ArtifactExt)
}

// LoadArtifact reads and decodes the artifact at path.
func LoadArtifact(path string) (*Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrArtifactNotFound, "%s: %v", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.Wrapf(ErrArtifactNotFound, "%s: %v", path, err)
	}
	if info.IsDir() {
		return nil, errors.Wrapf(ErrArtifactNotFound, "%s is a directory", path)
	}

	var env envelope
	if err := json.NewDecoder(file).Decode(&env); err != nil {
		return nil, errors.Wrapf(ErrIncompatibleArtifact, "%s: decode: %v", path, err)
	}
	factory, ok := lookupModelType(env.Type)
	if !ok {
		return nil, errors.Wrapf(ErrIncompatibleArtifact, "%s: unsupported model type %q", path, env.Type)
	}
	if len(env.Model) == 0 {
		return nil, errors.Wrapf(ErrIncompatibleArtifact, "%s: model payload is empty", path)
	}

	target := factory()
	if err := json.Unmarshal(env.Model, target); err != nil {
		return nil, errors.Wrapf(ErrIncompatibleArtifact, "%s: decode %s: %v", path, env.Type, err)
	}
	model, ok := target.(ProbabilityModel)
	if !ok {
		return nil, errors.Wrapf(ErrIncompatibleArtifact, "%s: model type %q cannot predict probabilities", path, env.Type)
	}

	return &Artifact{
		Path:     path,
		Type:     env.Type,
		Features: env.Features,
		Model:    model,
	}, nil
}

// SaveArtifact writes model under the given type name, creating parent directories.
func SaveArtifact(path, modelType string, features []string, model any) error {
	if _, ok := lookupModelType(modelType); !ok {
		return errors.Errorf("unsupported model type %q", modelType)
	}
	payload, err := json.Marshal(model)
	if err != nil {
		return errors.Wrap(err, "encode model")
	}
	data, err := json.MarshalIndent(envelope{
		Type:     modelType,
		Features: features,
		Model:    payload,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode artifact")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create dir for %s", path)
	}
	return os.WriteFile(path, data, 0o600)
}

// Loader resolves an ID to a freshly loaded artifact.
type Loader interface {
	Load(id string) (*Artifact, error)
}

// DirLoader loads artifacts from model_<ID>.json files in Dir.
type DirLoader struct {
	Dir string
}

func (l DirLoader) Load(id string) (*Artifact, error) {
	artifact, err := LoadArtifact(ArtifactPath(l.Dir, id))
	if err != nil {
		return nil, err
	}
	artifact.ID = id
	return artifact, nil
}
