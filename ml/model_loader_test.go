package ml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type labelOnlyModel struct {
	Label int `json:"label"`
}

func (m *labelOnlyModel) Predict(features []float64) int {
	return m.Label
}

func TestArtifactPath(t *testing.T) {
	assert.Equal(t, filepath.Join("models", "model_1.json"), ArtifactPath("", "1"))
	assert.Equal(t, filepath.Join("/srv/models", "model_lab-3.json"), ArtifactPath("/srv/models", "lab-3"))
}

func TestSaveAndLoadArtifact(t *testing.T) {
	dir := t.TempDir()
	path := ArtifactPath(filepath.Join(dir, "nested"), "7")
	require.NoError(t, SaveArtifact(path, DecisionTreeType, FeatureNames(), bucketTree()))

	artifact, err := DirLoader{Dir: filepath.Join(dir, "nested")}.Load("7")
	require.NoError(t, err)
	assert.Equal(t, "7", artifact.ID)
	assert.Equal(t, path, artifact.Path)
	assert.Equal(t, DecisionTreeType, artifact.Type)
	assert.Equal(t, FeatureNames(), artifact.Features)

	probs, err := artifact.Model.PredictProba([]float64{0, 0, 0, 0, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.7}, probs)
}

func TestLoadArtifactErrors(t *testing.T) {
	RegisterModelType("label_only", func() any { return &labelOnlyModel{} })
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "model_404.json"), ErrArtifactNotFound},
		{"directory", dir, ErrArtifactNotFound},
		{"garbage", write("garbage.json", "\x80\x04pickle"), ErrIncompatibleArtifact},
		{"unknown type", write("unknown.json", `{"type":"random_forest","model":{}}`), ErrIncompatibleArtifact},
		{"no payload", write("empty.json", `{"type":"decision_tree"}`), ErrIncompatibleArtifact},
		{"bad payload", write("bad.json", `{"type":"decision_tree","model":{"nodes":[]}}`), ErrIncompatibleArtifact},
		{"no probabilities", write("label.json", `{"type":"label_only","model":{"label":1}}`), ErrIncompatibleArtifact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadArtifact(tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestSaveArtifactRejectsUnknownType(t *testing.T) {
	err := SaveArtifact(filepath.Join(t.TempDir(), "m.json"), "svm", nil, struct{}{})
	assert.Error(t, err)
}

func TestModelTypes(t *testing.T) {
	types := ModelTypes()
	assert.Contains(t, types, DecisionTreeType)
	assert.Contains(t, types, LogisticRegressionType)
}
