package yaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ty01csbaidu/streamDM/feature"
)

const metadataDoc = `
features:
  color:
    - red
    - green
  age: numeric
  label:
    - spam
    - ham
`

func TestReadFeatures(t *testing.T) {
	features, err := ReadFeatures([]byte(metadataDoc))
	require.NoError(t, err)
	require.Len(t, features, 3)

	// Features come back sorted by name so example encoding is stable.
	assert.Equal(t, "age", features[0].Name())
	assert.Equal(t, feature.KindNumeric, features[0].Kind())

	color, ok := features[1].(*feature.NominalFeature)
	require.True(t, ok)
	assert.Equal(t, "color", color.Name())
	assert.Equal(t, []string{"red", "green"}, color.Values())

	label, ok := features[2].(*feature.NominalFeature)
	require.True(t, ok)
	assert.Equal(t, "label", label.Name())
	assert.Equal(t, 2, label.Cardinality())
}

func TestReadFeaturesErrors(t *testing.T) {
	t.Run("unknown feature kind", func(t *testing.T) {
		_, err := ReadFeatures([]byte("features:\n  age: integer\n"))
		assert.Error(t, err)
	})
	t.Run("invalid declaration", func(t *testing.T) {
		_, err := ReadFeatures([]byte("features:\n  age: 7\n"))
		assert.Error(t, err)
	})
	t.Run("missing features property", func(t *testing.T) {
		_, err := ReadFeatures([]byte("other: thing\n"))
		assert.Error(t, err)
	})
	t.Run("invalid yml", func(t *testing.T) {
		_, err := ReadFeatures([]byte("\t!not yml"))
		assert.Error(t, err)
	})
}

func TestReadFeaturesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.yml")
	require.NoError(t, os.WriteFile(path, []byte(metadataDoc), 0600))
	features, err := ReadFeaturesFromFile(path)
	require.NoError(t, err)
	assert.Len(t, features, 3)

	_, err = ReadFeaturesFromFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
