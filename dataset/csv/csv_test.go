package csv

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ty01csbaidu/streamDM/feature"
)

func csvFixtures() ([]feature.Feature, *feature.NominalFeature) {
	features := []feature.Feature{
		feature.NewNumericFeature("age"),
		feature.NewNominalFeature("color", []string{"red", "green"}),
	}
	class := feature.NewNominalFeature("label", []string{"spam", "ham"})
	return features, class
}

func TestNewStream(t *testing.T) {
	features, class := csvFixtures()
	ctx := context.Background()
	// Columns deliberately out of declaration order.
	content := "color,label,age\nred,spam,10\ngreen,ham,20.5\n"
	s, err := NewStream(strings.NewReader(content), features, class)
	require.NoError(t, err)
	defer s.Close()

	e, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, e.ValueAt(0))
	assert.Equal(t, 0.0, e.ValueAt(1))
	assert.Equal(t, 0, e.Class())

	e, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20.5, e.ValueAt(0))
	assert.Equal(t, 1.0, e.ValueAt(1))
	assert.Equal(t, 1, e.Class())

	_, err = s.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestNewStreamHeaderErrors(t *testing.T) {
	features, class := csvFixtures()
	t.Run("missing feature column", func(t *testing.T) {
		_, err := NewStream(strings.NewReader("color,label\nred,spam\n"), features, class)
		assert.ErrorContains(t, err, "age")
	})
	t.Run("missing class column", func(t *testing.T) {
		_, err := NewStream(strings.NewReader("color,age\nred,10\n"), features, class)
		assert.ErrorContains(t, err, "label")
	})
}

func TestNextParseErrors(t *testing.T) {
	features, class := csvFixtures()
	ctx := context.Background()
	t.Run("unknown nominal value", func(t *testing.T) {
		s, err := NewStream(strings.NewReader("age,color,label\n10,purple,spam\n"), features, class)
		require.NoError(t, err)
		_, err = s.Next(ctx)
		assert.ErrorContains(t, err, "purple")
	})
	t.Run("unknown class value", func(t *testing.T) {
		s, err := NewStream(strings.NewReader("age,color,label\n10,red,other\n"), features, class)
		require.NoError(t, err)
		_, err = s.Next(ctx)
		assert.ErrorContains(t, err, "other")
	})
	t.Run("unparseable numeric value", func(t *testing.T) {
		s, err := NewStream(strings.NewReader("age,color,label\nold,red,spam\n"), features, class)
		require.NoError(t, err)
		_, err = s.Next(ctx)
		assert.ErrorContains(t, err, "age")
	})
}
