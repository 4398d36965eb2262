package dataset

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ty01csbaidu/streamDM/feature"
)

func examples(n int) []*feature.Example {
	es := make([]*feature.Example, n)
	for i := range es {
		es[i] = feature.NewExample([]float64{float64(i)}, i%2)
	}
	return es
}

func TestSliceStream(t *testing.T) {
	ctx := context.Background()
	s := New(examples(2))
	e, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, e.ValueAt(0))
	e, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.ValueAt(0))
	_, err = s.Next(ctx)
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, s.Close())
}

func TestSliceStreamHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(examples(2))
	_, err := s.Next(ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	s := New(examples(5))

	batch, err := Batch(ctx, s, 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	batch, err = Batch(ctx, s, 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	// The tail batch comes back partial alongside io.EOF.
	batch, err = Batch(ctx, s, 2)
	assert.Equal(t, io.EOF, err)
	assert.Len(t, batch, 1)

	batch, err = Batch(ctx, s, 2)
	assert.Equal(t, io.EOF, err)
	assert.Empty(t, batch)
}
