package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ty01csbaidu/streamDM/feature"
)

func TestMergeIncompatibleModels(t *testing.T) {
	m, err := New(signalNoiseConfig())
	require.NoError(t, err)
	other, err := New(DefaultConfig(3, signalNoiseConfig().Features))
	require.NoError(t, err)
	_, err = m.Merge(other, false)
	assert.Equal(t, ErrIncompatibleModels, err)
}

func TestMergeNilModel(t *testing.T) {
	m, err := New(signalNoiseConfig())
	require.NoError(t, err)
	merged, err := m.Merge(nil, false)
	require.NoError(t, err)
	assert.Same(t, m, merged)
}

func TestMergeLeavesAdditively(t *testing.T) {
	m, err := New(signalNoiseConfig())
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		partial := m.Spawn()
		for _, e := range signalExamples(10) {
			partial.Update(e)
		}
		_, err = m.Merge(partial, false)
		require.NoError(t, err)
	}
	assert.InDelta(t, 20, m.TotalWeight(), 1e-9)
	assert.Equal(t, 1, m.ActiveLeaves())
	assert.InDelta(t, 20, m.Root().AddOnWeight, 1e-9)
	assert.Equal(t, []float64{10, 10}, m.Root().Dist)
}

func TestMergeSameStructureRecursively(t *testing.T) {
	m := trainSplitModel(t)
	donor := m.Clone()
	for _, e := range signalExamples(20) {
		donor.Update(e)
	}
	_, err := m.Merge(donor, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.DecisionNodes())
	assert.InDelta(t, 220, m.TotalWeight(), 1e-9)
	assert.Equal(t, []float64{110, 0}, m.Root().Children[0].Dist)
	assert.Equal(t, []float64{0, 110}, m.Root().Children[1].Dist)
}

func TestMergeAdoptsDonorStructure(t *testing.T) {
	m, err := New(signalNoiseConfig())
	require.NoError(t, err)
	for _, e := range signalExamples(10) {
		m.Update(e)
	}
	donor := trainSplitModel(t)
	_, err = m.Merge(donor, false)
	require.NoError(t, err)

	// The donor's split wins and the receiver's leaf statistics are
	// folded down it, per class, without losing weight.
	assert.Equal(t, 1, m.DecisionNodes())
	assert.InDelta(t, 110, m.TotalWeight(), 1e-9)
	assert.Equal(t, []float64{55, 0}, m.Root().Children[0].Dist)
	assert.Equal(t, []float64{0, 55}, m.Root().Children[1].Dist)
}

func TestMergeFoldsDonorLeafIntoStructure(t *testing.T) {
	// A donor trained before the receiver split is still a single
	// leaf; its distribution folds down the receiver's structure.
	m := trainSplitModel(t)
	donor, err := New(signalNoiseConfig())
	require.NoError(t, err)
	for _, e := range signalExamples(20) {
		donor.Update(e)
	}
	_, err = m.Merge(donor, false)
	require.NoError(t, err)

	assert.InDelta(t, 120, m.TotalWeight(), 1e-9)
	assert.Equal(t, []float64{60, 0}, m.Root().Children[0].Dist)
	assert.Equal(t, []float64{0, 60}, m.Root().Children[1].Dist)
}

func TestMergeConservesWeightAcrossConflictingSplits(t *testing.T) {
	// Receiver splits on the signal feature; the donor grew a
	// conflicting split on the noise feature.
	m := trainSplitModel(t)
	cfg := signalNoiseConfig()
	donor, err := New(cfg)
	require.NoError(t, err)
	donorPartial := donor.Spawn()
	for i := 0; i < 100; i++ {
		class := (i / 2) % 2
		noise := i % 2
		donorPartial.Update(feature.NewExample([]float64{float64(noise), float64(class)}, class))
	}
	_, err = donor.Merge(donorPartial, true)
	require.NoError(t, err)
	require.Equal(t, 1, donor.DecisionNodes())

	_, err = m.Merge(donor, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.DecisionNodes())
	assert.InDelta(t, 200, m.TotalWeight(), 1e-9)
}

func TestMergeIntoEmptyModelAdoptsDonor(t *testing.T) {
	m, err := New(signalNoiseConfig())
	require.NoError(t, err)
	donor := trainSplitModel(t)
	root := donor.Root()
	_, err = m.Merge(donor, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.DecisionNodes())
	assert.InDelta(t, 100, m.TotalWeight(), 1e-9)
	// The receiver's empty root leaf contributes nothing, so the
	// donor's subtree comes through unchanged.
	assert.Equal(t, root.Children[0].Dist, m.Root().Children[0].Dist)
}

func TestMergeTrySplitEvaluatesLastExamplePath(t *testing.T) {
	m, err := New(signalNoiseConfig())
	require.NoError(t, err)
	partial := m.Spawn()
	for _, e := range signalExamples(100) {
		partial.Update(e)
	}
	_, err = m.Merge(partial, false)
	require.NoError(t, err)
	assert.Equal(t, 0, m.DecisionNodes())

	// The same statistics with trySplit set do split.
	m2, err := New(signalNoiseConfig())
	require.NoError(t, err)
	partial2 := m2.Spawn()
	for _, e := range signalExamples(100) {
		partial2.Update(e)
	}
	_, err = m2.Merge(partial2, true)
	require.NoError(t, err)
	assert.Equal(t, 1, m2.DecisionNodes())
}
