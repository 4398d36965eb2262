package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ty01csbaidu/streamDM/feature"
	"github.com/ty01csbaidu/streamDM/split"
)

// signalNoiseConfig declares two nominal features: "signal" perfectly
// determines the class while "noise" carries no information.
func signalNoiseConfig() *Config {
	features := []feature.Feature{
		feature.NewNominalFeature("signal", []string{"a", "b"}),
		feature.NewNominalFeature("noise", []string{"x", "y"}),
	}
	cfg := DefaultConfig(2, features)
	cfg.GracePeriod = 50
	return cfg
}

func signalExamples(n int) []*feature.Example {
	es := make([]*feature.Example, n)
	for i := range es {
		class := i % 2
		noise := (i / 2) % 2
		es[i] = feature.NewExample([]float64{float64(class), float64(noise)}, class)
	}
	return es
}

// trainSplitModel folds 100 perfectly separable examples through a
// partial model and merges them in, which replaces the root leaf with
// a split on the signal feature.
func trainSplitModel(t *testing.T) *Model {
	t.Helper()
	m, err := New(signalNoiseConfig())
	require.NoError(t, err)
	partial := m.Spawn()
	for _, e := range signalExamples(100) {
		partial.Update(e)
	}
	_, err = m.Merge(partial, true)
	require.NoError(t, err)
	require.Equal(t, 1, m.DecisionNodes())
	return m
}

func TestModelSplitsOnInformativeFeature(t *testing.T) {
	m := trainSplitModel(t)
	root := m.Root()
	require.Equal(t, KindSplit, root.Kind)
	test, ok := root.Test.(*split.NominalMultiwayTest)
	require.True(t, ok)
	assert.Equal(t, "signal", test.Feature)
	assert.Equal(t, 0, test.Index)

	assert.Equal(t, 2, m.ActiveLeaves())
	assert.Equal(t, 0, m.InactiveLeaves())
	assert.InDelta(t, 100, m.TotalWeight(), 1e-9)

	assert.Equal(t, 0, m.Predict(feature.NewExample([]float64{0, 0}, 0)))
	assert.Equal(t, 0, m.Predict(feature.NewExample([]float64{0, 1}, 0)))
	assert.Equal(t, 1, m.Predict(feature.NewExample([]float64{1, 0}, 0)))
	assert.Equal(t, 1, m.Predict(feature.NewExample([]float64{1, 1}, 0)))
}

func TestPureLeafNeverSplits(t *testing.T) {
	m, err := New(signalNoiseConfig())
	require.NoError(t, err)
	partial := m.Spawn()
	for i := 0; i < 300; i++ {
		partial.Update(feature.NewExample([]float64{0, float64(i % 2)}, 0))
	}
	_, err = m.Merge(partial, true)
	require.NoError(t, err)
	assert.Equal(t, 0, m.DecisionNodes())
	assert.Equal(t, 1, m.ActiveLeaves())
	assert.InDelta(t, 300, m.TotalWeight(), 1e-9)
}

func TestGracePeriodDefersSplitting(t *testing.T) {
	m, err := New(signalNoiseConfig())
	require.NoError(t, err)
	partial := m.Spawn()
	for _, e := range signalExamples(40) {
		partial.Update(e)
	}
	_, err = m.Merge(partial, true)
	require.NoError(t, err)
	assert.Equal(t, 0, m.DecisionNodes())
}

func TestGrowthDisallowed(t *testing.T) {
	cfg := signalNoiseConfig()
	cfg.GrowthAllowed = false
	m, err := New(cfg)
	require.NoError(t, err)
	partial := m.Spawn()
	for _, e := range signalExamples(500) {
		partial.Update(e)
	}
	_, err = m.Merge(partial, true)
	require.NoError(t, err)
	assert.Equal(t, 0, m.DecisionNodes())
}

// quadrantConfig declares two binary nominal features whose four
// value combinations map one to one onto four classes, so a perfect
// classifier needs a split under each branch of the root.
func quadrantConfig() *Config {
	features := []feature.Feature{
		feature.NewNominalFeature("coarse", []string{"a", "b"}),
		feature.NewNominalFeature("fine", []string{"x", "y"}),
	}
	cfg := DefaultConfig(4, features)
	cfg.GracePeriod = 50
	cfg.TieThreshold = 0.3
	return cfg
}

func quadrantExamples(start, n int) []*feature.Example {
	es := make([]*feature.Example, n)
	for i := range es {
		class := (start + i) % 4
		es[i] = feature.NewExample([]float64{float64(class / 2), float64(class % 2)}, class)
	}
	return es
}

func TestRepeatedFoldsKeepGrowingTheTree(t *testing.T) {
	m, err := New(quadrantConfig())
	require.NoError(t, err)
	const batch = 101
	for round := 0; round < 16; round++ {
		partial := m.Spawn()
		for _, e := range quadrantExamples(round*batch, batch) {
			partial.Update(e)
		}
		_, err = m.Merge(partial, true)
		require.NoError(t, err)
	}

	// Leaves below the first split keep accumulating observer
	// statistics across rounds, so the tree reaches depth two: the
	// root plus one split under each of its branches.
	assert.Equal(t, 3, m.DecisionNodes())
	assert.Equal(t, 4, m.ActiveLeaves())
	assert.Equal(t, 0, m.InactiveLeaves())
	assert.InDelta(t, 16*batch, m.TotalWeight(), 1e-9)
	for class := 0; class < 4; class++ {
		e := feature.NewExample([]float64{float64(class / 2), float64(class % 2)}, class)
		assert.Equal(t, class, m.Predict(e))
	}
}

func TestLeafWithoutObserverEvidenceStaysActive(t *testing.T) {
	m := trainSplitModel(t)
	leaf := m.Root().Children[0]
	require.Equal(t, KindActive, leaf.Kind)

	// Impure past the grace period, but the observers have seen
	// nothing: there is no candidate to weigh the sentinel against,
	// so the leaf must not be frozen.
	leaf.Dist = []float64{30, 20}
	leaf.AddOnWeight = 60
	m.attemptSplit(leaf, m.Root(), 0)
	assert.Equal(t, KindActive, leaf.Kind)
	assert.Equal(t, 0, m.InactiveLeaves())
	assert.Equal(t, 0.0, leaf.AddOnWeight)
}

func TestEmptyModelPredictsFirstClass(t *testing.T) {
	m, err := New(signalNoiseConfig())
	require.NoError(t, err)
	e := feature.NewExample([]float64{1, 1}, 0)
	assert.Equal(t, 0, m.Predict(e))
	assert.Equal(t, []float64{0, 0}, m.Votes(e))
}

func TestPredictTieBreaksLowestIndex(t *testing.T) {
	cfg := signalNoiseConfig()
	cfg.LeafStrategy = LeafMajority
	m, err := New(cfg)
	require.NoError(t, err)
	m.Update(feature.NewExample([]float64{0, 0}, 0))
	m.Update(feature.NewExample([]float64{1, 0}, 1))
	assert.Equal(t, 0, m.Predict(feature.NewExample([]float64{0, 1}, 0)))
}

func TestUpdateGrowsLeafOnEmptyBranch(t *testing.T) {
	m, err := New(signalNoiseConfig())
	require.NoError(t, err)
	m.SetRoot(&Node{
		Kind:     KindSplit,
		Dist:     []float64{5, 5},
		Test:     &split.NominalMultiwayTest{Feature: "signal", Index: 0, Arity: 2},
		Children: make([]*Node, 2),
	})
	require.Equal(t, 0, m.ActiveLeaves())

	m.Update(feature.NewExample([]float64{0, 0}, 0))
	assert.Equal(t, 1, m.ActiveLeaves())
	assert.Equal(t, []float64{1, 0}, m.Root().Children[0].Dist)

	// The branch without a leaf answers with the split's snapshot.
	assert.Equal(t, []float64{5, 5}, m.Votes(feature.NewExample([]float64{1, 0}, 0)))
}

func TestDecideSplit(t *testing.T) {
	sorted := func(ss ...*split.Suggestion) []*split.Suggestion {
		split.SortByMerit(ss)
		return ss
	}
	t.Run("clear winner splits", func(t *testing.T) {
		ss := sorted(split.NoSplit(0), split.NewSuggestion(0, nil, 1.0, nil))
		best, ok := decideSplit(ss, 1.0, 1e-7, 0.05, 100)
		require.True(t, ok)
		assert.Equal(t, 0, best.Feature)
	})
	t.Run("narrow lead below the bound waits", func(t *testing.T) {
		ss := sorted(split.NewSuggestion(0, nil, 0.505, nil), split.NewSuggestion(1, nil, 0.5, nil))
		_, ok := decideSplit(ss, 1.0, 1e-7, 0.05, 100)
		assert.False(t, ok)
	})
	t.Run("tiny bound forces a tie split", func(t *testing.T) {
		ss := sorted(split.NewSuggestion(0, nil, 0.505, nil), split.NewSuggestion(1, nil, 0.5, nil))
		best, ok := decideSplit(ss, 1.0, 1e-7, 0.05, 200000)
		require.True(t, ok)
		assert.Equal(t, 0, best.Feature)
	})
	t.Run("single candidate wins outright", func(t *testing.T) {
		best, ok := decideSplit([]*split.Suggestion{split.NoSplit(0)}, 1.0, 1e-7, 0.05, 10)
		require.True(t, ok)
		assert.Equal(t, split.DecideNone, best.Decision)
	})
	t.Run("no candidates", func(t *testing.T) {
		_, ok := decideSplit(nil, 1.0, 1e-7, 0.05, 10)
		assert.False(t, ok)
	})
}

func TestSpawnMirrorsStructureWithoutStatistics(t *testing.T) {
	m := trainSplitModel(t)
	partial := m.Spawn()
	assert.Same(t, m.Config(), partial.Config())
	assert.Equal(t, 0.0, partial.TotalWeight())
	assert.Equal(t, 1, partial.DecisionNodes())
	assert.Equal(t, 2, partial.ActiveLeaves())

	// Examples folded into the partial route to the same leaves they
	// would reach in the canonical model, without touching it.
	partial.Update(feature.NewExample([]float64{1, 0}, 1))
	assert.Equal(t, []float64{0, 1}, partial.Root().Children[1].Dist)
	assert.Equal(t, []float64{0, 0}, partial.Root().Children[0].Dist)
	assert.InDelta(t, 100, m.TotalWeight(), 1e-9)
}

func TestSpawnFromEmptyModel(t *testing.T) {
	m, err := New(signalNoiseConfig())
	require.NoError(t, err)
	partial := m.Spawn()
	assert.Equal(t, 0, partial.DecisionNodes())
	assert.Equal(t, 1, partial.ActiveLeaves())
}

func TestCloneIsIndependent(t *testing.T) {
	m := trainSplitModel(t)
	c := m.Clone()
	assert.InDelta(t, m.TotalWeight(), c.TotalWeight(), 1e-9)
	assert.Equal(t, m.DecisionNodes(), c.DecisionNodes())

	for _, e := range signalExamples(50) {
		m.Update(e)
	}
	assert.InDelta(t, 100, c.TotalWeight(), 1e-9)
	assert.InDelta(t, 150, m.TotalWeight(), 1e-9)
}

func TestDescription(t *testing.T) {
	m := trainSplitModel(t)
	desc := m.Description()
	assert.Contains(t, desc, "1 decision nodes")
	assert.Contains(t, desc, "signal")
}
