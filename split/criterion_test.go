package split

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBound(t *testing.T) {
	t.Run("matches the hoeffding formula", func(t *testing.T) {
		eps := Bound(1.0, 0.05, 100)
		require.InDelta(t, math.Sqrt(math.Log(20)/200), eps, 1e-12)
	})
	t.Run("shrinks as weight grows", func(t *testing.T) {
		assert.Greater(t, Bound(1.0, 1e-7, 100), Bound(1.0, 1e-7, 1000))
		assert.Greater(t, Bound(1.0, 1e-7, 1000), Bound(1.0, 1e-7, 100000))
	})
	t.Run("grows with the merit range", func(t *testing.T) {
		assert.Greater(t, Bound(2.0, 1e-7, 100), Bound(1.0, 1e-7, 100))
	})
	t.Run("is infinite without weight", func(t *testing.T) {
		assert.True(t, math.IsInf(Bound(1.0, 1e-7, 0), 1))
		assert.True(t, math.IsInf(Bound(1.0, 1e-7, -5), 1))
	})
}

func TestInfoGainMerit(t *testing.T) {
	ig := InfoGain{MinBranchFraction: 0.01}
	pre := []float64{10, 10}
	t.Run("perfect split gains one bit", func(t *testing.T) {
		post := [][]float64{{10, 0}, {0, 10}}
		assert.InDelta(t, 1.0, ig.Merit(pre, post), 1e-12)
	})
	t.Run("uninformative split gains nothing", func(t *testing.T) {
		post := [][]float64{{5, 5}, {5, 5}}
		assert.InDelta(t, 0.0, ig.Merit(pre, post), 1e-12)
	})
	t.Run("single branch split scores minus infinity", func(t *testing.T) {
		ig := InfoGain{MinBranchFraction: 0.1}
		post := [][]float64{{10, 10}, {0.1, 0}}
		assert.True(t, math.IsInf(ig.Merit(pre, post), -1))
	})
	t.Run("no-split distribution scores zero", func(t *testing.T) {
		assert.InDelta(t, 0.0, ig.Merit(pre, [][]float64{pre}), 1e-12)
	})
	t.Run("empty distributions score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, ig.Merit([]float64{0, 0}, [][]float64{{0, 0}, {0, 0}}))
	})
}

func TestInfoGainRange(t *testing.T) {
	ig := InfoGain{}
	assert.InDelta(t, 1.0, ig.Range([]float64{5, 5}), 1e-12)
	assert.InDelta(t, math.Log2(3), ig.Range([]float64{5, 5, 5}), 1e-12)
	// Degenerate distributions still get the two-class range.
	assert.InDelta(t, 1.0, ig.Range([]float64{5, 0}), 1e-12)
	assert.InDelta(t, 1.0, ig.Range([]float64{0, 0}), 1e-12)
}

func TestGiniSplit(t *testing.T) {
	gs := GiniSplit{}
	pre := []float64{10, 10}
	t.Run("pure branches score one", func(t *testing.T) {
		post := [][]float64{{10, 0}, {0, 10}}
		assert.InDelta(t, 1.0, gs.Merit(pre, post), 1e-12)
	})
	t.Run("balanced branches score one half", func(t *testing.T) {
		post := [][]float64{{5, 5}, {5, 5}}
		assert.InDelta(t, 0.5, gs.Merit(pre, post), 1e-12)
	})
	t.Run("range is one", func(t *testing.T) {
		assert.Equal(t, 1.0, gs.Range(pre))
	})
}

func TestSortByMerit(t *testing.T) {
	f0 := NewSuggestion(0, nil, 0.5, nil)
	f1 := NewSuggestion(1, nil, 0.5, nil)
	f2 := NewSuggestion(2, nil, 0.9, nil)
	sentinel := NoSplit(0.5)
	suggestions := []*Suggestion{f0, sentinel, f1, f2}
	SortByMerit(suggestions)
	// Ascending by merit; on ties the sentinel loses and the lower
	// feature index wins, so the best candidate is always last.
	require.Equal(t, []*Suggestion{sentinel, f1, f0, f2}, suggestions)
}

func TestNoSplit(t *testing.T) {
	s := NoSplit(0.25)
	assert.Equal(t, DecideNone, s.Decision)
	assert.Equal(t, -1, s.Feature)
	assert.Equal(t, 0.25, s.Merit)
	assert.Nil(t, s.Test)
}
