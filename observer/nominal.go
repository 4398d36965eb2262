package observer

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ty01csbaidu/streamDM/feature"
	"github.com/ty01csbaidu/streamDM/split"
)

/*
Nominal is an Observer for nominal features. It keeps a value-by-class
weight matrix from which both multiway and equals-vs-rest binary split
suggestions can be derived exactly.
*/
type Nominal struct {
	feature *feature.NominalFeature
	index   int
	// counts[v][c] accumulates the weight of class c examples whose
	// feature value index is v.
	counts [][]float64
}

// NewNominal returns a fresh nominal observer for the given feature
// declaration, feature index and class count.
func NewNominal(f *feature.NominalFeature, index, classes int) *Nominal {
	counts := make([][]float64, f.Cardinality())
	for v := range counts {
		counts[v] = make([]float64, classes)
	}
	return &Nominal{feature: f, index: index, counts: counts}
}

// Observe folds one observed value into the value-by-class matrix.
// Values outside the feature's cardinality are ignored.
func (o *Nominal) Observe(value float64, class int, weight float64) {
	v := int(value)
	if v < 0 || v >= len(o.counts) || class < 0 || class >= len(o.counts[v]) {
		return
	}
	o.counts[v][class] += weight
}

/*
BestSplit returns the best split suggestion available on the feature:
the multiway split with one branch per value, or, when binaryOnly is
set, the best equals-vs-rest split over all observed values. It
returns nil when fewer than two distinct values have been observed,
since a one-valued feature cannot separate anything.
*/
func (o *Nominal) BestSplit(c split.Criterion, pre []float64, binaryOnly bool) *split.Suggestion {
	observed := 0
	for _, dist := range o.counts {
		if floats.Sum(dist) > 0 {
			observed++
		}
	}
	if observed < 2 {
		return nil
	}
	if !binaryOnly {
		post := make([][]float64, len(o.counts))
		for v, dist := range o.counts {
			post[v] = append([]float64(nil), dist...)
		}
		test := &split.NominalMultiwayTest{Feature: o.feature.Name(), Index: o.index, Arity: o.feature.Cardinality()}
		return split.NewSuggestion(o.index, test, c.Merit(pre, post), post)
	}
	var best *split.Suggestion
	for v, dist := range o.counts {
		if floats.Sum(dist) == 0 {
			continue
		}
		rest := make([]float64, len(pre))
		for w, other := range o.counts {
			if w != v {
				floats.Add(rest, other)
			}
		}
		post := [][]float64{append([]float64(nil), dist...), rest}
		merit := c.Merit(pre, post)
		if best == nil || merit > best.Merit {
			test := &split.NominalBinaryTest{Feature: o.feature.Name(), Index: o.index, Value: float64(v)}
			best = split.NewSuggestion(o.index, test, merit, post)
		}
	}
	return best
}

/*
ProbabilityOf returns the Laplace-smoothed likelihood of the given
value index conditioned on the given class.
*/
func (o *Nominal) ProbabilityOf(value float64, class int) float64 {
	v := int(value)
	if v < 0 || v >= len(o.counts) {
		return 0
	}
	classTotal := 0.0
	for _, dist := range o.counts {
		if class < len(dist) {
			classTotal += dist[class]
		}
	}
	return (o.counts[v][class] + 1) / (classTotal + float64(len(o.counts)))
}

// Copy returns an independent deep copy of the observer.
func (o *Nominal) Copy() Observer {
	counts := make([][]float64, len(o.counts))
	for v, dist := range o.counts {
		counts[v] = append([]float64(nil), dist...)
	}
	return &Nominal{feature: o.feature, index: o.index, counts: counts}
}

// Merge adds the value-by-class matrix of another nominal observer of
// the same shape into this one.
func (o *Nominal) Merge(other Observer) error {
	on, ok := other.(*Nominal)
	if !ok {
		return fmt.Errorf("merging observer for feature %s: cannot merge %T into *observer.Nominal", o.feature.Name(), other)
	}
	if len(on.counts) != len(o.counts) {
		return fmt.Errorf("merging observer for feature %s: cardinality mismatch %d != %d", o.feature.Name(), len(on.counts), len(o.counts))
	}
	for v := range o.counts {
		floats.Add(o.counts[v], on.counts[v])
	}
	return nil
}
