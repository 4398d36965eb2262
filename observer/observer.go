/*
Package observer provides per-feature statistic collectors for the
leaves of a hoeffding tree. An observer accumulates the (feature
value, class, weight) triples a leaf sees, proposes the best split
test available on its feature, and supplies the per-class value
likelihoods naive-Bayes leaves predict with.
*/
package observer

import (
	"fmt"

	"github.com/ty01csbaidu/streamDM/feature"
	"github.com/ty01csbaidu/streamDM/split"
)

/*
Observer represents the accumulated statistics a leaf holds for one
feature.

Its Observe method folds one observed value into the statistics.

Its BestSplit method proposes the best split suggestion available on
the feature given the leaf's current class distribution and a split
criterion, or nil when the feature offers no useful split yet.

Its ProbabilityOf method returns the estimated likelihood of the
given value conditioned on the given class, for naive-Bayes votes.

Its Merge method combines the statistics of another observer of the
same feature, built from a disjoint portion of the stream, into this
one.

Its Copy method returns an independent deep copy of the observer, so
model snapshots never share mutable statistics.
*/
type Observer interface {
	Observe(value float64, class int, weight float64)
	BestSplit(c split.Criterion, pre []float64, binaryOnly bool) *split.Suggestion
	ProbabilityOf(value float64, class int) float64
	Merge(other Observer) error
	Copy() Observer
}

/*
New takes a feature declaration, its index in the example value
vector and the number of classes and returns a fresh observer of the
kind matching the feature: a nominal counting observer for nominal
features and a gaussian approximation observer for numeric ones.
*/
func New(f feature.Feature, index, classes int) (Observer, error) {
	switch f := f.(type) {
	case *feature.NominalFeature:
		return NewNominal(f, index, classes), nil
	case *feature.NumericFeature:
		return NewGaussian(f, index, classes), nil
	}
	return nil, fmt.Errorf("no observer available for feature %s of type %T", f.Name(), f)
}
