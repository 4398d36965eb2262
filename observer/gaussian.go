package observer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ty01csbaidu/streamDM/feature"
	"github.com/ty01csbaidu/streamDM/split"
)

// Candidate thresholds evaluated between the observed minimum and
// maximum when proposing a numeric split.
const numericSplitPoints = 10

const minSigma = 1e-6

/*
Gaussian is an Observer for numeric features. It approximates the
per-class value distribution with a weighted gaussian (mean and
variance accumulated online) plus the observed value range, and
proposes binary threshold splits evaluated on a grid of candidate
thresholds between the observed minimum and maximum.
*/
type Gaussian struct {
	feature *feature.NumericFeature
	index   int
	classes []gaussianEstimator
}

// gaussianEstimator accumulates weighted mean and variance online.
type gaussianEstimator struct {
	weight float64
	mean   float64
	m2     float64
	min    float64
	max    float64
}

// NewGaussian returns a fresh gaussian observer for the given feature
// declaration, feature index and class count.
func NewGaussian(f *feature.NumericFeature, index, classes int) *Gaussian {
	return &Gaussian{feature: f, index: index, classes: make([]gaussianEstimator, classes)}
}

// Observe folds one observed value into the estimator of its class.
func (o *Gaussian) Observe(value float64, class int, weight float64) {
	if class < 0 || class >= len(o.classes) || weight <= 0 {
		return
	}
	e := &o.classes[class]
	if e.weight == 0 {
		e.min, e.max = value, value
	} else {
		e.min = math.Min(e.min, value)
		e.max = math.Max(e.max, value)
	}
	e.weight += weight
	delta := value - e.mean
	e.mean += delta * weight / e.weight
	e.m2 += weight * delta * (value - e.mean)
}

/*
BestSplit evaluates candidate thresholds on an even grid between the
minimum and maximum value observed over all classes and returns the
best binary threshold suggestion, or nil when all observed values
coincide. The per-branch class distributions are estimated from the
gaussian approximations, so they are predictions rather than exact
counts. The binaryOnly flag is irrelevant here: numeric tests are
always binary.
*/
func (o *Gaussian) BestSplit(c split.Criterion, pre []float64, binaryOnly bool) *split.Suggestion {
	min, max := math.Inf(1), math.Inf(-1)
	for _, e := range o.classes {
		if e.weight > 0 {
			min = math.Min(min, e.min)
			max = math.Max(max, e.max)
		}
	}
	if !(min < max) {
		return nil
	}
	var best *split.Suggestion
	step := (max - min) / (numericSplitPoints + 1)
	for i := 1; i <= numericSplitPoints; i++ {
		threshold := min + float64(i)*step
		post := o.postSplitAt(threshold)
		merit := c.Merit(pre, post)
		if best == nil || merit > best.Merit {
			test := &split.NumericBinaryTest{Feature: o.feature.Name(), Index: o.index, Threshold: threshold}
			best = split.NewSuggestion(o.index, test, merit, post)
		}
	}
	return best
}

// postSplitAt estimates the class distributions a threshold split
// would induce, routing each class's weight via its gaussian CDF.
func (o *Gaussian) postSplitAt(threshold float64) [][]float64 {
	post := [][]float64{make([]float64, len(o.classes)), make([]float64, len(o.classes))}
	for class := range o.classes {
		e := &o.classes[class]
		if e.weight == 0 {
			continue
		}
		below := e.weight * e.cdf(threshold)
		post[0][class] = below
		post[1][class] = e.weight - below
	}
	return post
}

/*
ProbabilityOf returns the gaussian likelihood of the given value
conditioned on the given class, or 0 when the class has not been
observed on this feature.
*/
func (o *Gaussian) ProbabilityOf(value float64, class int) float64 {
	if class < 0 || class >= len(o.classes) {
		return 0
	}
	e := &o.classes[class]
	if e.weight == 0 {
		return 0
	}
	n := distuv.Normal{Mu: e.mean, Sigma: math.Max(e.sigma(), minSigma)}
	return n.Prob(value)
}

// Copy returns an independent deep copy of the observer.
func (o *Gaussian) Copy() Observer {
	return &Gaussian{
		feature: o.feature,
		index:   o.index,
		classes: append([]gaussianEstimator(nil), o.classes...),
	}
}

/*
Merge combines the per-class gaussian estimators of another gaussian
observer into this one using the parallel mean/variance combination,
so the result matches what a single observer would have accumulated
over both portions of the stream.
*/
func (o *Gaussian) Merge(other Observer) error {
	og, ok := other.(*Gaussian)
	if !ok {
		return fmt.Errorf("merging observer for feature %s: cannot merge %T into *observer.Gaussian", o.feature.Name(), other)
	}
	if len(og.classes) != len(o.classes) {
		return fmt.Errorf("merging observer for feature %s: class count mismatch %d != %d", o.feature.Name(), len(og.classes), len(o.classes))
	}
	for class := range o.classes {
		a, b := &o.classes[class], &og.classes[class]
		if b.weight == 0 {
			continue
		}
		if a.weight == 0 {
			*a = *b
			continue
		}
		combined := a.weight + b.weight
		delta := b.mean - a.mean
		a.m2 += b.m2 + delta*delta*a.weight*b.weight/combined
		a.mean += delta * b.weight / combined
		a.weight = combined
		a.min = math.Min(a.min, b.min)
		a.max = math.Max(a.max, b.max)
	}
	return nil
}

func (e *gaussianEstimator) variance() float64 {
	if e.weight <= 1 {
		return 0
	}
	return e.m2 / (e.weight - 1)
}

func (e *gaussianEstimator) sigma() float64 {
	return math.Sqrt(e.variance())
}

// cdf returns the fraction of the class's weight estimated below the
// given threshold. Classes with zero variance degenerate to a step
// function at the mean.
func (e *gaussianEstimator) cdf(threshold float64) float64 {
	sigma := e.sigma()
	if sigma <= 0 {
		if e.mean < threshold {
			return 1
		}
		return 0
	}
	return distuv.Normal{Mu: e.mean, Sigma: sigma}.CDF(threshold)
}
