package split

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

/*
Criterion represents a pluggable strategy to score candidate splits.

Its Merit method takes the class distribution of a leaf before
splitting and the class distributions the split would induce on each
branch, and returns a scalar merit: the higher, the better the split.

Its Range method returns the range of merit values for the given
pre-split distribution, the R term of the Hoeffding bound.
*/
type Criterion interface {
	Merit(pre []float64, post [][]float64) float64
	Range(pre []float64) float64
}

/*
InfoGain is a Criterion that scores a split by the reduction of
entropy from the pre-split class distribution to the weighted
post-split branch distributions.

MinBranchFraction guards against splits that route nearly all weight
to a single branch: if fewer than two branches hold at least that
fraction of the total weight, the split is scored -Inf.
*/
type InfoGain struct {
	MinBranchFraction float64
}

/*
GiniSplit is a Criterion that scores a split by the weighted Gini
impurity of the post-split branch distributions, complemented so
higher is better.
*/
type GiniSplit struct{}

// Merit returns the information gain of the split described by the
// given pre and post distributions, or -Inf if the split fails the
// minimum branch fraction check.
func (ig InfoGain) Merit(pre []float64, post [][]float64) float64 {
	total := 0.0
	weights := make([]float64, len(post))
	for i, branch := range post {
		weights[i] = floats.Sum(branch)
		total += weights[i]
	}
	if total == 0 {
		return 0
	}
	populated := 0
	for _, w := range weights {
		if w/total > ig.MinBranchFraction {
			populated++
		}
	}
	if populated < 2 && len(post) > 1 {
		return math.Inf(-1)
	}
	postEntropy := 0.0
	for i, branch := range post {
		if weights[i] > 0 {
			postEntropy += weights[i] / total * entropy(branch, weights[i])
		}
	}
	return entropy(pre, floats.Sum(pre)) - postEntropy
}

/*
Range returns the merit range for the given distribution:
log2 of the number of classes with any weight, and at least log2(2)=1.
*/
func (ig InfoGain) Range(pre []float64) float64 {
	classes := 0
	for _, w := range pre {
		if w > 0 {
			classes++
		}
	}
	if classes < 2 {
		classes = 2
	}
	return math.Log2(float64(classes))
}

// Merit returns one minus the weighted Gini impurity of the post
// distributions.
func (gs GiniSplit) Merit(pre []float64, post [][]float64) float64 {
	total := 0.0
	for _, branch := range post {
		total += floats.Sum(branch)
	}
	if total == 0 {
		return 0
	}
	impurity := 0.0
	for _, branch := range post {
		w := floats.Sum(branch)
		if w > 0 {
			impurity += w / total * gini(branch, w)
		}
	}
	return 1.0 - impurity
}

// Range returns 1.0, the range of the complemented Gini impurity.
func (gs GiniSplit) Range(pre []float64) float64 {
	return 1.0
}

/*
Bound returns the Hoeffding bound for the given merit range, split
confidence and accumulated weight:

	ε = sqrt( R² · ln(1/δ) / (2·W) )

With probability at least 1-δ, the true merit difference lies within ε
of the one estimated from weight W of observations. Bound returns +Inf
when the weight is not positive, so callers defer the decision until
data has been seen.
*/
func Bound(rang, confidence, weight float64) float64 {
	if weight <= 0 {
		return math.Inf(1)
	}
	return math.Sqrt(rang * rang * math.Log(1/confidence) / (2 * weight))
}

// entropy returns the entropy, in bits, of dist given its total weight.
func entropy(dist []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	probs := make([]float64, 0, len(dist))
	for _, w := range dist {
		if w > 0 {
			probs = append(probs, w/total)
		}
	}
	return stat.Entropy(probs) / math.Ln2
}

// gini returns the Gini impurity of dist given its total weight.
func gini(dist []float64, total float64) float64 {
	g := 1.0
	for _, w := range dist {
		p := w / total
		g -= p * p
	}
	return g
}
