package tree

import (
	"gonum.org/v1/gonum/floats"

	"github.com/ty01csbaidu/streamDM/feature"
	"github.com/ty01csbaidu/streamDM/observer"
	"github.com/ty01csbaidu/streamDM/split"
)

// NodeKind tags the variant of a tree node.
type NodeKind int

const (
	// KindActive marks a learning leaf that accumulates feature
	// observer statistics and is eligible for splitting.
	KindActive NodeKind = iota
	// KindInactive marks a frozen leaf that keeps only its class
	// distribution and never learns or splits again.
	KindInactive
	// KindSplit marks an internal node holding a decision test.
	KindSplit
)

/*
Node is a vertex of a hoeffding tree, a tagged variant covering both
internal split nodes and the learning leaf flavors. Which fields are
meaningful depends on Kind:

  - every node carries Dist, the class distribution accumulated at a
    leaf or snapshotted at split creation time for split nodes;
  - split nodes carry Test and Children, with nil child slots pending
    growth;
  - active leaves carry Observers, the weight accumulated since the
    last split attempt, and, for adaptive naive-Bayes leaves, the
    running majority/naive-Bayes accuracy counters.
*/
type Node struct {
	Kind NodeKind
	Dist []float64

	Test     split.Test
	Children []*Node

	Observers   []observer.Observer
	AddOnWeight float64

	MCCorrect float64
	NBCorrect float64
}

// newLeaf returns an active leaf seeded with the given class
// distribution (which it takes ownership of) and fresh observers for
// the configured features.
func newLeaf(cfg *Config, dist []float64) *Node {
	if dist == nil {
		dist = make([]float64, cfg.Classes)
	}
	observers := make([]observer.Observer, len(cfg.Features))
	for i, f := range cfg.Features {
		o, err := observer.New(f, i, cfg.Classes)
		if err != nil {
			// validate() vouched for every feature kind already.
			panic(err)
		}
		observers[i] = o
	}
	return &Node{Kind: KindActive, Dist: dist, Observers: observers}
}

// IsLeaf reports whether the node is a learning or frozen leaf.
func (n *Node) IsLeaf() bool {
	return n.Kind != KindSplit
}

// Weight returns the total weight accumulated on the node's class
// distribution.
func (n *Node) Weight() float64 {
	return floats.Sum(n.Dist)
}

/*
IsPure reports whether the node's class distribution has weight in at
most one class, in which case splitting it would be pointless.
*/
func (n *Node) IsPure() bool {
	classes := 0
	for _, w := range n.Dist {
		if w > 0 {
			classes++
		}
	}
	return classes <= 1
}

/*
Learn folds one example into an active leaf: the class distribution
grows by the example's weight at its label, every feature observer
sees its (value, class, weight) triple, and the weight accumulated
since the last split attempt grows by the example's weight. Frozen
leaves only grow their class distribution. Adaptive naive-Bayes
leaves first score both voting strategies against the example's label
so prediction can later side with the historically better one.
*/
func (n *Node) Learn(cfg *Config, e *feature.Example) {
	if n.Kind == KindInactive {
		n.Dist[e.Class()] += e.Weight()
		return
	}
	if cfg.LeafStrategy == LeafNBAdaptive && n.Weight() > 0 {
		if maxClass(n.Dist) == e.Class() {
			n.MCCorrect += e.Weight()
		}
		if maxClass(n.naiveBayesVotes(e)) == e.Class() {
			n.NBCorrect += e.Weight()
		}
	}
	n.Dist[e.Class()] += e.Weight()
	for i, o := range n.Observers {
		o.Observe(e.ValueAt(i), e.Class(), e.Weight())
	}
	n.AddOnWeight += e.Weight()
}

/*
ClassVotes returns the vote vector of the leaf for the given example
according to the configured leaf strategy: the raw class distribution
for majority voting and frozen leaves, a naive-Bayes estimate once
the leaf's weight reaches the naive-Bayes threshold, or, for adaptive
leaves, the vote of whichever strategy has been more accurate on the
examples the leaf has seen (majority wins ties).
*/
func (n *Node) ClassVotes(cfg *Config, e *feature.Example) []float64 {
	if n.Kind != KindActive {
		return append([]float64(nil), n.Dist...)
	}
	switch cfg.LeafStrategy {
	case LeafNaiveBayes:
		if n.Weight() >= cfg.NBThreshold {
			if votes := n.naiveBayesVotes(e); floats.Sum(votes) > 0 {
				return votes
			}
		}
	case LeafNBAdaptive:
		if n.NBCorrect > n.MCCorrect && n.Weight() >= cfg.NBThreshold {
			if votes := n.naiveBayesVotes(e); floats.Sum(votes) > 0 {
				return votes
			}
		}
	}
	return append([]float64(nil), n.Dist...)
}

// naiveBayesVotes estimates per-class votes as the class prior times
// the product of the per-feature value likelihoods reported by the
// observers.
func (n *Node) naiveBayesVotes(e *feature.Example) []float64 {
	votes := make([]float64, len(n.Dist))
	total := n.Weight()
	if total == 0 {
		return votes
	}
	for class, w := range n.Dist {
		if w == 0 {
			continue
		}
		vote := w / total
		for i, o := range n.Observers {
			vote *= o.ProbabilityOf(e.ValueAt(i), class)
		}
		votes[class] = vote
	}
	return votes
}

/*
BestSplitSuggestions asks every feature observer of the leaf for its
best split suggestion given the leaf's class distribution and the
configured criterion, appends the sentinel suggestion of not
splitting at all, and returns them all sorted ascending by merit.
*/
func (n *Node) BestSplitSuggestions(cfg *Config) []*split.Suggestion {
	suggestions := []*split.Suggestion{
		split.NoSplit(cfg.Criterion.Merit(n.Dist, [][]float64{n.Dist})),
	}
	for _, o := range n.Observers {
		if s := o.BestSplit(cfg.Criterion, n.Dist, cfg.BinaryOnly); s != nil {
			suggestions = append(suggestions, s)
		}
	}
	split.SortByMerit(suggestions)
	return suggestions
}

// maxClass returns the index of the class with the highest vote,
// breaking ties by the lowest index.
func maxClass(votes []float64) int {
	best := 0
	for class := 1; class < len(votes); class++ {
		if votes[class] > votes[best] {
			best = class
		}
	}
	return best
}
