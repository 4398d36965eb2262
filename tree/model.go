/*
Package tree implements an incremental hoeffding tree classifier: a
decision tree induced from an unbounded stream of labeled examples,
where leaves accumulate sufficient statistics and are replaced by
split nodes once a concentration bound makes the best split
statistically safe to take.
*/
package tree

import (
	"fmt"
	"strings"

	"github.com/ty01csbaidu/streamDM/feature"
	"github.com/ty01csbaidu/streamDM/observer"
	"github.com/ty01csbaidu/streamDM/split"
)

// ModelError represents an error related with model operations.
type ModelError string

func (me ModelError) Error() string {
	return string(me)
}

/*
ErrIncompatibleModels is the error returned by Merge when the two
models disagree on class count or feature declarations, in which case
combining their statistics would corrupt both.
*/
const ErrIncompatibleModels = ModelError("cannot merge models with incompatible configurations")

/*
Model is a hoeffding tree: the root of the node structure, the
configuration it grows under and node-count telemetry. A model is
mutated in place by Update and Merge and must not be shared between
goroutines without external synchronization; parallel training spawns
one disposable partial model per partition instead (see Spawn).
*/
type Model struct {
	cfg  *Config
	root *Node
	// lastExample remembers the most recently folded example so a
	// merge can re-evaluate the leaf on its path for splitting.
	lastExample *feature.Example

	activeLeaves   int
	inactiveLeaves int
	decisionNodes  int
}

/*
New takes a configuration, validates it and returns a fresh model
with a single empty active leaf as its root, or an error describing
why the configuration cannot be run with.
*/
func New(cfg *Config) (*Model, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	m := &Model{cfg: cfg}
	m.root = newLeaf(cfg, nil)
	m.activeLeaves = 1
	return m, nil
}

// Config returns the model's configuration. It must not be mutated.
func (m *Model) Config() *Config {
	return m.cfg
}

/*
Spawn returns a fresh partial model for one partition of the stream:
it shares the immutable configuration with the receiver and mirrors
the receiver's split structure with every statistic zeroed. Examples
folded into the partial therefore route to the same leaves they would
reach in the receiver, and Merge combines the two sides leaf for leaf
without losing observer detail. Partial models are the unit of
parallel training: one per partition, folded sequentially with Update
and combined back into the canonical model with Merge.
*/
func (m *Model) Spawn() *Model {
	p := &Model{cfg: m.cfg}
	p.root = spawnNode(m.cfg, m.root)
	p.recount()
	return p
}

// spawnNode mirrors a subtree for a partial model: split nodes keep
// their decision test over a zeroed snapshot, leaves become fresh
// empty leaves of the same kind and empty child slots stay empty.
func spawnNode(cfg *Config, n *Node) *Node {
	if n == nil || n.Kind == KindActive {
		return newLeaf(cfg, nil)
	}
	if n.Kind == KindInactive {
		return &Node{Kind: KindInactive, Dist: make([]float64, cfg.Classes)}
	}
	s := &Node{
		Kind:     KindSplit,
		Dist:     make([]float64, cfg.Classes),
		Test:     n.Test,
		Children: make([]*Node, len(n.Children)),
	}
	for i, child := range n.Children {
		if child != nil {
			s.Children[i] = spawnNode(cfg, child)
		}
	}
	return s
}

/*
Clone returns a deep copy of the model: configuration shared, every
node and observer copied. The clone can be read or folded into
independently of the receiver, closing the shared-subtree hazard of
shallow snapshots.
*/
func (m *Model) Clone() *Model {
	c := &Model{
		cfg:            m.cfg,
		lastExample:    m.lastExample,
		activeLeaves:   m.activeLeaves,
		inactiveLeaves: m.inactiveLeaves,
		decisionNodes:  m.decisionNodes,
	}
	c.root = copyNode(m.root)
	return c
}

func copyNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Kind:        n.Kind,
		Dist:        append([]float64(nil), n.Dist...),
		Test:        n.Test,
		AddOnWeight: n.AddOnWeight,
		MCCorrect:   n.MCCorrect,
		NBCorrect:   n.NBCorrect,
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = copyNode(child)
		}
	}
	if n.Observers != nil {
		c.Observers = make([]observer.Observer, len(n.Observers))
		for i, o := range n.Observers {
			c.Observers[i] = o.Copy()
		}
	}
	return c
}

/*
Update folds one example into the model: the example is routed to a
leaf, a fresh leaf being synthesized if the routed child slot is
empty, and the leaf learns from it. Update never attempts a split by
itself; split decisions happen in Merge so observing and deciding
stay decoupled. It returns the model to allow folding chains.
*/
func (m *Model) Update(e *feature.Example) *Model {
	if m.root == nil {
		m.root = newLeaf(m.cfg, nil)
		m.activeLeaves++
	}
	leaf, parent, branch := m.filterToLeaf(e)
	if leaf == nil {
		leaf = newLeaf(m.cfg, nil)
		parent.Children[branch] = leaf
		m.activeLeaves++
	}
	if leaf.IsLeaf() {
		leaf.Learn(m.cfg, e)
	}
	m.lastExample = e
	return m
}

/*
filterToLeaf routes the example from the root through the decision
tests of split nodes until it reaches a leaf, an empty child slot or
a split node that cannot route the example. It returns the node
reached (nil for an empty slot), its parent (nil when the node is the
root) and the branch index followed from the parent (-1 for the
root).
*/
func (m *Model) filterToLeaf(e *feature.Example) (node, parent *Node, branch int) {
	node, parent, branch = m.root, nil, -1
	for node != nil && node.Kind == KindSplit {
		b := node.Test.Branch(e)
		if b < 0 || b >= len(node.Children) {
			// Unroutable example: the split node itself is the
			// deepest thing we can say about it.
			return node, parent, branch
		}
		parent, branch = node, b
		node = node.Children[b]
	}
	return node, parent, branch
}

/*
attemptSplit runs the split-decision protocol on an active leaf: it
bails while growth is disallowed, the leaf is pure or the weight
accumulated since the last attempt is below the grace period;
otherwise it gathers the split suggestions, consumes the attempt and
applies the Hoeffding test. The leaf is replaced by a split node when
a concrete split wins, and deactivated when the no-split sentinel
beats a concrete competitor. A leaf whose observers have nothing to
propose yet keeps learning: the sentinel alone decides nothing.
*/
func (m *Model) attemptSplit(leaf, parent *Node, branch int) {
	if !m.cfg.GrowthAllowed || leaf.Kind != KindActive {
		return
	}
	if leaf.IsPure() || leaf.AddOnWeight < m.cfg.GracePeriod {
		return
	}
	suggestions := leaf.BestSplitSuggestions(m.cfg)
	leaf.AddOnWeight = 0
	if len(suggestions) < 2 {
		return
	}
	best, ok := decideSplit(suggestions, m.cfg.Criterion.Range(leaf.Dist), m.cfg.SplitConfidence, m.cfg.TieThreshold, leaf.Weight())
	if !ok {
		return
	}
	switch best.Decision {
	case split.DecideNone:
		m.deactivate(leaf)
	case split.DecideSplit:
		m.executeSplit(leaf, parent, branch, best)
	}
}

/*
decideSplit applies the Hoeffding test to merit-sorted suggestions:
with fewer than two candidates the single candidate wins outright;
otherwise the best candidate wins if its merit advantage over the
second best exceeds the Hoeffding bound ε for the given range,
confidence and accumulated weight, or if ε has shrunk below the tie
threshold and waiting longer cannot be justified.
*/
func decideSplit(suggestions []*split.Suggestion, meritRange, confidence, tieThreshold, weight float64) (*split.Suggestion, bool) {
	if len(suggestions) == 0 {
		return nil, false
	}
	best := suggestions[len(suggestions)-1]
	if len(suggestions) < 2 {
		return best, true
	}
	secondBest := suggestions[len(suggestions)-2]
	eps := split.Bound(meritRange, confidence, weight)
	if eps < tieThreshold || best.Merit-secondBest.Merit > eps {
		return best, true
	}
	return nil, false
}

// deactivate freezes a leaf judged not worth keeping full statistics
// for: it keeps the class distribution and drops the observers.
func (m *Model) deactivate(leaf *Node) {
	leaf.Kind = KindInactive
	leaf.Observers = nil
	leaf.AddOnWeight = 0
	m.activeLeaves--
	m.inactiveLeaves++
}

/*
executeSplit replaces a leaf with a split node holding the winning
decision test and the leaf's class distribution as snapshot, and
seeds one fresh active leaf per branch with the class distribution
the suggestion predicts for it.
*/
func (m *Model) executeSplit(leaf, parent *Node, branch int, best *split.Suggestion) {
	children := make([]*Node, best.Test.NumBranches())
	for i := range children {
		var dist []float64
		if i < len(best.Post) {
			dist = append([]float64(nil), best.Post[i]...)
		}
		children[i] = newLeaf(m.cfg, dist)
	}
	splitNode := &Node{
		Kind:     KindSplit,
		Dist:     append([]float64(nil), leaf.Dist...),
		Test:     best.Test,
		Children: children,
	}
	if parent == nil {
		m.root = splitNode
	} else {
		parent.Children[branch] = splitNode
	}
	m.decisionNodes++
	m.activeLeaves += len(children) - 1
}

/*
Predict routes the example to a leaf and returns the class index with
the highest vote, ties broken by the lowest index. When the routed
child slot is empty the nearest ancestor votes with its snapshot
distribution. An empty model deterministically predicts class 0;
callers should treat a never-trained model as such rather than read
meaning into that default.
*/
func (m *Model) Predict(e *feature.Example) int {
	return maxClass(m.Votes(e))
}

/*
Votes returns the vote vector backing Predict: the class votes of the
leaf the example routes to, or of the nearest ancestor when no leaf
exists on the path. An empty model returns a zero vector.
*/
func (m *Model) Votes(e *feature.Example) []float64 {
	if m.root == nil {
		return make([]float64, m.cfg.Classes)
	}
	node, parent, _ := m.filterToLeaf(e)
	if node == nil {
		node = parent
	}
	if node.IsLeaf() {
		return node.ClassVotes(m.cfg, e)
	}
	return append([]float64(nil), node.Dist...)
}

// ActiveLeaves returns the number of active learning leaves.
func (m *Model) ActiveLeaves() int { return m.activeLeaves }

// InactiveLeaves returns the number of deactivated leaves.
func (m *Model) InactiveLeaves() int { return m.inactiveLeaves }

// DecisionNodes returns the number of internal split nodes.
func (m *Model) DecisionNodes() int { return m.decisionNodes }

/*
TotalWeight returns the example weight accumulated on the leaves of
the model. Split-node snapshots are bookkeeping and do not count, so
the value matches the weight of the examples folded in so far and is
conserved by Merge.
*/
func (m *Model) TotalWeight() float64 {
	var total float64
	stack := []*Node{m.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if n.IsLeaf() {
			total += n.Weight()
			continue
		}
		stack = append(stack, n.Children...)
	}
	return total
}

// Root returns the root node of the model. It is exposed for codecs
// and diagnostics; mutating it breaks the model's counters.
func (m *Model) Root() *Node {
	return m.root
}

// SetRoot replaces the model's node structure and recounts the node
// telemetry. It is meant for codecs restoring a persisted model.
func (m *Model) SetRoot(root *Node) {
	m.root = root
	m.recount()
}

// recount rebuilds the node counters from the tree structure.
func (m *Model) recount() {
	m.activeLeaves, m.inactiveLeaves, m.decisionNodes = 0, 0, 0
	stack := []*Node{m.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		switch n.Kind {
		case KindActive:
			m.activeLeaves++
		case KindInactive:
			m.inactiveLeaves++
		case KindSplit:
			m.decisionNodes++
			stack = append(stack, n.Children...)
		}
	}
}

/*
Description returns a human-readable summary of the tree: one line of
telemetry followed by ASCII art of the node structure. It is meant
for diagnostics only.
*/
func (m *Model) Description() string {
	header := fmt.Sprintf("hoeffding tree: %d decision nodes, %d active leaves, %d inactive leaves, weight %g\n",
		m.decisionNodes, m.activeLeaves, m.inactiveLeaves, m.TotalWeight())
	if m.root == nil {
		return header + "(empty)\n"
	}
	return header + m.subtreeString(m.root)
}


func (m *Model) subtreeString(n *Node) string {
	var result string
	switch n.Kind {
	case KindSplit:
		result = fmt.Sprintf("[%v]\n|\n", n.Test)
	case KindActive:
		result = fmt.Sprintf("{ %v }\n", n.Dist)
	case KindInactive:
		result = fmt.Sprintf("{ %v (frozen) }\n", n.Dist)
	}
	for i, child := range n.Children {
		var childString string
		if child == nil {
			childString = "(pending)\n"
		} else {
			childString = m.subtreeString(child)
		}
		for j, line := range strings.Split(childString, "\n") {
			if len(line) == 0 {
				continue
			}
			if j == 0 {
				result = fmt.Sprintf("%s|__%s\n", result, line)
			} else if i == len(n.Children)-1 {
				result = fmt.Sprintf("%s   %s\n", result, line)
			} else {
				result = fmt.Sprintf("%s|  %s\n", result, line)
			}
		}
	}
	return result
}
