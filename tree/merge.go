package tree

import (
	"gonum.org/v1/gonum/floats"

	"github.com/ty01csbaidu/streamDM/split"
)

/*
Merge combines the statistics of another model, built from a disjoint
portion of the stream, into this one, and returns the receiver. The
donor model is consumed: its nodes may be adopted into the receiver
and it must not be used afterwards. Merge must be invoked with
exclusive access to the receiver, it is the sole synchronization
point of parallel training.

Same-shaped subtrees combine class distributions and observer state
additively. When the two sides disagree on structure the split side
wins and the leaf side's class distribution is folded down the
winning subtree, routing each class's weight proportionally to the
per-class weight already accumulated below each branch; per-feature
observer detail of the folded leaf cannot be attributed to branches
without the underlying examples and is dropped. Either way no example
weight is lost or double-counted.

When trySplit is set, the leaf on the path of the most recently
folded example is evaluated for a split exactly once after the
structural merge.

Merge returns ErrIncompatibleModels when the two models disagree on
class count or feature declarations.
*/
func (m *Model) Merge(other *Model, trySplit bool) (*Model, error) {
	if other == nil {
		return m, nil
	}
	if !m.cfg.compatibleWith(other.cfg) {
		return nil, ErrIncompatibleModels
	}
	if other.root != nil {
		if m.root == nil {
			m.root = other.root
		} else if err := m.mergeNodes(other.root); err != nil {
			return nil, err
		}
		m.recount()
	}
	if m.lastExample == nil {
		m.lastExample = other.lastExample
	}
	if trySplit && m.lastExample != nil && m.root != nil {
		leaf, parent, branch := m.filterToLeaf(m.lastExample)
		if leaf == nil {
			leaf = newLeaf(m.cfg, nil)
			parent.Children[branch] = leaf
			m.activeLeaves++
		}
		m.attemptSplit(leaf, parent, branch)
	}
	return m, nil
}

// mergeItem pairs a child slot of the receiving tree with the donor
// subtree to merge into it.
type mergeItem struct {
	slot **Node
	src  *Node
}

// mergeNodes merges the donor subtree rooted at src into the
// receiver's tree with an explicit work stack, so deep trees cannot
// exhaust the goroutine stack and slots can be rewritten in place.
func (m *Model) mergeNodes(src *Node) error {
	stack := []mergeItem{{&m.root, src}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.src == nil {
			continue
		}
		dst := *it.slot
		if dst == nil {
			*it.slot = it.src
			continue
		}
		switch {
		case dst.Kind == KindSplit && it.src.Kind == KindSplit && testsEqual(dst.Test, it.src.Test):
			floats.Add(dst.Dist, it.src.Dist)
			for i := range it.src.Children {
				stack = append(stack, mergeItem{&dst.Children[i], it.src.Children[i]})
			}
		case dst.Kind == KindSplit && it.src.Kind == KindSplit:
			// Conflicting tests: the receiver keeps its structure and
			// absorbs the donor's leaf statistics.
			for _, leaf := range leavesOf(it.src) {
				m.foldDist(dst, leaf.Dist)
			}
		case dst.Kind == KindSplit:
			m.foldDist(dst, it.src.Dist)
		case it.src.Kind == KindSplit:
			// The donor grew structure the receiver lacks: adopt it,
			// then fold the receiver's leaf statistics into it.
			*it.slot = it.src
			m.foldDist(it.src, dst.Dist)
		default:
			if err := mergeLeaves(dst, it.src); err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeLeaves combines two leaves slot-for-slot. The receiving leaf
// keeps its kind: a frozen receiver stays frozen, an active receiver
// absorbs observer state when the donor still carries it.
func mergeLeaves(dst, src *Node) error {
	floats.Add(dst.Dist, src.Dist)
	if dst.Kind == KindActive {
		dst.AddOnWeight += src.AddOnWeight
		dst.MCCorrect += src.MCCorrect
		dst.NBCorrect += src.NBCorrect
		if src.Observers != nil {
			for i, o := range dst.Observers {
				if err := o.Merge(src.Observers[i]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

/*
foldDist distributes a class distribution down the subtree rooted at
n until it lands on leaves, routing each class's weight across the
children of a split node proportionally to the per-class leaf weight
already accumulated below each of them. Classes with no weight
anywhere below land on the first branch. Weight is conserved exactly.
*/
func (m *Model) foldDist(n *Node, dist []float64) {
	type foldItem struct {
		node *Node
		dist []float64
	}
	if floats.Sum(dist) == 0 {
		return
	}
	stack := []foldItem{{n, append([]float64(nil), dist...)}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.node.IsLeaf() {
			floats.Add(it.node.Dist, it.dist)
			if it.node.Kind == KindActive {
				it.node.AddOnWeight += floats.Sum(it.dist)
			}
			continue
		}
		shares := make([][]float64, len(it.node.Children))
		for class, w := range it.dist {
			if w == 0 {
				continue
			}
			classTotal := 0.0
			belowClass := make([]float64, len(it.node.Children))
			for i, child := range it.node.Children {
				belowClass[i] = leafClassWeight(child, class)
				classTotal += belowClass[i]
			}
			if classTotal == 0 {
				if shares[0] == nil {
					shares[0] = make([]float64, len(it.dist))
				}
				shares[0][class] += w
				continue
			}
			for i := range it.node.Children {
				if belowClass[i] == 0 {
					continue
				}
				if shares[i] == nil {
					shares[i] = make([]float64, len(it.dist))
				}
				shares[i][class] += w * belowClass[i] / classTotal
			}
		}
		for i, share := range shares {
			if share == nil {
				continue
			}
			if it.node.Children[i] == nil {
				it.node.Children[i] = newLeaf(m.cfg, nil)
			}
			stack = append(stack, foldItem{it.node.Children[i], share})
		}
	}
}

// leafClassWeight returns the weight of the given class accumulated
// on the leaves of the subtree rooted at n.
func leafClassWeight(n *Node, class int) float64 {
	if n == nil {
		return 0
	}
	var total float64
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == nil {
			continue
		}
		if cur.IsLeaf() {
			total += cur.Dist[class]
			continue
		}
		stack = append(stack, cur.Children...)
	}
	return total
}

// leavesOf returns the leaves of the subtree rooted at n.
func leavesOf(n *Node) []*Node {
	var leaves []*Node
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == nil {
			continue
		}
		if cur.IsLeaf() {
			leaves = append(leaves, cur)
			continue
		}
		stack = append(stack, cur.Children...)
	}
	return leaves
}

// testsEqual reports whether two decision tests route examples
// identically. Unknown test implementations compare unequal, which
// degrades to the fold policy rather than corrupting branches.
func testsEqual(a, b split.Test) bool {
	switch a := a.(type) {
	case *split.NominalMultiwayTest:
		b, ok := b.(*split.NominalMultiwayTest)
		return ok && *a == *b
	case *split.NominalBinaryTest:
		b, ok := b.(*split.NominalBinaryTest)
		return ok && *a == *b
	case *split.NumericBinaryTest:
		b, ok := b.(*split.NumericBinaryTest)
		return ok && *a == *b
	}
	return false
}
