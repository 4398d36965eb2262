package split

import (
	"fmt"

	"github.com/ty01csbaidu/streamDM/feature"
)

/*
Test represents the decision test of a split node: a mapping from an
example to the index of the branch the example should follow.

Its Branch method returns the branch index for the given example, or
-1 if the example cannot be routed by the test.

Its NumBranches method returns the number of branches the test
partitions examples into.
*/
type Test interface {
	Branch(e *feature.Example) int
	NumBranches() int
	fmt.Stringer
}

/*
NominalMultiwayTest is a Test on a nominal feature with one branch per
available feature value.
*/
type NominalMultiwayTest struct {
	Feature string
	Index   int
	Arity   int
}

/*
NominalBinaryTest is a two-way Test on a nominal feature: examples
whose value index equals Value follow branch 0, the rest branch 1.
*/
type NominalBinaryTest struct {
	Feature string
	Index   int
	Value   float64
}

/*
NumericBinaryTest is a two-way Test on a numeric feature: examples
with a value below Threshold follow branch 0, the rest branch 1.
*/
type NumericBinaryTest struct {
	Feature   string
	Index     int
	Threshold float64
}

// Branch returns the value index of the example's nominal feature
// value, or -1 when it falls outside the feature's cardinality.
func (t *NominalMultiwayTest) Branch(e *feature.Example) int {
	v := int(e.ValueAt(t.Index))
	if v < 0 || v >= t.Arity {
		return -1
	}
	return v
}

// NumBranches returns the cardinality of the tested feature.
func (t *NominalMultiwayTest) NumBranches() int {
	return t.Arity
}

func (t *NominalMultiwayTest) String() string {
	return fmt.Sprintf("%s = ?", t.Feature)
}

// Branch returns 0 when the example's value equals the tested value
// and 1 otherwise.
func (t *NominalBinaryTest) Branch(e *feature.Example) int {
	if e.ValueAt(t.Index) == t.Value {
		return 0
	}
	return 1
}

// NumBranches returns 2.
func (t *NominalBinaryTest) NumBranches() int {
	return 2
}

func (t *NominalBinaryTest) String() string {
	return fmt.Sprintf("%s == %v", t.Feature, t.Value)
}

// Branch returns 0 when the example's value is below the threshold
// and 1 otherwise.
func (t *NumericBinaryTest) Branch(e *feature.Example) int {
	if e.ValueAt(t.Index) < t.Threshold {
		return 0
	}
	return 1
}

// NumBranches returns 2.
func (t *NumericBinaryTest) NumBranches() int {
	return 2
}

func (t *NumericBinaryTest) String() string {
	return fmt.Sprintf("%s < %g", t.Feature, t.Threshold)
}
