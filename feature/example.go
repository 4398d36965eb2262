package feature

import "fmt"

/*
Example represents a labeled record from which to learn: a vector of
encoded feature values, a class label index and an instance weight.
Examples are immutable once constructed.
*/
type Example struct {
	values []float64
	class  int
	weight float64
}

/*
NewExample takes a slice of encoded feature values and a class index
and returns an example with weight 1.
*/
func NewExample(values []float64, class int) *Example {
	return NewWeightedExample(values, class, 1.0)
}

/*
NewWeightedExample takes a slice of encoded feature values, a class
index and an instance weight and returns an example. The value slice
is copied so later mutations of the caller's slice do not leak into
the example.
*/
func NewWeightedExample(values []float64, class int, weight float64) *Example {
	vs := make([]float64, len(values))
	copy(vs, values)
	return &Example{values: vs, class: class, weight: weight}
}

// ValueAt returns the encoded value for the feature at the given index.
func (e *Example) ValueAt(i int) float64 {
	return e.values[i]
}

// NumValues returns the number of feature values on the example.
func (e *Example) NumValues() int {
	return len(e.values)
}

// Class returns the class label index of the example.
func (e *Example) Class() int {
	return e.class
}

// Weight returns the instance weight of the example.
func (e *Example) Weight() float64 {
	return e.weight
}

/*
Validate checks the example against a slice of feature declarations
and a class count, returning an error describing the first mismatch
or invalid value found, if any.
*/
func (e *Example) Validate(features []Feature, classes int) error {
	if len(e.values) != len(features) {
		return fmt.Errorf("example has %d values for %d features", len(e.values), len(features))
	}
	if e.class < 0 || e.class >= classes {
		return fmt.Errorf("example class %d out of range [0, %d)", e.class, classes)
	}
	for i, f := range features {
		if ok, err := f.Valid(e.values[i]); !ok {
			return fmt.Errorf("example value for feature %s: %v", f.Name(), err)
		}
	}
	return nil
}

func (e *Example) String() string {
	return fmt.Sprintf("[%v -> %d (w=%v)]", e.values, e.class, e.weight)
}
