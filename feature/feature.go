package feature

import "fmt"

// Kind distinguishes the two sorts of features a stream can carry.
type Kind int

const (
	// KindNominal marks features taking one of a finite set of values.
	KindNominal Kind = iota
	// KindNumeric marks features taking a float64 value.
	KindNumeric
)

/*
Feature represents a property that can be observed on the examples
of a stream.
*/
type Feature interface {
	Name() string
	Kind() Kind
	// Valid takes an encoded value for the feature and returns
	// whether the value is acceptable, with an error describing
	// the reason when it is not.
	Valid(value float64) (bool, error)
}

/*
NominalFeature represents a property that can be observed and that can
only take a value among a finite set. Values are encoded on examples as
the float64 index of the value in the feature's value list, so the
cardinality of the feature is the length of that list.
*/
type NominalFeature struct {
	name   string
	values []string
}

/*
NumericFeature represents a property that can be observed and that can
take any numeric value.
*/
type NumericFeature struct {
	name string
}

/*
NewNominalFeature takes a name string and a slice of available value
strings and returns a nominal feature with the given name and values.
*/
func NewNominalFeature(name string, values []string) *NominalFeature {
	return &NominalFeature{name, values}
}

/*
NewNumericFeature takes a name string and returns a numeric feature
with the given name.
*/
func NewNumericFeature(name string) *NumericFeature {
	return &NumericFeature{name}
}

/*
Name returns a string with the name of the feature
*/
func (nf *NominalFeature) Name() string {
	return nf.name
}

// Kind returns KindNominal.
func (nf *NominalFeature) Kind() Kind {
	return KindNominal
}

/*
Valid receives an encoded value and returns a boolean and an error.
When the value is the index of one of the available values of the
feature, the method returns true and nil. Otherwise it returns false
and an error describing the reason.
*/
func (nf *NominalFeature) Valid(value float64) (bool, error) {
	i := int(value)
	if float64(i) != value || i < 0 || i >= len(nf.values) {
		return false, fmt.Errorf("nominal feature %s expects a value index in [0, %d), got %v", nf.name, len(nf.values), value)
	}
	return true, nil
}

/*
Values returns a string slice with the values available for the feature
*/
func (nf *NominalFeature) Values() []string {
	return nf.values
}

/*
Cardinality returns the number of values available for the feature
*/
func (nf *NominalFeature) Cardinality() int {
	return len(nf.values)
}

/*
ValueIndex returns the encoded index for the given value string,
or -1 if the value is not available for the feature.
*/
func (nf *NominalFeature) ValueIndex(value string) int {
	for i, v := range nf.values {
		if v == value {
			return i
		}
	}
	return -1
}

func (nf *NominalFeature) String() string {
	return nf.name
}

/*
Name returns a string with the name of the feature
*/
func (f *NumericFeature) Name() string {
	return f.name
}

// Kind returns KindNumeric.
func (f *NumericFeature) Kind() Kind {
	return KindNumeric
}

/*
Valid receives an encoded value and returns true and nil: any float64
is an acceptable value for a numeric feature.
*/
func (f *NumericFeature) Valid(value float64) (bool, error) {
	return true, nil
}

func (f *NumericFeature) String() string {
	return f.name
}
