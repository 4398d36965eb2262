package split

import "sort"

// Decision enumerates the possible outcomes a Suggestion proposes for
// a leaf: keep it as it is, or replace it with a split node.
type Decision int

const (
	// DecideNone is the sentinel outcome of not splitting at all.
	DecideNone Decision = iota
	// DecideSplit proposes replacing the leaf with the suggestion's Test.
	DecideSplit
)

/*
Suggestion represents a candidate outcome of a split evaluation on a
leaf: either a concrete split on one feature, with the decision test
to apply and the class distributions the test would induce on each
branch, or the sentinel option of not splitting. Suggestions are
ordered by merit.
*/
type Suggestion struct {
	Decision Decision
	// Feature is the index of the feature the suggestion splits on.
	// It is meaningless when Decision is DecideNone.
	Feature int
	Test    Test
	Merit   float64
	// Post holds the class distribution predicted for each branch
	// of the test.
	Post [][]float64
}

/*
NewSuggestion returns a suggestion to split on the feature with the
given index using the given test, with the given merit and predicted
per-branch class distributions.
*/
func NewSuggestion(featureIndex int, test Test, merit float64, post [][]float64) *Suggestion {
	return &Suggestion{
		Decision: DecideSplit,
		Feature:  featureIndex,
		Test:     test,
		Merit:    merit,
		Post:     post,
	}
}

/*
NoSplit returns the sentinel suggestion of not splitting, with the
given merit.
*/
func NoSplit(merit float64) *Suggestion {
	return &Suggestion{Decision: DecideNone, Feature: -1, Merit: merit}
}

/*
SortByMerit sorts the given suggestions ascending by merit, so the
best suggestion ends up last. Merit ties are resolved so that the
no-split sentinel loses to any concrete split, and concrete splits
with a lower feature index win, keeping the order deterministic.
*/
func SortByMerit(suggestions []*Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		si, sj := suggestions[i], suggestions[j]
		if si.Merit != sj.Merit {
			return si.Merit < sj.Merit
		}
		if (si.Decision == DecideNone) != (sj.Decision == DecideNone) {
			return si.Decision == DecideNone
		}
		return si.Feature > sj.Feature
	})
}
