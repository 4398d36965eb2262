package tree

import (
	"fmt"

	"github.com/ty01csbaidu/streamDM/feature"
	"github.com/ty01csbaidu/streamDM/split"
)

// LeafStrategy selects the learning and prediction behavior of the
// active leaves of a model.
type LeafStrategy int

const (
	// LeafMajority votes with the raw class distribution.
	LeafMajority LeafStrategy = iota
	// LeafNaiveBayes votes with a naive-Bayes estimate over the leaf's
	// feature observers once the leaf has seen enough weight.
	LeafNaiveBayes
	// LeafNBAdaptive tracks the historical accuracy of majority and
	// naive-Bayes votes on the leaf and predicts with whichever has
	// been more accurate.
	LeafNBAdaptive
)

/*
ParseLeafStrategy takes a leaf strategy name and returns the
corresponding LeafStrategy or an error if the name is unknown.
Valid names are "majority", "nb" and "nb-adaptive".
*/
func ParseLeafStrategy(name string) (LeafStrategy, error) {
	switch name {
	case "majority":
		return LeafMajority, nil
	case "nb":
		return LeafNaiveBayes, nil
	case "nb-adaptive":
		return LeafNBAdaptive, nil
	}
	return 0, fmt.Errorf("unknown leaf strategy %q", name)
}

func (ls LeafStrategy) String() string {
	switch ls {
	case LeafMajority:
		return "majority"
	case LeafNaiveBayes:
		return "nb"
	case LeafNBAdaptive:
		return "nb-adaptive"
	}
	return fmt.Sprintf("LeafStrategy(%d)", int(ls))
}

/*
Config holds the configuration of a hoeffding tree model. It is
immutable once a model has been created with it and is shared between
a canonical model and the partial models spawned from it.
*/
type Config struct {
	// Classes is the number of classes the model predicts among,
	// the size of every class distribution vector.
	Classes int
	// Features declares the feature each example value position
	// corresponds to.
	Features []feature.Feature
	// Criterion scores candidate splits and declares the merit range
	// used by the Hoeffding bound.
	Criterion split.Criterion
	// GrowthAllowed, when false, prevents leaves from ever splitting.
	GrowthAllowed bool
	// BinaryOnly restricts decision tests to two-way splits.
	BinaryOnly bool
	// GracePeriod is the weight a leaf must accumulate between split
	// attempts.
	GracePeriod float64
	// TieThreshold forces a split once the Hoeffding bound is this
	// small, even without a clear merit winner.
	TieThreshold float64
	// SplitConfidence is the δ of the Hoeffding bound: the allowed
	// probability of choosing the wrong split. Smaller values make
	// splitting more conservative.
	SplitConfidence float64
	// LeafStrategy selects how active leaves learn and vote.
	LeafStrategy LeafStrategy
	// NBThreshold is the weight a leaf must accumulate before
	// naive-Bayes votes kick in.
	NBThreshold float64
	// PrePrune is declared for compatibility with the configuration
	// surface but is not exercised by the current split protocol:
	// the no-split sentinel always competes by merit.
	PrePrune bool
}

/*
DefaultConfig takes a class count and a slice of feature declarations
and returns a Config with the usual hoeffding tree defaults: an
information gain criterion, growth allowed, multiway splits, a grace
period of 200, a tie threshold of 0.05, a split confidence of 1e-7
and adaptive naive-Bayes leaves activating at weight 0.
*/
func DefaultConfig(classes int, features []feature.Feature) *Config {
	return &Config{
		Classes:         classes,
		Features:        features,
		Criterion:       split.InfoGain{MinBranchFraction: 0.01},
		GrowthAllowed:   true,
		GracePeriod:     200,
		TieThreshold:    0.05,
		SplitConfidence: 1e-7,
		LeafStrategy:    LeafNBAdaptive,
	}
}

// validate rejects configurations the model cannot run with. Unknown
// strategy and criterion identifiers fail here, at configuration
// time, rather than silently defaulting later.
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("nil model configuration")
	}
	if c.Classes < 2 {
		return fmt.Errorf("model configuration: need at least 2 classes, got %d", c.Classes)
	}
	if len(c.Features) == 0 {
		return fmt.Errorf("model configuration: no features declared")
	}
	for i, f := range c.Features {
		if f == nil {
			return fmt.Errorf("model configuration: feature %d is nil", i)
		}
		if f.Kind() != feature.KindNominal && f.Kind() != feature.KindNumeric {
			return fmt.Errorf("model configuration: feature %s has unknown kind %d", f.Name(), f.Kind())
		}
	}
	if c.Criterion == nil {
		return fmt.Errorf("model configuration: no split criterion set")
	}
	switch c.LeafStrategy {
	case LeafMajority, LeafNaiveBayes, LeafNBAdaptive:
	default:
		return fmt.Errorf("model configuration: unknown leaf strategy %d", c.LeafStrategy)
	}
	if c.GracePeriod < 0 || c.TieThreshold < 0 || c.NBThreshold < 0 {
		return fmt.Errorf("model configuration: grace period, tie threshold and nb threshold must not be negative")
	}
	if c.SplitConfidence <= 0 || c.SplitConfidence >= 1 {
		return fmt.Errorf("model configuration: split confidence must be in (0, 1), got %v", c.SplitConfidence)
	}
	return nil
}

// compatibleWith reports whether models built on the two
// configurations may merge their statistics.
func (c *Config) compatibleWith(other *Config) bool {
	if c == other {
		return true
	}
	if other == nil || c.Classes != other.Classes || len(c.Features) != len(other.Features) {
		return false
	}
	for i, f := range c.Features {
		if f.Kind() != other.Features[i].Kind() {
			return false
		}
	}
	return true
}
