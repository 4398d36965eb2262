/*
Package json serializes hoeffding tree models to JSON and back. The
codec persists the node structure, decision tests, class
distributions and leaf counters; feature observer internals are
rebuilt empty on load, so a reloaded model predicts exactly as the
persisted one did with majority votes and re-accumulates per-feature
detail as it keeps training.
*/
package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ty01csbaidu/streamDM/observer"
	"github.com/ty01csbaidu/streamDM/split"
	"github.com/ty01csbaidu/streamDM/tree"
)

type jsonModel struct {
	Classes  int       `json:"classes"`
	Features int       `json:"features"`
	Root     *jsonNode `json:"root"`
}

type jsonNode struct {
	Kind        string      `json:"kind"`
	Dist        []float64   `json:"dist"`
	Test        *jsonTest   `json:"test,omitempty"`
	Children    []*jsonNode `json:"children,omitempty"`
	AddOnWeight float64     `json:"addOnWeight,omitempty"`
	MCCorrect   float64     `json:"mcCorrect,omitempty"`
	NBCorrect   float64     `json:"nbCorrect,omitempty"`
}

type jsonTest struct {
	Kind      string  `json:"kind"`
	Feature   string  `json:"feature"`
	Index     int     `json:"index"`
	Arity     int     `json:"arity,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

const (
	kindSplit    = "split"
	kindActive   = "active"
	kindInactive = "inactive"

	testNominalMultiway = "nominal-multiway"
	testNominalBinary   = "nominal-binary"
	testNumericBinary   = "numeric-binary"
)

/*
WriteModel takes an io.Writer and a model and serializes the model as
JSON onto the writer. An error is returned if the model cannot be
encoded or written.
*/
func WriteModel(w io.Writer, m *tree.Model) error {
	jm := &jsonModel{
		Classes:  m.Config().Classes,
		Features: len(m.Config().Features),
	}
	var err error
	jm.Root, err = encodeNode(m.Root())
	if err != nil {
		return fmt.Errorf("encoding model: %v", err)
	}
	if err := json.NewEncoder(w).Encode(jm); err != nil {
		return fmt.Errorf("writing model: %v", err)
	}
	return nil
}

/*
ReadModel takes an io.Reader with a JSON-serialized model and the
configuration to run the model with, and returns the decoded model or
an error. The configuration must declare the same class count and
feature count the model was persisted with.
*/
func ReadModel(r io.Reader, cfg *tree.Config) (*tree.Model, error) {
	jm := &jsonModel{}
	if err := json.NewDecoder(r).Decode(jm); err != nil {
		return nil, fmt.Errorf("reading model: %v", err)
	}
	if jm.Classes != cfg.Classes {
		return nil, fmt.Errorf("reading model: model has %d classes, configuration declares %d", jm.Classes, cfg.Classes)
	}
	if jm.Features != len(cfg.Features) {
		return nil, fmt.Errorf("reading model: model has %d features, configuration declares %d", jm.Features, len(cfg.Features))
	}
	m, err := tree.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("reading model: %v", err)
	}
	root, err := decodeNode(jm.Root, cfg)
	if err != nil {
		return nil, fmt.Errorf("reading model: %v", err)
	}
	m.SetRoot(root)
	return m, nil
}

func encodeNode(n *tree.Node) (*jsonNode, error) {
	if n == nil {
		return nil, nil
	}
	jn := &jsonNode{
		Dist:        n.Dist,
		AddOnWeight: n.AddOnWeight,
		MCCorrect:   n.MCCorrect,
		NBCorrect:   n.NBCorrect,
	}
	switch n.Kind {
	case tree.KindActive:
		jn.Kind = kindActive
	case tree.KindInactive:
		jn.Kind = kindInactive
	case tree.KindSplit:
		jn.Kind = kindSplit
		jt, err := encodeTest(n.Test)
		if err != nil {
			return nil, err
		}
		jn.Test = jt
		jn.Children = make([]*jsonNode, len(n.Children))
		for i, child := range n.Children {
			jc, err := encodeNode(child)
			if err != nil {
				return nil, err
			}
			jn.Children[i] = jc
		}
	default:
		return nil, fmt.Errorf("unknown node kind %d", n.Kind)
	}
	return jn, nil
}

func decodeNode(jn *jsonNode, cfg *tree.Config) (*tree.Node, error) {
	if jn == nil {
		return nil, nil
	}
	if len(jn.Dist) != cfg.Classes {
		return nil, fmt.Errorf("node has a %d-class distribution, configuration declares %d classes", len(jn.Dist), cfg.Classes)
	}
	n := &tree.Node{
		Dist:        jn.Dist,
		AddOnWeight: jn.AddOnWeight,
		MCCorrect:   jn.MCCorrect,
		NBCorrect:   jn.NBCorrect,
	}
	switch jn.Kind {
	case kindActive:
		n.Kind = tree.KindActive
		n.Observers = make([]observer.Observer, len(cfg.Features))
		for i, f := range cfg.Features {
			o, err := observer.New(f, i, cfg.Classes)
			if err != nil {
				return nil, err
			}
			n.Observers[i] = o
		}
	case kindInactive:
		n.Kind = tree.KindInactive
	case kindSplit:
		n.Kind = tree.KindSplit
		t, err := decodeTest(jn.Test)
		if err != nil {
			return nil, err
		}
		n.Test = t
		n.Children = make([]*tree.Node, len(jn.Children))
		for i, jc := range jn.Children {
			child, err := decodeNode(jc, cfg)
			if err != nil {
				return nil, err
			}
			n.Children[i] = child
		}
		if len(n.Children) != t.NumBranches() {
			return nil, fmt.Errorf("split node has %d children for a %d-branch test", len(n.Children), t.NumBranches())
		}
	default:
		return nil, fmt.Errorf("unknown node kind %q", jn.Kind)
	}
	return n, nil
}

func encodeTest(t split.Test) (*jsonTest, error) {
	switch t := t.(type) {
	case *split.NominalMultiwayTest:
		return &jsonTest{Kind: testNominalMultiway, Feature: t.Feature, Index: t.Index, Arity: t.Arity}, nil
	case *split.NominalBinaryTest:
		return &jsonTest{Kind: testNominalBinary, Feature: t.Feature, Index: t.Index, Value: t.Value}, nil
	case *split.NumericBinaryTest:
		return &jsonTest{Kind: testNumericBinary, Feature: t.Feature, Index: t.Index, Threshold: t.Threshold}, nil
	}
	return nil, fmt.Errorf("cannot encode decision test of type %T", t)
}

func decodeTest(jt *jsonTest) (split.Test, error) {
	if jt == nil {
		return nil, fmt.Errorf("split node without decision test")
	}
	switch jt.Kind {
	case testNominalMultiway:
		return &split.NominalMultiwayTest{Feature: jt.Feature, Index: jt.Index, Arity: jt.Arity}, nil
	case testNominalBinary:
		return &split.NominalBinaryTest{Feature: jt.Feature, Index: jt.Index, Value: jt.Value}, nil
	case testNumericBinary:
		return &split.NumericBinaryTest{Feature: jt.Feature, Index: jt.Index, Threshold: jt.Threshold}, nil
	}
	return nil, fmt.Errorf("unknown decision test kind %q", jt.Kind)
}
