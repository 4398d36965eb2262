/*
Package mongostream provides a dataset.Stream that reads examples
from a MongoDB collection. Each document is expected to hold one
field per declared feature plus the class feature, with string values
for nominal features and numeric values for numeric ones.
*/
package mongostream

import (
	"context"
	"fmt"
	"io"

	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/ty01csbaidu/streamDM/dataset"
	"github.com/ty01csbaidu/streamDM/feature"
)

const examplesCollectionName = "examples"

type mongoStream struct {
	session  *mgo.Session
	iter     *mgo.Iter
	features []feature.Feature
	class    *feature.NominalFeature
}

/*
Open takes a MongoDB session, a slice of feature declarations and the
nominal class feature and returns a dataset.Stream over the examples
collection on the session's default database. Closing the stream
closes the underlying iterator but not the session, which belongs to
the caller.
*/
func Open(ctx context.Context, session *mgo.Session, features []feature.Feature, class *feature.NominalFeature) (dataset.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	iter := session.DB("").C(examplesCollectionName).Find(nil).Iter()
	return &mongoStream{session: session, iter: iter, features: features, class: class}, nil
}

func (ms *mongoStream) Next(ctx context.Context) (*feature.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc bson.M
	if !ms.iter.Next(&doc) {
		if err := ms.iter.Err(); err != nil {
			return nil, fmt.Errorf("reading example from mongo: %v", err)
		}
		return nil, io.EOF
	}
	return ms.parse(doc)
}

func (ms *mongoStream) Close() error {
	return ms.iter.Close()
}

func (ms *mongoStream) parse(doc bson.M) (*feature.Example, error) {
	values := make([]float64, len(ms.features))
	for i, f := range ms.features {
		raw, ok := doc[f.Name()]
		if !ok {
			return nil, fmt.Errorf("mongo document %v has no value for feature %s", doc["_id"], f.Name())
		}
		switch f := f.(type) {
		case *feature.NominalFeature:
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("mongo document %v: feature %s expects a string, got %T", doc["_id"], f.Name(), raw)
			}
			v := f.ValueIndex(s)
			if v < 0 {
				return nil, fmt.Errorf("mongo document %v: unknown value %q for feature %s", doc["_id"], s, f.Name())
			}
			values[i] = float64(v)
		default:
			n, ok := numericValue(raw)
			if !ok {
				return nil, fmt.Errorf("mongo document %v: feature %s expects a number, got %T", doc["_id"], f.Name(), raw)
			}
			values[i] = n
		}
	}
	rawClass, ok := doc[ms.class.Name()].(string)
	if !ok {
		return nil, fmt.Errorf("mongo document %v has no string value for class feature %s", doc["_id"], ms.class.Name())
	}
	class := ms.class.ValueIndex(rawClass)
	if class < 0 {
		return nil, fmt.Errorf("mongo document %v: unknown class %q", doc["_id"], rawClass)
	}
	return feature.NewExample(values, class), nil
}

func numericValue(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
