package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/mgo.v2"

	"github.com/ty01csbaidu/streamDM/dataset"
	"github.com/ty01csbaidu/streamDM/dataset/csv"
	"github.com/ty01csbaidu/streamDM/dataset/mongostream"
	"github.com/ty01csbaidu/streamDM/dataset/sqlstream"
	"github.com/ty01csbaidu/streamDM/feature"
	featureyaml "github.com/ty01csbaidu/streamDM/feature/yaml"
	"github.com/ty01csbaidu/streamDM/tree"
	treejson "github.com/ty01csbaidu/streamDM/tree/json"
)

/*
readMetadata reads the feature declarations from the YML file at the
given path and splits out the class feature with the given name. It
returns the predictive features, the class feature and an error if
the file cannot be parsed, the class feature is not declared or it is
not nominal.
*/
func readMetadata(metadataPath, className string) ([]feature.Feature, *feature.NominalFeature, error) {
	declared, err := featureyaml.ReadFeaturesFromFile(metadataPath)
	if err != nil {
		return nil, nil, err
	}
	var class *feature.NominalFeature
	features := make([]feature.Feature, 0, len(declared))
	for _, f := range declared {
		if f.Name() == className {
			nf, ok := f.(*feature.NominalFeature)
			if !ok {
				return nil, nil, fmt.Errorf("class feature '%s' must be nominal", className)
			}
			class = nf
			continue
		}
		features = append(features, f)
	}
	if class == nil {
		return nil, nil, fmt.Errorf("class feature '%s' is not defined", className)
	}
	if len(features) == 0 {
		return nil, nil, fmt.Errorf("no features declared besides the class feature")
	}
	return features, class, nil
}

/*
openStream takes a context, a data input description, the feature
declarations and the class feature and returns a stream of examples
over the described source: a PostgreSQL DB connection URL, a MongoDB
connection URL, an SQLite3 (.db) file, a CSV file path, or STDIN
interpreted as CSV when the input is empty.
*/
func (rcc *rootCmdConfig) openStream(ctx context.Context, input string, features []feature.Feature, class *feature.NominalFeature) (dataset.Stream, error) {
	if input == "" {
		rcc.Logger().Debugw("reading examples from STDIN")
		return csv.NewStream(os.Stdin, features, class)
	}
	if strings.HasPrefix(input, "postgresql://") || strings.HasPrefix(input, "postgres://") {
		rcc.Logger().Debugw("opening PostgreSQL example stream", "url", input)
		return sqlstream.OpenPostgreSQL(ctx, input, features, class)
	}
	if strings.HasPrefix(input, "mongodb://") {
		rcc.Logger().Debugw("opening MongoDB example stream", "url", input)
		session, err := mgo.Dial(input)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %v", input, err)
		}
		s, err := mongostream.Open(ctx, session, features, class)
		if err != nil {
			session.Close()
			return nil, err
		}
		return &sessionStream{Stream: s, session: session}, nil
	}
	if strings.HasSuffix(input, ".db") {
		rcc.Logger().Debugw("opening SQLite3 example stream", "file", input)
		return sqlstream.OpenSQLite3(ctx, input, features, class)
	}
	rcc.Logger().Debugw("opening CSV example stream", "file", input)
	return csv.OpenFile(input, features, class)
}

// sessionStream ties the lifetime of a MongoDB session to the stream
// read from it.
type sessionStream struct {
	dataset.Stream
	session *mgo.Session
}

func (s *sessionStream) Close() error {
	err := s.Stream.Close()
	s.session.Close()
	return err
}

func loadModel(filepath string, cfg *tree.Config) (*tree.Model, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading model in JSON from %s: %v", filepath, err)
	}
	defer f.Close()
	m, err := treejson.ReadModel(f, cfg)
	if err != nil {
		err = fmt.Errorf("parsing model in JSON from %s: %v", filepath, err)
	}
	return m, err
}

func outputModel(outputPath string, m *tree.Model) error {
	var f *os.File
	var err error
	if outputPath == "" {
		f = os.Stdout
	} else {
		f, err = os.Create(outputPath)
		if err != nil {
			return err
		}
	}
	defer f.Close()
	return treejson.WriteModel(f, m)
}
