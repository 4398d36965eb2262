/*
Package csv provides a dataset.Stream over CSV content. The header or
first row of the CSV content is expected to contain the names of the
declared features plus the class feature, in any column order; the
remaining rows hold one example each.
*/
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ty01csbaidu/streamDM/dataset"
	"github.com/ty01csbaidu/streamDM/feature"
)

type csvStream struct {
	r        *csv.Reader
	closer   io.Closer
	features []feature.Feature
	class    *feature.NominalFeature
	// columns[i] is the CSV column holding the value for feature i;
	// classColumn the one holding the class label.
	columns     []int
	classColumn int
	line        int
}

/*
NewStream takes an io.Reader with CSV content, a slice of feature
declarations and the nominal class feature, reads the CSV header and
returns a dataset.Stream yielding the examples parsed from the
remaining rows, or an error if the header does not cover every
declared feature and the class.
*/
func NewStream(reader io.Reader, features []feature.Feature, class *feature.NominalFeature) (dataset.Stream, error) {
	r := csv.NewReader(reader)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %v", err)
	}
	s := &csvStream{
		r:           r,
		features:    features,
		class:       class,
		columns:     make([]int, len(features)),
		classColumn: -1,
		line:        1,
	}
	if closer, ok := reader.(io.Closer); ok {
		s.closer = closer
	}
	for i, f := range features {
		s.columns[i] = columnOf(header, f.Name())
		if s.columns[i] < 0 {
			return nil, fmt.Errorf("csv header has no column for feature %s", f.Name())
		}
	}
	s.classColumn = columnOf(header, class.Name())
	if s.classColumn < 0 {
		return nil, fmt.Errorf("csv header has no column for class feature %s", class.Name())
	}
	return s, nil
}

/*
OpenFile takes a filepath string, a slice of feature declarations and
the nominal class feature, opens the file and returns a
dataset.Stream over its CSV content, or an error if the file cannot
be opened or its header is invalid. Closing the stream closes the
file.
*/
func OpenFile(filepath string, features []feature.Feature, class *feature.NominalFeature) (dataset.Stream, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("opening csv file %s: %v", filepath, err)
	}
	s, err := NewStream(f, features, class)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csv file %s: %v", filepath, err)
	}
	return s, nil
}

func (s *csvStream) Next(ctx context.Context) (*feature.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, err := s.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	s.line++
	if err != nil {
		return nil, fmt.Errorf("reading csv line %d: %v", s.line, err)
	}
	values := make([]float64, len(s.features))
	for i, f := range s.features {
		raw := row[s.columns[i]]
		switch f := f.(type) {
		case *feature.NominalFeature:
			v := f.ValueIndex(raw)
			if v < 0 {
				return nil, fmt.Errorf("parsing csv line %d: unknown value %q for feature %s", s.line, raw, f.Name())
			}
			values[i] = float64(v)
		default:
			values[i], err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("parsing csv line %d: feature %s: %v", s.line, f.Name(), err)
			}
		}
	}
	class := s.class.ValueIndex(row[s.classColumn])
	if class < 0 {
		return nil, fmt.Errorf("parsing csv line %d: unknown class %q", s.line, row[s.classColumn])
	}
	return feature.NewExample(values, class), nil
}

func (s *csvStream) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func columnOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
