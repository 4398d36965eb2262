/*
Package dataset provides sources of labeled examples for training and
testing hoeffding tree models. A source is a Stream: examples are
consumed one at a time in order, with no way back, matching the
unbounded-sequence model the tree learns from.
*/
package dataset

import (
	"context"
	"io"

	"github.com/ty01csbaidu/streamDM/feature"
)

/*
Stream represents a sequence of labeled examples.

Its Next method returns the next example on the stream, io.EOF once
the stream is exhausted, or another error if the underlying source
cannot be read. The context may allow cancelling the read if the
implementation supports it.

Its Close method releases any resources backing the stream.
*/
type Stream interface {
	Next(ctx context.Context) (*feature.Example, error)
	Close() error
}

type sliceStream struct {
	examples []*feature.Example
	next     int
}

/*
New takes a slice of examples and returns a Stream that yields them
in order. It is the in-memory counterpart of the persistent stream
backends, handy for tests and for re-streaming a batch.
*/
func New(examples []*feature.Example) Stream {
	return &sliceStream{examples: examples}
}

func (s *sliceStream) Next(ctx context.Context) (*feature.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.examples) {
		return nil, io.EOF
	}
	e := s.examples[s.next]
	s.next++
	return e, nil
}

func (s *sliceStream) Close() error {
	return nil
}

/*
Batch takes a context, a stream and a batch size and reads up to n
examples from the stream. It returns the examples read and, once the
stream is exhausted, io.EOF alongside whatever examples were read
before the end. Any other error from the stream is returned as is.
*/
func Batch(ctx context.Context, s Stream, n int) ([]*feature.Example, error) {
	examples := make([]*feature.Example, 0, n)
	for len(examples) < n {
		e, err := s.Next(ctx)
		if err != nil {
			return examples, err
		}
		examples = append(examples, e)
	}
	return examples, nil
}
