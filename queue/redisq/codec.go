package redisq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ty01csbaidu/streamDM/feature"
	"github.com/ty01csbaidu/streamDM/queue"
)

type jsonTask struct {
	ID       string        `json:"id"`
	Examples []jsonExample `json:"examples"`
}

type jsonExample struct {
	Values []float64 `json:"v"`
	Class  int       `json:"c"`
	Weight float64   `json:"w,omitempty"`
}

type jsonEncodeDecoder struct{}

// NewJSONEncodeDecoder returns an EncodeDecoder that serializes
// tasks as JSON.
func NewJSONEncodeDecoder() EncodeDecoder {
	return jsonEncodeDecoder{}
}

func (jsonEncodeDecoder) Encode(ctx context.Context, t *queue.Task) ([]byte, error) {
	jt := jsonTask{ID: t.ID(), Examples: make([]jsonExample, len(t.Examples))}
	for i, e := range t.Examples {
		values := make([]float64, e.NumValues())
		for v := range values {
			values[v] = e.ValueAt(v)
		}
		jt.Examples[i] = jsonExample{Values: values, Class: e.Class(), Weight: e.Weight()}
	}
	data, err := json.Marshal(jt)
	if err != nil {
		return nil, fmt.Errorf("encoding task %s: %v", t.ID(), err)
	}
	return data, nil
}

func (jsonEncodeDecoder) Decode(ctx context.Context, data []byte) (*queue.Task, error) {
	jt := jsonTask{}
	if err := json.Unmarshal(data, &jt); err != nil {
		return nil, fmt.Errorf("decoding task: %v", err)
	}
	examples := make([]*feature.Example, len(jt.Examples))
	for i, je := range jt.Examples {
		w := je.Weight
		if w == 0 {
			w = 1
		}
		examples[i] = feature.NewWeightedExample(je.Values, je.Class, w)
	}
	return queue.NewTask(jt.ID, examples), nil
}
