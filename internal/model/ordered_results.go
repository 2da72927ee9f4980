package model

import (
	"bytes"
	"encoding/json"
)

// OrderedResults is an insertion-ordered map of stage name to StageResult,
// satisfying spec.md §5's requirement that "the map preserves insertion
// order" for Report.Results.
type OrderedResults struct {
	keys   []string
	values map[string]StageResult
}

// NewOrderedResults returns an empty ordered result set.
func NewOrderedResults() *OrderedResults {
	return &OrderedResults{values: make(map[string]StageResult)}
}

// Set inserts or overwrites the result for stage, appending to the
// insertion order only on first insert.
func (o *OrderedResults) Set(stage string, result StageResult) {
	if o.values == nil {
		o.values = make(map[string]StageResult)
	}
	if _, exists := o.values[stage]; !exists {
		o.keys = append(o.keys, stage)
	}
	o.values[stage] = result
}

// Get returns the result for stage and whether it was present.
func (o *OrderedResults) Get(stage string) (StageResult, bool) {
	if o == nil {
		return StageResult{}, false
	}
	r, ok := o.values[stage]
	return r, ok
}

// Keys returns stage names in insertion order.
func (o *OrderedResults) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of stages recorded.
func (o *OrderedResults) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// MarshalJSON renders the map preserving insertion order, since encoding/json
// otherwise sorts map[string]T keys alphabetically.
func (o *OrderedResults) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object back into an OrderedResults. Go's
// encoding/json visits object keys in source order, so insertion order is
// recovered from the wire representation.
func (o *OrderedResults) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}
	o.keys = nil
	o.values = make(map[string]StageResult)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var val StageResult
		if err := dec.Decode(&val); err != nil {
			return err
		}
		o.Set(key, val)
	}
	return nil
}
