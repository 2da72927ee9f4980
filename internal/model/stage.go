package model

// StageStatus is the tagged status of one stage's result, per spec.md §3.
type StageStatus string

const (
	StatusOK          StageStatus = "ok"
	StatusEmpty       StageStatus = "empty"
	StatusSkipped     StageStatus = "skipped"
	StatusUnavailable StageStatus = "unavailable"
	StatusError       StageStatus = "error"
)

// ToolResult is one tool's raw contribution within a stage, preserved under
// StageResult.Individual.
type ToolResult struct {
	Status StageStatus            `json:"status"`
	Data   map[string]interface{} `json:"data,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// StageResult is the uniform envelope every stage returns, per spec.md §3-4.4.
// Fields is the stage-specific payload (the root-level spread of Aggregated,
// for compatibility with the spec's "spread into root" rule).
type StageResult struct {
	Status     StageStatus            `json:"status"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
	Errors     map[string]string      `json:"errors,omitempty"`
	Individual map[string]ToolResult  `json:"_individual,omitempty"`
	Aggregated map[string]interface{} `json:"_aggregated,omitempty"`
	TempDirs   []string               `json:"-"`
}

// NewOK builds an "ok" result with the given aggregated fields spread to root.
func NewOK(fields map[string]interface{}) StageResult {
	return StageResult{Status: StatusOK, Fields: fields, Aggregated: fields}
}

// NewEmpty builds an "empty" result.
func NewEmpty() StageResult {
	return StageResult{Status: StatusEmpty}
}

// NewSkipped builds a "skipped" result.
func NewSkipped() StageResult {
	return StageResult{Status: StatusSkipped}
}

// NewUnavailable builds an "unavailable" result (the tool/source is absent).
func NewUnavailable(reason string) StageResult {
	return StageResult{Status: StatusUnavailable, Errors: map[string]string{"reason": reason}}
}

// NewError builds an "error" result; the stage produced no usable partial data.
func NewError(key string, err error) StageResult {
	return StageResult{Status: StatusError, Errors: map[string]string{key: err.Error()}}
}

// WithIndividualAggregated sets both _individual and _aggregated, enforcing
// the invariant that one is present only alongside the other (spec.md §3).
func (r StageResult) WithIndividualAggregated(individual map[string]ToolResult, aggregated map[string]interface{}) StageResult {
	r.Individual = individual
	r.Aggregated = aggregated
	if r.Fields == nil {
		r.Fields = aggregated
	} else {
		for k, v := range aggregated {
			r.Fields[k] = v
		}
	}
	return r
}
