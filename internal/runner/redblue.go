package runner

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/reconctl/reconctl/internal/model"
)

// RedBlueResult is the classified outcome of RunRedBlue, per spec.md §4.2.
type RedBlueResult struct {
	Status model.StageStatus
	Data   map[string]interface{}
}

// RunRedBlue composes args as [domain resource verb target], appends
// "-o json" by default, runs the command, and classifies the outcome per
// spec.md's rule table: spawn-not-found -> unavailable, nonzero exit ->
// error, empty-ish stdout -> empty, otherwise ok. JSON parse failure falls
// back to {"raw": stdout} rather than failing.
func (r *Runner) RunRedBlue(ctx context.Context, command, domain, resource, verb, target string, opts Options) RedBlueResult {
	args := []string{domain, resource, verb, target, "-o", "json"}
	res := r.Run(ctx, command, args, opts)

	if res.Err != nil && res.Err.Code == ErrENOENT {
		return RedBlueResult{Status: model.StatusUnavailable}
	}
	if res.Err != nil && res.Err.Code == ErrExitCode {
		return RedBlueResult{Status: model.StatusError}
	}

	trimmed := strings.TrimSpace(string(res.Stdout))
	if trimmed == "" || trimmed == "[]" || trimmed == "{}" || trimmed == "null" {
		return RedBlueResult{Status: model.StatusEmpty}
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(res.Stdout, &parsed); err != nil {
		return RedBlueResult{Status: model.StatusOK, Data: map[string]interface{}{"raw": trimmed}}
	}

	return RedBlueResult{Status: model.StatusOK, Data: parsed}
}
