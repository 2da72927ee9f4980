// Package report renders a persisted Report into the output formats spec.md
// §6 names: generateJSONReport, generateMarkdownReport, generateHTMLReport,
// plus a terminal summary table, grounded on the teacher's internal/output
// package (json.go/summary.go/table.go/progress.go) generalized from one
// fixed ScanResult shape to reconctl's Report/Fingerprint/Diff model.
package report

import (
	"encoding/json"
	"io"

	"github.com/reconctl/reconctl/internal/model"
)

// WriteJSON writes report as indented JSON to w, unchanged from the
// teacher's output.WriteJSON besides the type it encodes.
func WriteJSON(w io.Writer, report model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// GenerateJSON renders report as an indented JSON string, for callers that
// want the bytes rather than a writer (spec.md's generateJSONReport).
func GenerateJSON(report model.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
