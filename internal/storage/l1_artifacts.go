package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reconctl/reconctl/internal/model"
)

// l1Artifacts writes per-tool and per-stage-aggregate JSON blobs under
// reports/<host>/stages/<timestamp>/..., per spec.md §4.7's L1 layer.
type l1Artifacts struct {
	baseDir string
}

// writeStage writes one stage's individual tool outputs and its aggregate,
// returning the artifact keys (relative to baseDir) recorded into the
// report so L2's index.json can reference them for pruning.
func (l l1Artifacts) writeStage(host, timestamp, stage string, result model.StageResult) (toolKeys []string, aggregatedKey string, err error) {
	stageDir := filepath.Join(l.baseDir, "reports", host, "stages", timestamp)

	for tool, tr := range result.Individual {
		key := filepath.Join("reports", host, "stages", timestamp, "tools", tool+".json")
		if err := writeJSON(filepath.Join(l.baseDir, key), tr); err != nil {
			return toolKeys, aggregatedKey, fmt.Errorf("write tool artifact %s: %w", tool, err)
		}
		toolKeys = append(toolKeys, key)
	}

	if result.Aggregated != nil {
		key := filepath.Join("reports", host, "stages", timestamp, "aggregated", stage+".json")
		if err := writeJSON(filepath.Join(l.baseDir, key), result.Aggregated); err != nil {
			return toolKeys, aggregatedKey, fmt.Errorf("write aggregated artifact %s: %w", stage, err)
		}
		aggregatedKey = key
	}

	_ = stageDir
	return toolKeys, aggregatedKey, nil
}

// prune best-effort deletes the artifact tree for one timestamped scan.
// Deletion errors on individual keys are swallowed (spec.md §4.7: "pruning
// is best-effort... does not block new scans").
func (l l1Artifacts) prune(host, timestamp string) {
	dir := filepath.Join(l.baseDir, "reports", host, "stages", timestamp)
	_ = os.RemoveAll(dir)
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
