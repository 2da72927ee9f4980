package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/reconctl/reconctl/internal/model"
)

// BehaviorOverrides is the final, highest-priority layer applied in
// Resolve, per spec.md §4.5 step 2 ("finally apply behaviorOverrides.features").
type BehaviorOverrides struct {
	Features map[string]interface{}
}

// Resolve computes effective = defaults ⊕ preset ⊕ userConfig ⊕
// behaviorOverrides.features, later wins, deep-merging nested maps, then
// decodes the result into a model.FeatureConfig.
func Resolve(behavior string, userConfig map[string]interface{}, overrides *BehaviorOverrides) (model.FeatureConfig, error) {
	merged := Defaults()

	if preset := PresetFor(behavior); preset != nil {
		merged = DeepMerge(merged, preset)
	}

	if userConfig != nil {
		merged = DeepMerge(merged, userConfig)
	}

	if overrides != nil && overrides.Features != nil {
		features, _ := merged["features"].(map[string]interface{})
		merged["features"] = DeepMerge(features, overrides.Features)
	}

	merged["behavior"] = behavior

	var cfg model.FeatureConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return model.FeatureConfig{}, fmt.Errorf("build config decoder: %w", err)
	}
	if err := decoder.Decode(merged); err != nil {
		return model.FeatureConfig{}, fmt.Errorf("decode effective config: %w", err)
	}

	return cfg, nil
}
