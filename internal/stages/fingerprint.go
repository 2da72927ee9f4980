package stages

import (
	"context"
	_ "embed"
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"github.com/reconctl/reconctl/internal/model"
)

//go:embed fingerprints.json
var fingerprintsJSON []byte

// fingerprintRule mirrors the teacher's FingerprintRule in
// internal/recon/fingerprint.go, unchanged in shape.
type fingerprintRule struct {
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Headers  []headerMatch `json:"headers,omitempty"`
	Body     []string      `json:"body,omitempty"`
	Cookies  []string      `json:"cookies,omitempty"`
}

type headerMatch struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	regex   *regexp.Regexp
}

var (
	fingerprintRules []fingerprintRule
	fingerprintOnce  sync.Once
)

func loadFingerprintRules() {
	fingerprintOnce.Do(func() {
		if err := json.Unmarshal(fingerprintsJSON, &fingerprintRules); err != nil {
			return
		}
		for i := range fingerprintRules {
			for j := range fingerprintRules[i].Headers {
				h := &fingerprintRules[i].Headers[j]
				if h.Pattern != "" {
					h.regex, _ = regexp.Compile("(?i)" + h.Pattern)
				}
			}
		}
	})
}

// FingerprintStage applies header/body/cookie pattern matching to the probe
// data the http stage captured, grounded on the teacher's FingerprintServices
// and matchesRule in internal/recon/fingerprint.go, generalized from an
// in-place mutation of a []HTTPService slice to a standalone StageResult.
type FingerprintStage struct {
	Cache *ProbeCache
}

func (FingerprintStage) Name() string { return "fingerprint" }

func (s FingerprintStage) Execute(_ context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult {
	loadFingerprintRules()

	var pd *probeData
	if s.Cache != nil {
		pd = s.Cache.Get(target.Host)
	}
	if pd == nil {
		return model.NewSkipped()
	}

	var server, poweredBy, cms string
	var detected, frameworks []string

	if v, ok := pd.Headers["server"]; ok {
		server = v
	}
	if v, ok := pd.Headers["x-powered-by"]; ok {
		poweredBy = v
	}

	for _, rule := range fingerprintRules {
		if !matchesRule(rule, pd) {
			continue
		}
		switch rule.Category {
		case "cms":
			if cms == "" {
				cms = rule.Name
			}
		case "framework":
			frameworks = append(frameworks, rule.Name)
		default:
			detected = append(detected, rule.Name)
		}
	}

	fields := map[string]interface{}{
		"server":     server,
		"poweredBy":  poweredBy,
		"cms":        cms,
		"detected":   sortedUnique(detected),
		"frameworks": sortedUnique(frameworks),
	}
	return model.NewOK(fields)
}

func matchesRule(rule fingerprintRule, data *probeData) bool {
	for _, hm := range rule.Headers {
		headerName := strings.ToLower(hm.Name)
		headerVal, exists := data.Headers[headerName]
		if !exists {
			continue
		}
		if hm.regex != nil && hm.regex.MatchString(headerVal) {
			return true
		}
		if hm.Pattern == "" && headerVal != "" {
			return true
		}
	}

	bodyLower := strings.ToLower(data.Body)
	for _, substr := range rule.Body {
		if strings.Contains(bodyLower, strings.ToLower(substr)) {
			return true
		}
	}

	for _, cookieName := range rule.Cookies {
		cookieLower := strings.ToLower(cookieName)
		for _, c := range data.Cookies {
			if strings.ToLower(c) == cookieLower {
				return true
			}
		}
	}

	return false
}
