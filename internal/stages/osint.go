package stages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/reconctl/reconctl/internal/model"
)

// Breach is a single public breach/leak record for a domain, shaped to
// whatever fields a BreachSource can actually populate.
type Breach struct {
	Name        string   `json:"name"`
	Domain      string   `json:"domain"`
	BreachDate  string   `json:"breachDate"`
	DataClasses []string `json:"dataClasses"`
}

// ErrBreachSourceRateLimited signals a source should be reported as
// "unavailable" rather than "error" — the query itself is fine, the
// upstream is just throttling.
var ErrBreachSourceRateLimited = errors.New("breach source rate-limited this request")

// BreachSource looks up public breach/leak indicators for a domain. Mirrors
// the subdomainSource closure shape (subdomains.go) but as a named interface
// since osint has exactly one real backing provider plus a no-op
// alternative, not a fan-out of many.
type BreachSource interface {
	Name() string
	Lookup(ctx context.Context, host, userAgent string) ([]Breach, error)
}

// NullBreachSource is the no-op source: it never calls out to the network
// and always reports no breaches found. Setting OSINTStage.Source to it
// turns breach lookups off while the stage still produces a well-formed
// "empty" result; a nil Source falls back to hibpBreachSource.
type NullBreachSource struct{}

func (NullBreachSource) Name() string { return "none" }

func (NullBreachSource) Lookup(ctx context.Context, host, userAgent string) ([]Breach, error) {
	return nil, nil
}

// hibpBreachSource queries HaveIBeenPwned's public, unauthenticated
// domain-breach listing. It is the one concrete, non-secret-requiring
// source this stage ships.
type hibpBreachSource struct{}

func (hibpBreachSource) Name() string { return "hibp" }

func (hibpBreachSource) Lookup(ctx context.Context, host, userAgent string) ([]Breach, error) {
	url := fmt.Sprintf("https://haveibeenpwned.com/api/v3/breaches?domain=%s", host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if userAgent == "" {
		userAgent = "reconctl/1.0"
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrBreachSourceRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, err
	}

	var raw []struct {
		Name        string   `json:"Name"`
		Domain      string   `json:"Domain"`
		BreachDate  string   `json:"BreachDate"`
		DataClasses []string `json:"DataClasses"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	breaches := make([]Breach, len(raw))
	for i, b := range raw {
		breaches[i] = Breach{Name: b.Name, Domain: b.Domain, BreachDate: b.BreachDate, DataClasses: b.DataClasses}
	}
	return breaches, nil
}

// OSINTStage scrapes public breach/leak indicators for the target domain
// through a pluggable BreachSource. Defaults to hibpBreachSource; set
// Source to NullBreachSource{} to disable without removing the stage from
// the pipeline.
type OSINTStage struct {
	Source    BreachSource
	UserAgent string
}

func (OSINTStage) Name() string { return "osint" }

func (s OSINTStage) Execute(ctx context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult {
	ctx, cancel := context.WithTimeout(ctx, cfg.StageTimeout("osint"))
	defer cancel()

	source := s.Source
	if source == nil {
		source = hibpBreachSource{}
	}

	userAgent := s.UserAgent
	if userAgent == "" {
		userAgent = cfg.UserAgent
	}

	breaches, err := source.Lookup(ctx, target.Host, userAgent)
	if err != nil {
		if errors.Is(err, ErrBreachSourceRateLimited) {
			return model.NewUnavailable(err.Error())
		}
		return model.NewError(source.Name(), err)
	}

	if len(breaches) == 0 {
		return model.NewEmpty()
	}

	var urls []string
	for _, b := range breaches {
		urls = append(urls, fmt.Sprintf("https://haveibeenpwned.com/PwnedWebsites#%s", b.Name))
	}
	sort.Strings(urls)

	return model.NewOK(map[string]interface{}{
		"emails":   []string{},
		"profiles": []string{},
		"urls":     urls,
		"breaches": breaches,
	})
}
