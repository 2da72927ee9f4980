package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/reconctl/reconctl/internal/model"
)

// asnRecord is one source's view of an announcing AS, merged across sources
// by ASN per spec.md §4.4's asn aggregation rule ("Dedup by AS number;
// merge network/organization/sources[]").
type asnRecord struct {
	ASN          string   `json:"asn"`
	Network      string   `json:"network,omitempty"`
	Organization string   `json:"organization,omitempty"`
	CountryCode  string   `json:"countryCode,omitempty"`
	Sources      []string `json:"sources"`
}

// ASNStage resolves the target's IP to its announcing ASN and organization,
// querying two independent sources and merging the result so a single
// source's gaps (cymruASNLookup reads only ASN, prefix and country from
// Team Cymru's verbose bulk-whois reply; RIPEstat's network-info omits
// country) don't silently narrow the aggregate. Reuses whoisQuery (see whois.go) for the
// first source, and the teacher-established JSON-over-HTTP idiom in
// osint.go's hibpBreachSource for the second.
type ASNStage struct{}

func (ASNStage) Name() string { return "asn" }

func (ASNStage) Execute(ctx context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult {
	timeout := cfg.StageTimeout("asn")

	ips, err := net.DefaultResolver.LookupHost(ctx, target.Host)
	if err != nil || len(ips) == 0 {
		return model.NewError("resolve", fmt.Errorf("could not resolve host for ASN lookup: %w", err))
	}
	ip := ips[0]

	var records []asnRecord
	var errs []string

	if rec, err := cymruASNLookup(ctx, ip, timeout); err != nil {
		errs = append(errs, fmt.Sprintf("cymru: %v", err))
	} else if rec.ASN != "" {
		records = append(records, rec)
	}

	if rec, err := ripestatASNLookup(ctx, ip, cfg.UserAgent); err != nil {
		errs = append(errs, fmt.Sprintf("ripestat: %v", err))
	} else if rec.ASN != "" {
		records = append(records, rec)
	}

	merged := mergeASNRecords(records)
	if len(merged) == 0 {
		if len(errs) > 0 {
			return model.NewError("asn", fmt.Errorf("%s", strings.Join(errs, "; ")))
		}
		return model.NewEmpty()
	}

	return model.NewOK(map[string]interface{}{
		"ip":    ip,
		"total": len(merged),
		"list":  merged,
	})
}

// cymruASNLookup queries Team Cymru's verbose bulk-whois endpoint, whose
// reply is pipe-delimited:
// AS | IP | BGP Prefix | CC | Registry | Allocated | AS Name
func cymruASNLookup(ctx context.Context, ip string, timeout time.Duration) (asnRecord, error) {
	raw, err := whoisQuery(ctx, "whois.cymru.com", fmt.Sprintf("-v %s", ip), timeout)
	if err != nil {
		return asnRecord{}, err
	}

	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) < 2 {
		return asnRecord{}, nil
	}
	fields := strings.Split(lines[1], "|")
	trim := func(i int) string {
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	return asnRecord{
		ASN:         trim(0),
		Network:     trim(2),
		CountryCode: trim(3),
		Sources:     []string{"cymru"},
	}, nil
}

func mergeASNRecords(records []asnRecord) []asnRecord {
	index := map[string]*asnRecord{}
	var order []string
	for _, r := range records {
		if r.ASN == "" {
			continue
		}
		existing, ok := index[r.ASN]
		if !ok {
			rec := r
			rec.Sources = append([]string{}, r.Sources...)
			index[r.ASN] = &rec
			order = append(order, r.ASN)
			continue
		}
		if existing.Network == "" {
			existing.Network = r.Network
		}
		if existing.Organization == "" {
			existing.Organization = r.Organization
		}
		if existing.CountryCode == "" {
			existing.CountryCode = r.CountryCode
		}
		for _, s := range r.Sources {
			if !containsString(existing.Sources, s) {
				existing.Sources = append(existing.Sources, s)
			}
		}
	}
	sort.Strings(order)
	out := make([]asnRecord, 0, len(order))
	for _, k := range order {
		out = append(out, *index[k])
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type ripestatNetworkInfo struct {
	Data struct {
		ASNs   []int  `json:"asns"`
		Prefix string `json:"prefix"`
	} `json:"data"`
}

type ripestatASOverview struct {
	Data struct {
		Holder string `json:"holder"`
	} `json:"data"`
}

// ripestatASNLookup queries RIPEstat's public, unauthenticated data API: one
// call to resolve the announcing ASN and prefix for ip, a second to resolve
// that ASN's holder organization name.
func ripestatASNLookup(ctx context.Context, ip, userAgent string) (asnRecord, error) {
	netInfo, err := ripestatGet[ripestatNetworkInfo](ctx, fmt.Sprintf("https://stat.ripe.net/data/network-info/data.json?resource=%s", ip), userAgent)
	if err != nil {
		return asnRecord{}, err
	}
	if len(netInfo.Data.ASNs) == 0 {
		return asnRecord{}, nil
	}
	asn := fmt.Sprintf("%d", netInfo.Data.ASNs[0])

	overview, err := ripestatGet[ripestatASOverview](ctx, fmt.Sprintf("https://stat.ripe.net/data/as-overview/data.json?resource=AS%s", asn), userAgent)
	org := ""
	if err == nil {
		org = overview.Data.Holder
	}

	return asnRecord{
		ASN:          asn,
		Network:      netInfo.Data.Prefix,
		Organization: org,
		Sources:      []string{"ripestat"},
	}, nil
}

func ripestatGet[T any](ctx context.Context, url, userAgent string) (T, error) {
	var out T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return out, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("ripestat: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode ripestat response: %w", err)
	}
	return out, nil
}
