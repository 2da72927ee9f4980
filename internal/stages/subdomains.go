package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/reconctl/reconctl/internal/model"
	"github.com/reconctl/reconctl/pkg/wordlist"
)

// SubdomainsStage fans out to four independent enumeration sources — crt.sh
// Certificate Transparency logs, the HackerTarget hostsearch API, AlienVault
// OTX passive DNS, and DNS brute-force over the embedded wordlist — and
// merges their results under the _individual/_aggregated envelope required
// by spec.md §3. Grounded directly on the teacher's CrtshEnumerate,
// HackertargetEnumerate, OTXEnumerate and BruteEnumerate in
// internal/recon/{crtsh,hackertarget,otx,brute}.go: each source keeps its own
// retry-once-after-429-aware fetch logic, generalized from loose top-level
// functions into per-source closures this stage runs concurrently.
type SubdomainsStage struct {
	UserAgent string
}

func (SubdomainsStage) Name() string { return "subdomains" }

type subdomainSource struct {
	name string
	fn   func(ctx context.Context, domain, userAgent string) ([]string, error)
}

var subdomainSources = []subdomainSource{
	{"crtsh", crtshEnumerate},
	{"hackertarget", hackertargetEnumerate},
	{"otx", otxEnumerate},
	{"brute", bruteEnumerate},
}

func (s SubdomainsStage) Execute(ctx context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult {
	ctx, cancel := context.WithTimeout(ctx, cfg.StageTimeout("subdomains"))
	defer cancel()

	userAgent := s.UserAgent
	if userAgent == "" {
		userAgent = cfg.UserAgent
	}
	if userAgent == "" {
		userAgent = "reconctl/1.0"
	}

	individual := make(map[string]model.ToolResult, len(subdomainSources))
	var (
		mu      sync.Mutex
		allHost = map[string]bool{}
		sources = map[string]bool{}
	)

	var wg sync.WaitGroup
	for _, src := range subdomainSources {
		wg.Add(1)
		go func(src subdomainSource) {
			defer wg.Done()
			hosts, err := src.fn(ctx, target.Host, userAgent)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				individual[src.name] = model.ToolResult{Status: model.StatusError, Error: err.Error()}
				return
			}
			if len(hosts) == 0 {
				individual[src.name] = model.ToolResult{Status: model.StatusEmpty}
				return
			}
			for _, h := range hosts {
				allHost[h] = true
			}
			sources[src.name] = true
			individual[src.name] = model.ToolResult{Status: model.StatusOK, Data: map[string]interface{}{"count": len(hosts)}}
		}(src)
	}
	wg.Wait()

	list := make([]string, 0, len(allHost))
	for h := range allHost {
		list = append(list, h)
	}
	list = sortedUnique(list)

	srcList := make([]string, 0, len(sources))
	for s := range sources {
		srcList = append(srcList, s)
	}
	srcList = sortedUnique(srcList)

	aggregated := map[string]interface{}{
		"total":   len(list),
		"list":    list,
		"sources": srcList,
	}

	if len(list) == 0 {
		r := model.NewEmpty()
		return r.WithIndividualAggregated(individual, aggregated)
	}

	r := model.NewOK(nil)
	return r.WithIndividualAggregated(individual, aggregated)
}

// --- crt.sh --------------------------------------------------------------

type crtshEntry struct {
	NameValue string `json:"name_value"`
}

func crtshEnumerate(ctx context.Context, domain, userAgent string) ([]string, error) {
	url := fmt.Sprintf("https://crt.sh/?q=%%25.%s&output=json", domain)
	body, err := fetchWithRetry(ctx, url, userAgent, 30*time.Second, 50*1024*1024, 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("crt.sh fetch for %s: %w", domain, err)
	}

	var entries []crtshEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("crt.sh JSON parse for %s: %w", domain, err)
	}

	seen := make(map[string]bool)
	var hosts []string
	for _, entry := range entries {
		for _, name := range strings.Split(entry.NameValue, "\n") {
			name = strings.TrimSpace(strings.ToLower(name))
			name = strings.TrimPrefix(name, "*.")
			if name == "" {
				continue
			}
			if !strings.HasSuffix(name, "."+domain) && name != domain {
				continue
			}
			if !seen[name] {
				seen[name] = true
				hosts = append(hosts, name)
			}
		}
	}
	return hosts, nil
}

// --- hackertarget ----------------------------------------------------------

func hackertargetEnumerate(ctx context.Context, domain, userAgent string) ([]string, error) {
	url := fmt.Sprintf("https://api.hackertarget.com/hostsearch/?q=%s", domain)
	body, err := fetchWithRetry(ctx, url, userAgent, 10*time.Second, 5*1024*1024, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("hackertarget fetch for %s: %w", domain, err)
	}
	if strings.Contains(string(body), "API count exceeded") {
		return nil, fmt.Errorf("hackertarget: API count exceeded")
	}

	seen := make(map[string]bool)
	var hosts []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		host := strings.ToLower(strings.TrimSpace(parts[0]))
		if host == "" {
			continue
		}
		if !strings.HasSuffix(host, "."+domain) && host != domain {
			continue
		}
		if !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}
	return hosts, nil
}

// --- AlienVault OTX ---------------------------------------------------------

type otxResponse struct {
	PassiveDNS []struct {
		Hostname string `json:"hostname"`
	} `json:"passive_dns"`
}

func otxEnumerate(ctx context.Context, domain, userAgent string) ([]string, error) {
	url := fmt.Sprintf("https://otx.alienvault.com/api/v1/indicators/domain/%s/passive_dns", domain)
	body, err := fetchWithRetry(ctx, url, userAgent, 15*time.Second, 10*1024*1024, 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("otx fetch for %s: %w", domain, err)
	}

	var resp otxResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("otx JSON parse: %w", err)
	}

	seen := make(map[string]bool)
	var hosts []string
	for _, entry := range resp.PassiveDNS {
		host := strings.ToLower(strings.TrimSpace(entry.Hostname))
		if host == "" {
			continue
		}
		if !strings.HasSuffix(host, "."+domain) && host != domain {
			continue
		}
		if !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}
	return hosts, nil
}

// --- DNS brute-force --------------------------------------------------------

func bruteEnumerate(ctx context.Context, domain, _ string) ([]string, error) {
	words := wordlist.Subdomains()
	if len(words) == 0 {
		return nil, fmt.Errorf("empty subdomain wordlist")
	}

	work := make(chan string, len(words))
	for _, w := range words {
		work <- fmt.Sprintf("%s.%s", w, domain)
	}
	close(work)

	var (
		mu    sync.Mutex
		found []string
	)

	const concurrency = 20
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for candidate := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}
				ips, err := net.DefaultResolver.LookupHost(ctx, candidate)
				if err != nil || len(ips) == 0 {
					continue
				}
				mu.Lock()
				found = append(found, strings.ToLower(candidate))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return found, nil
}

// --- shared fetch helper -----------------------------------------------------

// fetchWithRetry performs one GET, retrying once after delay unless the
// failure was a 429, matching the retry policy common to all three
// HTTP-based sources in the teacher's recon package.
func fetchWithRetry(ctx context.Context, url, userAgent string, timeout time.Duration, maxBody int64, retryDelay time.Duration) ([]byte, error) {
	body, err := doFetch(ctx, url, userAgent, timeout, maxBody)
	if err == nil {
		return body, nil
	}
	if strings.Contains(err.Error(), "429") {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(retryDelay):
	}
	return doFetch(ctx, url, userAgent, timeout, maxBody)
}

func doFetch(ctx context.Context, url, userAgent string, timeout time.Duration, maxBody int64) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}
