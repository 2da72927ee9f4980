package stages

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/reconctl/reconctl/internal/model"
)

// commonPaths is the built-in fuzz list for the webDiscovery stage,
// deliberately small and well-known (robots.txt, common admin/config
// endpoints) rather than a large brute-force wordlist, since unlike
// subdomain enumeration this stage probes a single host repeatedly and
// should stay polite by default (spec.md's rate-limit intent).
var commonPaths = []string{
	"/robots.txt",
	"/sitemap.xml",
	"/.git/config",
	"/.env",
	"/admin",
	"/administrator",
	"/wp-admin",
	"/wp-login.php",
	"/login",
	"/api",
	"/api/v1",
	"/graphql",
	"/swagger.json",
	"/swagger-ui.html",
	"/.well-known/security.txt",
	"/backup",
	"/config.php",
	"/phpinfo.php",
	"/server-status",
	"/.htaccess",
}

// pathKind classifies a discovered path per spec.md §4.4's webDiscovery
// aggregation rule: directory if it ends in "/", else file.
func pathKind(path string) string {
	if strings.HasSuffix(path, "/") {
		return "directory"
	}
	return "file"
}

// WebDiscoveryStage probes a small fixed set of common paths and keeps the
// ones that return a status other than 404 and below 500, generalized from the teacher's
// worker-pool-over-work-channel shape in internal/recon/httpprobe.go to a
// single-host path sweep instead of a multi-port service probe.
type WebDiscoveryStage struct{}

func (WebDiscoveryStage) Name() string { return "webDiscovery" }

func (WebDiscoveryStage) Execute(ctx context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult {
	ctx, cancel := context.WithTimeout(ctx, cfg.StageTimeout("webDiscovery"))
	defer cancel()

	scheme := target.Protocol
	if scheme == "" {
		scheme = "https"
	}
	base := fmt.Sprintf("%s://%s", scheme, target.Host)
	if target.Port != 0 && target.Port != model.DefaultPort(scheme) {
		base = fmt.Sprintf("%s:%d", base, target.Port)
	}

	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	items := make(chan string, len(commonPaths))
	for _, p := range commonPaths {
		items <- p
	}
	close(items)

	var (
		mu    sync.Mutex
		found []model.PathRecord
	)

	concurrency := 5
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range items {
				select {
				case <-ctx.Done():
					return
				default:
				}
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
				if err != nil {
					continue
				}
				req.Header.Set("User-Agent", cfg.UserAgent)
				resp, err := client.Do(req)
				if err != nil {
					continue
				}
				resp.Body.Close()
				if resp.StatusCode != http.StatusNotFound && resp.StatusCode < 500 {
					mu.Lock()
					found = append(found, model.PathRecord{Path: path, Kind: pathKind(path)})
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })

	if len(found) == 0 {
		return model.NewEmpty()
	}
	return model.NewOK(map[string]interface{}{
		"total": len(found),
		"list":  found,
	})
}
