package stages

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/reconctl/reconctl/internal/model"
)

var titleRegex = regexp.MustCompile(`(?i)<title[^>]*>\s*([^<]+)\s*</title>`)

const httpProbeMaxBody = 1024 * 1024

// probeData holds the raw HTTP response data consumed by the fingerprint
// stage, carried through the shared cache rather than recomputed, mirroring
// the teacher's probeData in internal/recon/httpprobe.go.
type probeData struct {
	Headers map[string]string
	Body    string
	Cookies []string
}

// httpClient builds the insecure-skip-verify client the teacher uses for
// recon probing (targets routinely present self-signed or mismatched certs).
func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// HTTPStage probes the target over HTTPS then HTTP, extracting the page
// title, Server header and security headers, grounded on the teacher's
// probeURL in internal/recon/httpprobe.go, generalized from a per-open-port
// batch probe to the single canonical target URL this stage needs.
type HTTPStage struct {
	// Cache receives the raw probe data so FingerprintStage can reuse it
	// without issuing a second request.
	Cache *ProbeCache
}

func (HTTPStage) Name() string { return "http" }

func (s HTTPStage) Execute(ctx context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult {
	ctx, cancel := context.WithTimeout(ctx, cfg.StageTimeout("http"))
	defer cancel()

	client := httpClient(cfg.StageTimeout("http"))
	schemes := []string{"https", "http"}
	if target.Protocol == "http" {
		schemes = []string{"http", "https"}
	}

	var lastErr error
	for _, scheme := range schemes {
		url := fmt.Sprintf("%s://%s", scheme, target.Host)
		if target.Port != 0 && target.Port != model.DefaultPort(scheme) {
			url = fmt.Sprintf("%s:%d", url, target.Port)
		}

		fields, pd, err := s.probe(ctx, client, url, cfg.UserAgent)
		if err != nil {
			lastErr = err
			continue
		}
		if s.Cache != nil {
			s.Cache.Set(target.Host, pd)
		}
		return model.NewOK(fields)
	}

	if lastErr != nil {
		return model.NewError("probe", lastErr)
	}
	return model.NewEmpty()
}

func (HTTPStage) probe(ctx context.Context, client *http.Client, url, userAgent string) (map[string]interface{}, *probeData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	if userAgent == "" {
		userAgent = "reconctl/1.0"
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, httpProbeMaxBody))
	bodyStr := string(body)

	title := ""
	if m := titleRegex.FindSubmatch(body); len(m) > 1 {
		title = strings.TrimSpace(string(m[1]))
	}

	headers := make(map[string]string, len(resp.Header))
	for name, vals := range resp.Header {
		if len(vals) > 0 {
			headers[strings.ToLower(name)] = vals[0]
		}
	}
	var cookies []string
	for _, c := range resp.Cookies() {
		cookies = append(cookies, c.Name)
	}

	fields := map[string]interface{}{
		"url":           url,
		"statusCode":    resp.StatusCode,
		"server":        resp.Header.Get("Server"),
		"poweredBy":     resp.Header.Get("X-Powered-By"),
		"title":         title,
		"contentLength": resp.ContentLength,
		"headers": securityHeaders(headers),
	}

	return fields, &probeData{Headers: headers, Body: bodyStr, Cookies: cookies}, nil
}

func securityHeaders(h map[string]string) model.SecurityHeaders {
	has := func(name string) bool { _, ok := h[name]; return ok }
	return model.SecurityHeaders{
		HSTS:                has("strict-transport-security"),
		CSP:                 has("content-security-policy"),
		XFrameOptions:       has("x-frame-options"),
		XContentTypeOptions: has("x-content-type-options"),
		XXSSProtection:      has("x-xss-protection"),
		ReferrerPolicy:      has("referrer-policy"),
	}
}
