package stages

import "sync"

// ProbeCache shares one HTTP probe's raw response data between the http
// stage and the fingerprint stage so the latter doesn't re-request the
// target, grounded on the teacher's HTTPProbeResult.ProbeData map in
// internal/recon/httpprobe.go (there keyed by URL across a batch of ports;
// here keyed by host since each scan probes exactly one canonical URL).
type ProbeCache struct {
	mu   sync.Mutex
	data map[string]*probeData
}

func NewProbeCache() *ProbeCache {
	return &ProbeCache{data: make(map[string]*probeData)}
}

func (c *ProbeCache) Set(host string, pd *probeData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[host] = pd
}

func (c *ProbeCache) Get(host string) *probeData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[host]
}
