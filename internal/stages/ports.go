package stages

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/reconctl/reconctl/internal/model"
	"github.com/reconctl/reconctl/pkg/ports"
)

// commonServiceNames maps a handful of well-known ports to service labels
// without requiring a live service-banner grab.
var commonServiceNames = map[int]string{
	21: "ftp", 22: "ssh", 23: "telnet", 25: "smtp", 53: "dns",
	80: "http", 110: "pop3", 143: "imap", 443: "https", 445: "smb",
	587: "smtp-submission", 993: "imaps", 995: "pop3s",
	3306: "mysql", 3389: "rdp", 5432: "postgres", 6379: "redis",
	8080: "http-alt", 8443: "https-alt", 9200: "elasticsearch", 27017: "mongodb",
}

// PortsStage performs TCP-connect scanning against the target's resolved
// address, grounded on the teacher's PortScan in internal/recon/portscan.go
// (worker-pool dialer, open-only result set), generalized from a multi-host
// batch scan to the single-target shape this stage needs.
type PortsStage struct{}

func (PortsStage) Name() string { return "ports" }

func (PortsStage) Execute(ctx context.Context, target model.Target, cfg model.FeatureConfig) model.StageResult {
	ctx, cancel := context.WithTimeout(ctx, cfg.StageTimeout("ports"))
	defer cancel()

	scanPorts := cfg.Ports
	if len(scanPorts) == 0 {
		scanPorts = ports.Top100
	}

	ips, err := net.DefaultResolver.LookupHost(ctx, target.Host)
	if err != nil || len(ips) == 0 {
		return model.NewError("resolve", fmt.Errorf("could not resolve host for port scan: %w", err))
	}
	ip := ips[0]

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 20
	}

	work := make(chan int, len(scanPorts))
	for _, p := range scanPorts {
		work <- p
	}
	close(work)

	var (
		mu   sync.Mutex
		open []model.OpenPort
	)

	dialTimeout := 2 * time.Second
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dialer := net.Dialer{Timeout: dialTimeout}
			for port := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}
				addr := fmt.Sprintf("%s:%d", ip, port)
				conn, err := dialer.DialContext(ctx, "tcp", addr)
				if err != nil {
					continue
				}
				conn.Close()
				mu.Lock()
				open = append(open, model.OpenPort{
					Port:    fmt.Sprintf("%d", port),
					Service: commonServiceNames[port],
				})
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Slice(open, func(i, j int) bool { return open[i].Port < open[j].Port })
	if len(open) == 0 {
		return model.NewEmpty()
	}
	return model.NewOK(map[string]interface{}{"openPorts": open})
}
