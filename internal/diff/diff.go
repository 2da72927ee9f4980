// Package diff implements DiffDetector, the deterministic comparison
// between two fingerprints of the same host, per spec.md §4.6.
package diff

import (
	"sort"
	"time"

	"github.com/reconctl/reconctl/internal/model"
)

// Compute produces a Diff between a previous and current fingerprint, using
// previousScan/currentScan as the two reports' identifying keys (typically
// RFC3339 timestamps or report IDs), stamped with the given timestamp.
func Compute(previous, current model.Fingerprint, previousScan, currentScan string, timestamp time.Time) model.Diff {
	changes := map[string]*model.ChangeSet{}

	setDiff := func(key string, prev, curr []string) {
		cs := setChangeSet(prev, curr)
		if !cs.IsEmpty() {
			changes[key] = cs
		}
	}

	setDiff("ipv4", previous.Infrastructure.IPs.IPv4, current.Infrastructure.IPs.IPv4)
	setDiff("ipv6", previous.Infrastructure.IPs.IPv6, current.Infrastructure.IPs.IPv6)
	setDiff("nameservers", previous.Infrastructure.Nameservers, current.Infrastructure.Nameservers)
	setDiff("mailServers", previous.Infrastructure.MailServers, current.Infrastructure.MailServers)
	setDiff("subdomains", previous.AttackSurface.Subdomains.List, current.AttackSurface.Subdomains.List)
	setDiff("paths", pathStrings(previous.AttackSurface.DiscoveredPaths.List), pathStrings(current.AttackSurface.DiscoveredPaths.List))
	setDiff("technologies.detected", previous.Technologies.Detected, current.Technologies.Detected)
	setDiff("openPorts.port", portStrings(previous.AttackSurface.OpenPorts), portStrings(current.AttackSurface.OpenPorts))
	setDiff("danglingCnames", danglingCNAMEStrings(previous.AttackSurface.DanglingCNAMEs), danglingCNAMEStrings(current.AttackSurface.DanglingCNAMEs))

	var severity model.Severity

	newSubdomains := len(added(previous.AttackSurface.Subdomains.List, current.AttackSurface.Subdomains.List))
	newPorts := added(portStrings(previous.AttackSurface.OpenPorts), portStrings(current.AttackSurface.OpenPorts))
	newDanglingCNAMEs := added(danglingCNAMEStrings(previous.AttackSurface.DanglingCNAMEs), danglingCNAMEStrings(current.AttackSurface.DanglingCNAMEs))

	certRotated := false
	if cs := certificateChangeSet(previous.Infrastructure.Certificate, current.Infrastructure.Certificate); cs != nil {
		changes["certificate"] = cs
		certRotated = true
	}

	if cs := scalarChangeSet(previous.Security.TLS.Grade, current.Security.TLS.Grade); cs != nil {
		changes["tls.grade"] = cs
	}

	vulnDelta := current.Security.Vulnerabilities.Count - previous.Security.Vulnerabilities.Count
	if vulnDelta != 0 {
		changes["vulnerabilities.count"] = &model.ChangeSet{Old: previous.Security.Vulnerabilities.Count, New: current.Security.Vulnerabilities.Count}
	}

	primaryIPChanged := primaryIP(previous) != primaryIP(current)

	switch {
	case vulnDelta > 0 || len(newDanglingCNAMEs) > 0:
		severity = model.SeverityCritical
	}
	if len(newPorts) > 0 || primaryIPChanged {
		severity = model.MaxSeverity(severity, model.SeverityHigh)
	}
	if certRotated || newSubdomains > 10 || techAdded(previous, current) ||
		hasAny(changes, "ipv4", "ipv6", "mailServers", "nameservers") {
		severity = model.MaxSeverity(severity, model.SeverityMedium)
	}
	if len(changes) > 0 {
		severity = model.MaxSeverity(severity, model.SeverityLow)
	}

	return model.Diff{
		Timestamp:    timestamp,
		PreviousScan: previousScan,
		CurrentScan:  currentScan,
		Changes:      changes,
		Summary: model.DiffSummary{
			TotalChanges:             len(changes),
			Severity:                 severity,
			HasInfrastructureChanges: hasAny(changes, "ipv4", "ipv6", "nameservers", "mailServers", "certificate"),
			HasAttackSurfaceChanges:  hasAny(changes, "subdomains", "paths", "openPorts.port", "danglingCnames"),
			HasSecurityChanges:       hasAny(changes, "tls.grade", "vulnerabilities.count", "technologies.detected"),
		},
	}
}

func hasAny(changes map[string]*model.ChangeSet, keys ...string) bool {
	for _, k := range keys {
		if _, ok := changes[k]; ok {
			return true
		}
	}
	return false
}

func techAdded(previous, current model.Fingerprint) bool {
	return len(added(previous.Technologies.Detected, current.Technologies.Detected)) > 0 ||
		len(added(previous.Technologies.Frameworks, current.Technologies.Frameworks)) > 0
}

func primaryIP(fp model.Fingerprint) string {
	if len(fp.Infrastructure.IPs.IPv4) > 0 {
		return fp.Infrastructure.IPs.IPv4[0]
	}
	if len(fp.Infrastructure.IPs.IPv6) > 0 {
		return fp.Infrastructure.IPs.IPv6[0]
	}
	return ""
}

func setChangeSet(prev, curr []string) *model.ChangeSet {
	add := added(prev, curr)
	rem := added(curr, prev)
	if len(add) == 0 && len(rem) == 0 {
		return &model.ChangeSet{}
	}
	return &model.ChangeSet{Added: add, Removed: rem}
}

// added returns curr \ prev, sorted, satisfying the deterministic-output
// invariant in spec.md §4.6.
func added(prev, curr []string) []string {
	prevSet := map[string]bool{}
	for _, p := range prev {
		prevSet[p] = true
	}
	var out []string
	for _, c := range curr {
		if !prevSet[c] {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

func scalarChangeSet(prev, curr string) *model.ChangeSet {
	if prev == curr {
		return nil
	}
	return &model.ChangeSet{Old: prev, New: curr}
}

func certificateChangeSet(prev, curr *model.Certificate) *model.ChangeSet {
	if prev == nil && curr == nil {
		return nil
	}
	if prev == nil || curr == nil {
		return &model.ChangeSet{Old: prev, New: curr}
	}
	if prev.Fingerprint == curr.Fingerprint {
		return nil
	}
	return &model.ChangeSet{
		Old: map[string]interface{}{"issuer": prev.Issuer, "validTo": prev.ValidTo, "fingerprint": prev.Fingerprint},
		New: map[string]interface{}{"issuer": curr.Issuer, "validTo": curr.ValidTo, "fingerprint": curr.Fingerprint},
		Added:   added(prev.SANs, curr.SANs),
		Removed: added(curr.SANs, prev.SANs),
	}
}

func portStrings(ports []model.OpenPort) []string {
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = p.Port
	}
	return out
}

func pathStrings(paths []model.PathRecord) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.Path
	}
	return out
}

func danglingCNAMEStrings(cnames []model.DanglingCNAME) []string {
	out := make([]string, len(cnames))
	for i, c := range cnames {
		out[i] = c.Host + "->" + c.CNAME
	}
	return out
}
