package model

// Fingerprint is the canonical per-host summary derived from all stage
// results, per spec.md §3. Every list field is sorted and deduplicated, and
// is `[]` rather than absent when empty, so diffs stay stable (spec.md §8.2).
type Fingerprint struct {
	Infrastructure Infrastructure `json:"infrastructure"`
	AttackSurface  AttackSurface  `json:"attackSurface"`
	Technologies   Technologies   `json:"technologies"`
	Security       Security       `json:"security"`
}

type Infrastructure struct {
	IPs          IPSet         `json:"ips"`
	Nameservers  []string      `json:"nameservers"`
	MailServers  []string      `json:"mailServers"`
	TXTRecords   []string      `json:"txtRecords"`
	Certificate  *Certificate  `json:"certificate"`
	Latency      *Latency      `json:"latency"`
}

type IPSet struct {
	IPv4 []string `json:"ipv4"`
	IPv6 []string `json:"ipv6"`
}

type Certificate struct {
	Issuer      string   `json:"issuer"`
	Subject     string   `json:"subject"`
	ValidFrom   string   `json:"validFrom"`
	ValidTo     string   `json:"validTo"`
	Fingerprint string   `json:"fingerprint"`
	SANs        []string `json:"sans"`
}

type Latency struct {
	Ping       *PingStats `json:"ping"`
	Traceroute []string   `json:"traceroute"`
}

type PingStats struct {
	PacketsSent int     `json:"packetsSent"`
	PacketLoss  float64 `json:"packetLoss"`
	MinMS       float64 `json:"minMs"`
	AvgMS       float64 `json:"avgMs"`
	MaxMS       float64 `json:"maxMs"`
	StddevMS    float64 `json:"stddevMs"`
}

type AttackSurface struct {
	OpenPorts       []OpenPort       `json:"openPorts"`
	Subdomains      SubdomainSet     `json:"subdomains"`
	DiscoveredPaths DiscoveredPaths  `json:"discoveredPaths"`
	DanglingCNAMEs  []DanglingCNAME  `json:"danglingCnames"`
}

// DanglingCNAME flags a CNAME pointing at a takeover-susceptible provider
// (e.g. an unclaimed S3 bucket or GitHub Pages site) whose target no longer
// resolves, a subdomain-takeover candidate.
type DanglingCNAME struct {
	Host   string `json:"host"`
	CNAME  string `json:"cname"`
	Status string `json:"status"` // "nxdomain" | "servfail"
}

type OpenPort struct {
	Port    string `json:"port"`
	Service string `json:"service,omitempty"`
}

type SubdomainSet struct {
	Total   int      `json:"total"`
	List    []string `json:"list"`
	Sources []string `json:"sources"`
}

type DiscoveredPaths struct {
	Total int          `json:"total"`
	List  []PathRecord `json:"list"`
}

type PathRecord struct {
	Path string `json:"path"`
	Kind string `json:"kind"` // "directory" | "file"
}

type Technologies struct {
	Server     string       `json:"server"`
	PoweredBy  string       `json:"poweredBy"`
	Detected   []string     `json:"detected"`
	CMS        string       `json:"cms"`
	Frameworks []string     `json:"frameworks"`
	OSINT      OSINTSummary `json:"osint"`
}

type OSINTSummary struct {
	Emails   []string `json:"emails"`
	Profiles []string `json:"profiles"`
	URLs     []string `json:"urls"`
}

type Security struct {
	TLS             TLSSummary      `json:"tls"`
	Vulnerabilities VulnSummary     `json:"vulnerabilities"`
	Headers         SecurityHeaders `json:"headers"`
}

type TLSSummary struct {
	Grade     string   `json:"grade,omitempty"`
	Protocols []string `json:"protocols"`
	Ciphers   []CipherInfo `json:"ciphers"`
	Findings  []string `json:"findings"`
}

type CipherInfo struct {
	Name     string `json:"name"`
	Strength string `json:"strength"` // strong | medium | weak
}

type VulnSummary struct {
	Count    int      `json:"count"`
	Findings []string `json:"findings"`
}

type SecurityHeaders struct {
	HSTS                bool `json:"hsts"`
	CSP                 bool `json:"csp"`
	XFrameOptions       bool `json:"xFrameOptions"`
	XContentTypeOptions bool `json:"xContentTypeOptions"`
	XXSSProtection      bool `json:"xXssProtection"`
	ReferrerPolicy      bool `json:"referrerPolicy"`
}

// Empty returns a Fingerprint with every list field initialized to []
// rather than nil, satisfying spec.md's "never absent key" invariant.
func Empty() Fingerprint {
	return Fingerprint{
		Infrastructure: Infrastructure{
			IPs:         IPSet{IPv4: []string{}, IPv6: []string{}},
			Nameservers: []string{},
			MailServers: []string{},
			TXTRecords:  []string{},
		},
		AttackSurface: AttackSurface{
			OpenPorts:       []OpenPort{},
			Subdomains:      SubdomainSet{List: []string{}, Sources: []string{}},
			DiscoveredPaths: DiscoveredPaths{List: []PathRecord{}},
			DanglingCNAMEs:  []DanglingCNAME{},
		},
		Technologies: Technologies{
			Detected:   []string{},
			Frameworks: []string{},
			OSINT:      OSINTSummary{Emails: []string{}, Profiles: []string{}, URLs: []string{}},
		},
		Security: Security{
			TLS:     TLSSummary{Protocols: []string{}, Ciphers: []CipherInfo{}, Findings: []string{}},
			Vulnerabilities: VulnSummary{Findings: []string{}},
		},
	}
}
