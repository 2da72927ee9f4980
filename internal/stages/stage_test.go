package stages

import (
	"regexp"
	"testing"
)

func TestSortedUnique(t *testing.T) {
	got := sortedUnique([]string{"b", "a", "b", "", "c", "a"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMatchesRule_HeaderPattern(t *testing.T) {
	rule := fingerprintRule{
		Name: "nginx",
		Headers: []headerMatch{{Name: "server", Pattern: "nginx"}},
	}
	rule.Headers[0].regex = regexp.MustCompile("(?i)nginx")

	data := &probeData{Headers: map[string]string{"server": "nginx/1.21.0"}}
	if !matchesRule(rule, data) {
		t.Fatal("expected nginx rule to match")
	}

	data2 := &probeData{Headers: map[string]string{"server": "Apache/2.4"}}
	if matchesRule(rule, data2) {
		t.Fatal("expected nginx rule not to match Apache server header")
	}
}

func TestMatchesRule_BodySubstring(t *testing.T) {
	rule := fingerprintRule{Name: "WordPress", Body: []string{"wp-content"}}
	data := &probeData{Body: "<html>...wp-content/themes/x...</html>"}
	if !matchesRule(rule, data) {
		t.Fatal("expected wp-content body match")
	}
}

func TestMatchesRule_CookieName(t *testing.T) {
	rule := fingerprintRule{Name: "Django", Cookies: []string{"csrftoken"}}
	data := &probeData{Cookies: []string{"sessionid", "CSRFTOKEN"}}
	if !matchesRule(rule, data) {
		t.Fatal("expected case-insensitive cookie match")
	}
}

func TestGradeFor(t *testing.T) {
	if g := gradeFor([]string{"TLS 1.3"}, nil); g != "A+" {
		t.Errorf("grade = %q, want A+", g)
	}
	if g := gradeFor([]string{"TLS 1.0", "TLS 1.3"}, []string{"TLS 1.0 is supported and considered obsolete"}); g != "B" {
		t.Errorf("grade = %q, want B", g)
	}
}

func TestExtractField(t *testing.T) {
	raw := "Domain Name: EXAMPLE.COM\nRegistrar: Example Registrar\nCreation Date: 1995-08-14T04:00:00Z\n"
	if got := extractField(raw, "Registrar:"); got != "Example Registrar" {
		t.Errorf("Registrar = %q", got)
	}
	if got := extractField(raw, "Creation Date:"); got != "1995-08-14T04:00:00Z" {
		t.Errorf("Creation Date = %q", got)
	}
}
