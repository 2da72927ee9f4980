package target

import "testing"

func TestNormalize_Variants(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{name: "bare host", input: "example.com", wantHost: "example.com", wantPort: 443},
		{name: "host with port", input: "example.com:8443", wantHost: "example.com", wantPort: 8443},
		{name: "full https url", input: "https://example.com/admin", wantHost: "example.com", wantPort: 443},
		{name: "full http url", input: "http://example.com", wantHost: "example.com", wantPort: 80},
		{name: "uppercase host", input: "EXAMPLE.com", wantHost: "example.com", wantPort: 443},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Host != tt.wantHost {
				t.Errorf("host = %q, want %q", got.Host, tt.wantHost)
			}
			if got.Port != tt.wantPort {
				t.Errorf("port = %d, want %d", got.Port, tt.wantPort)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"example.com", "example.com:8080", "https://example.com/path", "sub.example.com"}
	for _, in := range inputs {
		first, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		second, err := Normalize(first.Original)
		if err != nil {
			t.Fatalf("Normalize(%q).Original re-normalize: %v", in, err)
		}
		if first != second {
			t.Errorf("not idempotent for %q: first=%+v second=%+v", in, first, second)
		}
	}
}
