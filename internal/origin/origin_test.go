package origin

import "testing"

func TestAllowed_Allowlist(t *testing.T) {
	allow := []string{"https://app.example.com"}

	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"exact match", "https://app.example.com", "signal.example.com", true},
		{"default port stripped", "https://app.example.com:443", "signal.example.com", true},
		{"case-insensitive host", "https://APP.Example.COM", "signal.example.com", true},
		{"other origin rejected", "https://evil.example.com", "signal.example.com", false},
		{"null rejected unless listed", "null", "signal.example.com", false},
		{"garbage rejected", "not a url", "signal.example.com", false},
		{"non-http scheme rejected", "ftp://app.example.com", "signal.example.com", false},
		{"path rejected", "https://app.example.com/x", "signal.example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := Allowed(tt.origin, tt.host, allow)
			if got != tt.want {
				t.Fatalf("Allowed(%q)=%v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestAllowed_Wildcard(t *testing.T) {
	if _, ok := Allowed("https://anything.example", "host", []string{"*"}); !ok {
		t.Fatalf("wildcard must allow any valid origin")
	}
	if _, ok := Allowed("not a url", "host", []string{"*"}); ok {
		t.Fatalf("wildcard must still reject malformed origins")
	}
}

func TestAllowed_DefaultSameHost(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"same host", "http://localhost:8080", "localhost:8080", true},
		{"default http port", "http://example.com", "example.com:80", true},
		{"scheme not compared", "https://example.com", "example.com", true},
		{"different port", "http://localhost:3000", "localhost:8080", false},
		{"different host", "http://other.com", "example.com", false},
		{"ipv6 literal", "http://[::1]:8080", "[::1]:8080", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := Allowed(tt.origin, tt.host, nil)
			if got != tt.want {
				t.Fatalf("Allowed(%q, %q)=%v, want %v", tt.origin, tt.host, got, tt.want)
			}
		})
	}
}

func TestAllowed_NormalizedOriginReturned(t *testing.T) {
	normalized, ok := Allowed("https://App.Example.com:443", "x", []string{"https://app.example.com"})
	if !ok || normalized != "https://app.example.com" {
		t.Fatalf("normalized=%q ok=%v", normalized, ok)
	}
}
