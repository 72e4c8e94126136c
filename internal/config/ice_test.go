package config

import (
	"testing"
)

func TestParseICEServersJSON(t *testing.T) {
	raw := `[
		{"urls": "stun:stun.l.google.com:19302"},
		{"urls": ["turn:turn.example.com:3478?transport=udp", "turns:turn.example.com:5349"], "username": "u", "credential": "c"}
	]`
	servers, err := ParseICEServersJSON(raw, false)
	if err != nil {
		t.Fatalf("ParseICEServersJSON: %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("got %d servers, want 2", len(servers))
	}
	if len(servers[0].URLs) != 1 || servers[0].URLs[0] != "stun:stun.l.google.com:19302" {
		t.Errorf("server 0 URLs = %v", servers[0].URLs)
	}
	if servers[1].Username != "u" {
		t.Errorf("server 1 Username = %q, want u", servers[1].Username)
	}
	if cred, ok := servers[1].Credential.(string); !ok || cred != "c" {
		t.Errorf("server 1 Credential = %v, want c", servers[1].Credential)
	}
}

func TestParseICEServersJSONRejectsTURNWithoutCredentials(t *testing.T) {
	raw := `[{"urls": "turn:turn.example.com:3478"}]`
	if _, err := ParseICEServersJSON(raw, false); err == nil {
		t.Fatal("accepted TURN server without credentials")
	}
	// With TURN REST enabled the HTTP layer injects ephemeral credentials.
	if _, err := ParseICEServersJSON(raw, true); err != nil {
		t.Fatalf("rejected credential-less TURN server with TURN REST enabled: %v", err)
	}
}

func TestParseICEServersJSONRejectsBadScheme(t *testing.T) {
	for _, raw := range []string{
		`[{"urls": "http://example.com"}]`,
		`[{"urls": ""}]`,
		`[{"urls": []}]`,
		`not json`,
	} {
		if _, err := ParseICEServersJSON(raw, false); err == nil {
			t.Errorf("ParseICEServersJSON(%q) accepted invalid input", raw)
		}
	}
}

func TestParseICEServersConvenienceValues(t *testing.T) {
	servers, err := parseICEServersFromValues(
		"",
		"stun:stun1.example.com:3478, stun:stun2.example.com:3478",
		"turn:turn.example.com:3478",
		"u", "c",
		false,
	)
	if err != nil {
		t.Fatalf("parseICEServersFromValues: %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("got %d servers, want 2", len(servers))
	}
	if len(servers[0].URLs) != 2 {
		t.Errorf("STUN URLs = %v, want 2 entries", servers[0].URLs)
	}
	if servers[1].Username != "u" {
		t.Errorf("TURN Username = %q, want u", servers[1].Username)
	}
}

func TestParseICEServersJSONConfigWinsOverConvenience(t *testing.T) {
	servers, err := parseICEServersFromValues(
		`[{"urls": "stun:json.example.com:3478"}]`,
		"stun:ignored.example.com:3478",
		"", "", "",
		false,
	)
	if err != nil {
		t.Fatalf("parseICEServersFromValues: %v", err)
	}
	if len(servers) != 1 || servers[0].URLs[0] != "stun:json.example.com:3478" {
		t.Errorf("servers = %v, want only the JSON-configured entry", servers)
	}
}
