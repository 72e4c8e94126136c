package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
)

const (
	envICEServersJSON = "HUDDLE_ICE_SERVERS_JSON"
	envStunURLs       = "HUDDLE_STUN_URLS"
	envTurnURLs       = "HUDDLE_TURN_URLS"
	envTurnUsername   = "HUDDLE_TURN_USERNAME"
	envTurnCredential = "HUDDLE_TURN_CREDENTIAL"
)

// iceServerJSON mirrors the RTCIceServer dictionary shape, with "urls"
// accepting either a single string or an array of strings.
type iceServerJSON struct {
	URLs       stringOrStringSlice `json:"urls"`
	Username   string              `json:"username,omitempty"`
	Credential string              `json:"credential,omitempty"`
}

type stringOrStringSlice []string

func (s *stringOrStringSlice) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("urls must be a string or an array of strings")
	}
	*s = many
	return nil
}

// parseICEServersFromValues resolves the ICE server list from the explicit
// JSON config when present, otherwise from the convenience STUN/TURN values.
// When TURN REST credentials are enabled, TURN entries may omit
// username/credential; the HTTP layer injects ephemeral ones per request.
func parseICEServersFromValues(iceJSON, stunURLs, turnURLs, turnUsername, turnCredential string, turnRESTEnabled bool) ([]webrtc.ICEServer, error) {
	if strings.TrimSpace(iceJSON) != "" {
		return ParseICEServersJSON(iceJSON, turnRESTEnabled)
	}

	var servers []webrtc.ICEServer
	if urls := splitCommaSeparated(stunURLs); len(urls) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: urls})
	}
	if urls := splitCommaSeparated(turnURLs); len(urls) > 0 {
		s := webrtc.ICEServer{URLs: urls}
		if turnUsername != "" {
			s.Username = turnUsername
		}
		if turnCredential != "" {
			s.Credential = turnCredential
		}
		servers = append(servers, s)
	}

	for i, s := range servers {
		if err := validateICEServer(s, turnRESTEnabled); err != nil {
			return nil, fmt.Errorf("ICE server %d: %w", i, err)
		}
	}
	return servers, nil
}

// ParseICEServersJSON parses a JSON array of RTCIceServer-shaped objects.
func ParseICEServersJSON(raw string, turnRESTEnabled bool) ([]webrtc.ICEServer, error) {
	var parsed []iceServerJSON
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envICEServersJSON, err)
	}

	servers := make([]webrtc.ICEServer, 0, len(parsed))
	for i, p := range parsed {
		s := webrtc.ICEServer{URLs: p.URLs}
		if p.Username != "" {
			s.Username = p.Username
		}
		if p.Credential != "" {
			s.Credential = p.Credential
		}
		if err := validateICEServer(s, turnRESTEnabled); err != nil {
			return nil, fmt.Errorf("invalid %s: server %d: %w", envICEServersJSON, i, err)
		}
		servers = append(servers, s)
	}
	return servers, nil
}

func validateICEServer(s webrtc.ICEServer, turnRESTEnabled bool) error {
	if len(s.URLs) == 0 {
		return fmt.Errorf("must have at least one URL")
	}

	hasTURN := false
	for _, u := range s.URLs {
		u = strings.TrimSpace(u)
		if u == "" {
			return fmt.Errorf("URL must not be empty")
		}
		scheme, _, ok := strings.Cut(u, ":")
		if !ok || !isAllowedICEScheme(scheme) {
			return fmt.Errorf("URL %q must use a stun/stuns/turn/turns scheme", u)
		}
		if scheme == "turn" || scheme == "turns" {
			hasTURN = true
		}
	}

	// Static TURN servers need long-term credentials; TURN REST mode mints
	// them per connection instead.
	if hasTURN && !turnRESTEnabled {
		if s.Username == "" || s.Credential == nil || s.Credential == "" {
			return fmt.Errorf("TURN server requires username and credential")
		}
	}
	return nil
}

func isAllowedICEScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "stun", "stuns", "turn", "turns":
		return true
	}
	return false
}

func splitCommaSeparated(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
