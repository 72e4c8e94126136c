// Package origin implements the browser Origin policy for the signaling
// endpoints: explicit allowlist when configured, same-host otherwise.
package origin

import (
	"net/url"
	"strconv"
	"strings"
)

// Allowed validates a browser Origin header against the request host and the
// configured allowlist. It returns the normalized origin
// (scheme://host[:port]) for use in CORS response headers.
//
// Allowlist entries must be "*" or normalized origins. With an empty
// allowlist the policy is same host:port; the scheme is deliberately not
// compared because the server may sit behind a TLS-terminating proxy and see
// the request as HTTP while the browser Origin is HTTPS.
func Allowed(originHeader, requestHost string, allowlist []string) (string, bool) {
	normalized, originHost, scheme, ok := normalize(originHeader)
	if !ok {
		return "", false
	}

	if len(allowlist) > 0 {
		for _, entry := range allowlist {
			if entry == "*" || entry == normalized {
				return normalized, true
			}
		}
		return "", false
	}

	if normalized == "null" {
		// "null" cannot match a host-based request under the default policy.
		return "", false
	}

	reqHost, ok := normalizeHost(requestHost, scheme)
	if !ok || originHost != reqHost {
		return "", false
	}
	return normalized, true
}

func normalize(originHeader string) (normalized, host, scheme string, ok bool) {
	trimmed := strings.TrimSpace(originHeader)
	if trimmed == "" {
		return "", "", "", false
	}
	if trimmed == "null" {
		return "null", "", "", true
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", "", "", false
	}
	if u.User != nil || u.RawQuery != "" || u.Fragment != "" {
		return "", "", "", false
	}
	if u.Path != "" && u.Path != "/" {
		return "", "", "", false
	}

	scheme = strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", "", false
	}

	host, ok = normalizeHost(u.Host, scheme)
	if !ok {
		return "", "", "", false
	}
	return scheme + "://" + host, host, scheme, true
}

// normalizeHost lowercases a host[:port] authority, validates the port, and
// strips the scheme's default port so equivalent origins compare equal.
func normalizeHost(rawHost, scheme string) (string, bool) {
	hostname, rawPort, ok := splitHostPort(strings.ToLower(strings.TrimSpace(rawHost)))
	if !ok || hostname == "" {
		return "", false
	}

	var port uint64
	if rawPort != "" {
		n, err := strconv.ParseUint(rawPort, 10, 16)
		if err != nil || n == 0 {
			return "", false
		}
		port = n
	}
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		port = 0
	}

	host := hostname
	if strings.Contains(hostname, ":") {
		host = "[" + hostname + "]"
	}
	if port != 0 {
		host = host + ":" + strconv.FormatUint(port, 10)
	}
	return host, true
}

// splitHostPort splits an authority host[:port] string. The hostname is
// returned without brackets for IPv6 literals; the port is empty when absent.
func splitHostPort(rawHost string) (hostname, port string, ok bool) {
	if rawHost == "" {
		return "", "", false
	}

	if strings.HasPrefix(rawHost, "[") {
		end := strings.IndexByte(rawHost, ']')
		if end < 0 {
			return "", "", false
		}
		hostname = rawHost[1:end]
		rest := rawHost[end+1:]
		if rest == "" {
			return hostname, "", true
		}
		if !strings.HasPrefix(rest, ":") || len(rest) == 1 {
			return "", "", false
		}
		return hostname, rest[1:], true
	}

	switch strings.Count(rawHost, ":") {
	case 0:
		return rawHost, "", true
	case 1:
		i := strings.IndexByte(rawHost, ':')
		if i == 0 || i == len(rawHost)-1 {
			return "", "", false
		}
		return rawHost[:i], rawHost[i+1:], true
	default:
		// Unbracketed IPv6 literals are not valid in the authority component.
		return "", "", false
	}
}
