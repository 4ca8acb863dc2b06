package vectorutils

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// qdrantTarget parses a target URL or host:port pair into the pieces the
// Qdrant gRPC client needs. Accepts "host", "host:port", and
// "scheme://host:port" forms; an https scheme enables TLS.
func qdrantTarget(target string) (host string, port int, useTLS bool, err error) {
	if target == "" {
		return "", 0, false, fmt.Errorf("qdrant target URL is required")
	}

	raw := target
	if u, parseErr := url.Parse(target); parseErr == nil && u.Host != "" {
		raw = u.Host
		useTLS = u.Scheme == "https"
	}

	host, portStr, splitErr := net.SplitHostPort(raw)
	if splitErr != nil {
		// No port given, use the driver default.
		return raw, 0, useTLS, nil
	}

	port, err = strconv.Atoi(portStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}

	return host, port, useTLS, nil
}
