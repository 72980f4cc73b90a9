package server

import (
	"net"
	"net/http"
	"strings"
)

// clientIP returns the first X-Forwarded-For hop, falling back to the peer address.
// IPv6 loopback becomes 127.0.0.1 and IPv4-mapped addresses lose their ::ffff: prefix.
func clientIP(r *http.Request) string {
	ip := ""
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if ip == "" {
		ip = r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}
	}
	return normaliseIP(ip)
}

func normaliseIP(ip string) string {
	if ip == "::1" {
		return "127.0.0.1"
	}
	return strings.TrimPrefix(ip, "::ffff:")
}
