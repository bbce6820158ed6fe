package middleware

import (
	"net"
	"net/http"
	"strings"
)

// RealIP returns the requester address, preferring the configured proxy
// header over the socket address.
func RealIP(r *http.Request, header string) string {
	if header != "" {
		if ip := strings.TrimSpace(r.Header.Get(header)); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
