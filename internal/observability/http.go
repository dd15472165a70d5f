package observability

import (
	"net"
	"net/http"
	"strings"
)

// ClientDevice returns the device id the client advertised, if any.
func ClientDevice(r *http.Request) string {
	return r.Header.Get("X-Device-Id")
}

// ClientRequestID returns the inbound correlation id, if any.
func ClientRequestID(r *http.Request) string {
	return r.Header.Get("X-Request-Id")
}

// ClientIP resolves the originating address, preferring the first entry of
// X-Forwarded-For over the socket peer.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
