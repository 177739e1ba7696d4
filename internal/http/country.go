package http

import (
	"net"
	"net/http"
)

// DetectCountry guesses the caller's country. Presentational only: it feeds
// the display-settings table, never settlement math. The X-Test-Country
// header short-circuits detection for local testing.
func DetectCountry(r *http.Request) string {
	if c := r.Header.Get("X-Test-Country"); c != "" {
		return c
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() {
		return "US"
	}
	return "IQ"
}
