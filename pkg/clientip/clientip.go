package clientip

import (
	"net"
	"net/http"
	"strings"
)

// DefaultHeaders are trusted when no headers are configured.
var DefaultHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// FromRequest returns the normalized client IP of r, or "" when none of
// headers nor RemoteAddr carry a valid address. X-Forwarded-For style
// lists yield their first valid entry.
func FromRequest(r *http.Request, headers ...string) string {
	if len(headers) == 0 {
		headers = DefaultHeaders
	}
	for _, name := range headers {
		v := r.Header.Get(name)
		if v == "" {
			continue
		}
		for part := range strings.SplitSeq(v, ",") {
			if ip := normalize(part); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

// Key returns a rate limit key function resolving the client IP.
func Key(headers ...string) func(*http.Request) string {
	return func(r *http.Request) string { return FromRequest(r, headers...) }
}

func normalize(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
