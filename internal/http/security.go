package http

import (
	"mime"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Forwarding headers are only honoured from loopback and private networks,
// where a reverse proxy in front of the dashboard would live.
var trustedProxies = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
}

func trusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// extractClientIP keys the write rate limit. It is the peer address unless
// the peer is a trusted proxy that names the client.
func extractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !trusted(peer) {
		return host
	}

	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	for _, candidate := range []string{first, r.Header.Get("X-Real-IP")} {
		if addr, err := netip.ParseAddr(strings.TrimSpace(candidate)); err == nil {
			return addr.String()
		}
	}
	return host
}

// maxPathLen is generous for the longest route, /members/{id}/payment.
const maxPathLen = 128

// suspicionReason explains why a request does not look like it came from
// the dashboard page; "" means nothing stood out. Suspicious requests are
// logged and counted, never blocked.
func suspicionReason(r *http.Request) string {
	path := r.URL.Path
	lower := strings.ToLower(path)

	switch {
	case len(path) > maxPathLen:
		return "oversized path"
	case strings.Contains(path, "..") || strings.Contains(path, "/."):
		return "path traversal or dotfile access"
	case strings.HasSuffix(lower, ".php") || strings.Contains(lower, "wp-"):
		return "scanner signature"
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ""
	case http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return "unexpected method"
	}

	// writes only target the roster and chat routes, from forms or JSON
	if path != "/chat" && path != "/members" && !strings.HasPrefix(path, "/members/") {
		return "write outside roster routes"
	}
	if r.URL.RawQuery != "" {
		return "query string on write"
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || (mt != "application/x-www-form-urlencoded" && mt != "application/json") {
			return "unexpected content type"
		}
	}
	return ""
}
