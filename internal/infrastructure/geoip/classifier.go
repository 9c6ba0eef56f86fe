package geoip

import (
	"net"
	"net/http"
	"strings"
)

// privateBlocks are the address ranges treated as non-routable client origins.
var privateBlocks = []string{
	"10.0.0.0/8",     // RFC1918
	"172.16.0.0/12",  // RFC1918
	"192.168.0.0/16", // RFC1918
	"127.0.0.0/8",    // loopback
	"169.254.0.0/16", // link-local
	"::1/128",        // IPv6 loopback
	"fe80::/10",      // IPv6 link-local
	"fc00::/7",       // IPv6 unique local
}

var parsedPrivateBlocks []*net.IPNet

func init() {
	for _, block := range privateBlocks {
		_, subnet, err := net.ParseCIDR(block)
		if err != nil {
			continue
		}
		parsedPrivateBlocks = append(parsedPrivateBlocks, subnet)
	}
}

// IsValid reports whether the address parses as an IPv4 or IPv6 address.
func IsValid(address string) bool {
	return net.ParseIP(strings.TrimSpace(address)) != nil
}

// IsPrivate reports whether the address falls in a loopback, link-local, or
// private-use range. Malformed input is not private.
func IsPrivate(address string) bool {
	ip := net.ParseIP(strings.TrimSpace(address))
	if ip == nil {
		return false
	}
	for _, subnet := range parsedPrivateBlocks {
		if subnet.Contains(ip) {
			return true
		}
	}
	return false
}

// ExtractIP returns the client address for a request: the first X-Forwarded-For
// entry when it is syntactically valid, the remote address otherwise.
func ExtractIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if IsValid(first) {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
