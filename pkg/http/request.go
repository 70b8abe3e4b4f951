package http

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPConfig says which peers may set forwarding headers.
type IPConfig struct {
	trustedProxies []netip.Prefix
}

// NewIPConfig parses the CIDR ranges of trusted proxies.
func NewIPConfig(trustedProxies []string) (*IPConfig, error) {
	cfg := &IPConfig{trustedProxies: make([]netip.Prefix, 0, len(trustedProxies))}
	for _, cidr := range trustedProxies {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		cfg.trustedProxies = append(cfg.trustedProxies, prefix.Masked())
	}
	return cfg, nil
}

func (c *IPConfig) trusts(addr netip.Addr) bool {
	if c == nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range c.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ExtractClientIP returns the address of the client behind r. Forwarding
// headers are only honoured when the direct peer is a trusted proxy; the
// first valid X-Forwarded-For entry wins over X-Real-IP.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	remote := remoteHost(r)

	peer, err := netip.ParseAddr(remote)
	if err != nil || !config.trusts(peer) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, entry := range strings.Split(xff, ",") {
			if addr, err := netip.ParseAddr(strings.TrimSpace(entry)); err == nil {
				return addr.String()
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.String()
		}
	}

	return remote
}

// remoteHost strips the port from RemoteAddr.
func remoteHost(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
