package utils

import (
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
)

// IsAllowedOrigin checks whether an Origin header value should be trusted.
// Development origins (localhost, private/RFC1918 IPs, link-local IPs, .local
// hostnames, single-label hostnames) are always trusted; production frontends
// are listed in the ALLOWED_ORIGINS environment variable, comma separated.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	if configuredOrigins()[strings.TrimRight(origin, "/")] {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	hostname := parsed.Hostname()

	// Allow localhost
	if hostname == "localhost" {
		return true
	}

	// Allow .local mDNS hostnames (e.g., mybox.local)
	if strings.HasSuffix(hostname, ".local") {
		return true
	}

	// Allow single-label hostnames (no dots = LAN names)
	if !strings.Contains(hostname, ".") {
		return true
	}

	// Check if it's an IP address
	ip := net.ParseIP(hostname)
	if ip != nil {
		return isPrivateIP(ip)
	}

	return false
}

var (
	originsOnce sync.Once
	origins     map[string]bool
)

func configuredOrigins() map[string]bool {
	originsOnce.Do(func() {
		origins = make(map[string]bool)
		for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
			o = strings.TrimRight(strings.TrimSpace(o), "/")
			if o != "" {
				origins[o] = true
			}
		}
	})
	return origins
}

// isPrivateIP returns true for RFC1918, loopback, and link-local addresses.
func isPrivateIP(ip net.IP) bool {
	privateRanges := []struct {
		network *net.IPNet
	}{
		{mustParseCIDR("10.0.0.0/8")},
		{mustParseCIDR("172.16.0.0/12")},
		{mustParseCIDR("192.168.0.0/16")},
		{mustParseCIDR("127.0.0.0/8")},
		{mustParseCIDR("169.254.0.0/16")}, // link-local IPv4
		{mustParseCIDR("::1/128")},        // loopback IPv6
		{mustParseCIDR("fe80::/10")},      // link-local IPv6
		{mustParseCIDR("fc00::/7")},       // unique local IPv6
	}

	for _, r := range privateRanges {
		if r.network.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDR(s string) *net.IPNet {
	_, network, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return network
}
