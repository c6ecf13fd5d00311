// Package netguard offers an opt-in guard against dialing private/internal
// IP ranges. Unlike a reverse proxy, this tool's whole purpose is to attack
// arbitrary hosts — including loopback test fixtures and RFC1918 lab
// targets — so the guard defaults to disabled and must be turned on
// explicitly by an operator who wants the safety rail back.
package netguard

import "net"

// blockedCIDRs are private/internal networks a cautious operator may want
// to exclude from an accidental scan.
var blockedCIDRs = func() []*net.IPNet {
	cidrs := []string{
		"127.0.0.0/8",    // loopback
		"10.0.0.0/8",     // RFC1918
		"172.16.0.0/12",  // RFC1918 / container bridge networks
		"192.168.0.0/16", // RFC1918
		"169.254.0.0/16", // link-local / cloud metadata
		"0.0.0.0/8",      // unspecified
		"::1/128",        // IPv6 loopback
		"fe80::/10",      // IPv6 link-local
		"fc00::/7",       // IPv6 unique local
	}
	var nets []*net.IPNet
	for _, c := range cidrs {
		_, ipNet, _ := net.ParseCIDR(c)
		nets = append(nets, ipNet)
	}
	return nets
}()

// Guard optionally blocks dials to private/internal ranges. The zero value
// is disabled, matching this tool's default posture.
type Guard struct {
	Enabled bool
}

// Allow reports whether ip may be dialed. A disabled guard allows every IP.
func (g Guard) Allow(ip net.IP) bool {
	if !g.Enabled {
		return true
	}
	for _, cidr := range blockedCIDRs {
		if cidr.Contains(ip) {
			return false
		}
	}
	return true
}
