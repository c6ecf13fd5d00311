package netguard

import (
	"net"
	"testing"
)

func TestDisabledGuardAllowsEverything(t *testing.T) {
	g := Guard{}
	if !g.Allow(net.ParseIP("127.0.0.1")) {
		t.Error("disabled guard must allow loopback")
	}
	if !g.Allow(net.ParseIP("10.0.0.5")) {
		t.Error("disabled guard must allow RFC1918")
	}
}

func TestEnabledGuardBlocksPrivateRanges(t *testing.T) {
	g := Guard{Enabled: true}
	cases := []string{"127.0.0.1", "10.0.0.5", "192.168.1.1", "169.254.1.1", "::1"}
	for _, ip := range cases {
		if g.Allow(net.ParseIP(ip)) {
			t.Errorf("expected %s to be blocked", ip)
		}
	}
}

func TestEnabledGuardAllowsPublicIP(t *testing.T) {
	g := Guard{Enabled: true}
	if !g.Allow(net.ParseIP("93.184.216.34")) {
		t.Error("expected public IP to be allowed")
	}
}
