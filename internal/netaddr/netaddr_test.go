package netaddr

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStatic tests the fixed probe and its fallback
func TestStatic(t *testing.T) {
	assert.Equal(t, "192.168.1.20", Static("192.168.1.20").LocalIP())
	assert.Equal(t, Loopback, Static("").LocalIP())
}

// TestUDPProbe_ReturnsIPv4 tests that the probe always yields a parseable address
func TestUDPProbe_ReturnsIPv4(t *testing.T) {
	ip := UDPProbe{}.LocalIP()

	parsed := net.ParseIP(ip)
	require.NotNil(t, parsed, "probe returned %q", ip)
	assert.NotNil(t, parsed.To4())
}

// TestUDPProbe_BadTarget tests the loopback fallback
func TestUDPProbe_BadTarget(t *testing.T) {
	assert.Equal(t, Loopback, UDPProbe{Target: "not an address"}.LocalIP())
}

// TestPortInUse tests detection of a bound port
func TestPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	assert.True(t, PortInUse(port))
}

// TestURLs tests formatting of the page addresses
func TestURLs(t *testing.T) {
	local, lan := URLs("10.0.0.5", 8080)

	assert.Equal(t, "http://localhost:8080", local)
	assert.Equal(t, "http://10.0.0.5:8080", lan)
}
