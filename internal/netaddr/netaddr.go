// Package netaddr finds the address other devices on the LAN can use to reach this machine.
package netaddr

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Loopback is returned whenever the local address cannot be determined
const Loopback = "127.0.0.1"

// probeTarget is non-routable; dialing UDP sends nothing but makes the OS pick a source address
const probeTarget = "10.255.255.255:1"

// Probe reports the local IPv4 address used for outbound traffic
type Probe interface {
	LocalIP() string
}

// UDPProbe learns the local address by dialing UDP toward Target
type UDPProbe struct {
	Target string
}

// LocalIP returns the source address chosen for Target, or Loopback on any failure
func (p UDPProbe) LocalIP() string {
	target := p.Target
	if target == "" {
		target = probeTarget
	}

	conn, err := net.DialTimeout("udp4", target, 2*time.Second)
	if err != nil {
		return Loopback
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil || addr.IP.IsUnspecified() {
		return Loopback
	}
	return addr.IP.String()
}

// Static always returns the same address
type Static string

// LocalIP returns s, or Loopback when empty
func (s Static) LocalIP() string {
	if s == "" {
		return Loopback
	}
	return string(s)
}

// PortInUse reports whether a TCP port is already bound
func PortInUse(port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return true
	}
	ln.Close()
	return false
}

// URLs returns the loopback and LAN addresses of a web page served on port
func URLs(ip string, port int) (local, lan string) {
	return fmt.Sprintf("http://localhost:%d", port), fmt.Sprintf("http://%s:%d", ip, port)
}
