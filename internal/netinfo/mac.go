// Package netinfo detects the hardware address reported to the grading server.
package netinfo

import (
	"net"
	"strings"
)

const zeroMAC = "00:00:00:00:00:00"

// PrimaryMAC returns the lower-case hardware address of the first
// non-loopback interface that carries an IPv4 address, or "" when none is
// found.
func PrimaryMAC() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	return pickMAC(ifaces, interfaceHasIPv4)
}

func pickMAC(ifaces []net.Interface, hasIPv4 func(net.Interface) bool) string {
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		mac := strings.ToLower(iface.HardwareAddr.String())
		if mac == "" || mac == zeroMAC {
			continue
		}
		if !hasIPv4(iface) {
			continue
		}
		return mac
	}
	return ""
}

func interfaceHasIPv4(iface net.Interface) bool {
	addrs, err := iface.Addrs()
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if ok && ipNet.IP.To4() != nil {
			return true
		}
	}
	return false
}
