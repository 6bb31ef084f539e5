// Package network enumerates local network interfaces for the NetBIOS
// broadcast resolver (component G) and the address-proximity ranker
// (component K).
package network

import (
	"net"
)

// DefaultInterfaces returns the network interfaces this resolver considers
// eligible for broadcast NetBIOS queries: up, not loopback, excluding VPN
// and container bridge interfaces whose broadcast domain is not a useful
// NetBIOS segment.
//
// Unlike the mDNS querier this filter is adapted from, MULTICAST support is
// not required — NetBIOS broadcast uses ordinary IPv4 broadcast, which
// plain point-to-point or non-multicast Ethernet interfaces still support.
func DefaultInterfaces() ([]net.Interface, error) {
	allIfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	filtered := make([]net.Interface, 0, len(allIfaces))
	for _, iface := range allIfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if isVPN(iface.Name) || isDocker(iface.Name) {
			continue
		}
		filtered = append(filtered, iface)
	}

	return filtered, nil
}

func isVPN(name string) bool {
	vpnPrefixes := []string{"utun", "tun", "ppp", "wg", "tailscale", "wireguard"}
	for _, prefix := range vpnPrefixes {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func isDocker(name string) bool {
	if name == "docker0" {
		return true
	}
	dockerPrefixes := []string{"veth", "br-"}
	for _, prefix := range dockerPrefixes {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// IfaceAddr pairs an interface's IP with its subnet, used both for
// broadcast-address derivation and for the ranking comparator in
// internal/rank.
type IfaceAddr struct {
	IP   net.IP
	Mask net.IPMask
}

// Addrs returns the usable IPv4 and IPv6 addresses (with their subnet
// masks) of the given interfaces. IPv4 addresses are normalized to their
// 4-byte form; IPv6 addresses keep their 16-byte form. Both families feed
// the ranking comparator (component K); only the IPv4 entries are used by
// BroadcastAddrs, since NetBIOS broadcast itself is IPv4-only.
func Addrs(ifaces []net.Interface) []IfaceAddr {
	var out []IfaceAddr
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if v4 := ipnet.IP.To4(); v4 != nil {
				out = append(out, IfaceAddr{IP: v4, Mask: ipnet.Mask})
				continue
			}
			if v6 := ipnet.IP.To16(); v6 != nil && ipnet.IP.To4() == nil {
				out = append(out, IfaceAddr{IP: v6, Mask: ipnet.Mask})
			}
		}
	}
	return out
}

// BroadcastAddrs returns the IPv4 broadcast address of every usable
// interface address, implementing the `interfaces.broadcast(i)`
// collaborator from §6 and feeding component G. NetBIOS broadcast has no
// IPv6 analogue (RFC 1001/1002 is IPv4-only), so IPv6 interface addresses
// are skipped here even though Addrs itself returns them.
func BroadcastAddrs(ifaces []net.Interface) []net.IP {
	var out []net.IP
	for _, ia := range Addrs(ifaces) {
		v4 := ia.IP.To4()
		if v4 == nil {
			continue
		}
		bcast := make(net.IP, net.IPv4len)
		for i := 0; i < net.IPv4len; i++ {
			bcast[i] = v4[i] | ^ia.Mask[i]
		}
		out = append(out, bcast)
	}
	return out
}

// IsLocal reports whether addr is directly reachable on one of ifaces —
// i.e. it falls within one of their subnets — for either address family.
// This implements the `interfaces.is_local(sockaddr)` collaborator
// consulted by the ranking comparator (component K) for its "directly
// reachable" bonus.
func IsLocal(ifaces []net.Interface, addr net.IP) bool {
	isV4 := addr.To4() != nil
	for _, ia := range Addrs(ifaces) {
		if (ia.IP.To4() != nil) != isV4 {
			continue
		}
		ipnet := &net.IPNet{IP: ia.IP, Mask: ia.Mask}
		if ipnet.Contains(addr) {
			return true
		}
	}
	return false
}
