// Package rank implements the interface-proximity comparator used to
// order an unordered set of resolved addresses (§4.K): addresses closer to
// one of this host's own interfaces sort first.
package rank

import (
	"net"
	"sort"

	"github.com/netbios-go/nbtresolve/internal/ipservice"
	"github.com/netbios-go/nbtresolve/internal/network"
)

const (
	localBonusIPv4 = 32
	localBonusIPv6 = 128
)

// Comparator scores addresses against a fixed set of local interfaces.
// NetBIOS transactions themselves are IPv4-only (RFC 1001/1002 has no
// IPv6 form), but the addresses this comparator ranks can still be IPv6 —
// an AD SRV target resolved through the system resolver (internal/ads)
// commonly has both an A and an AAAA glue record — so both families get a
// symmetric proximity score; IPv4 only wins the family tie-break below,
// never the score itself.
type Comparator struct {
	ifaces []net.Interface
	addrs  []network.IfaceAddr
}

// NewComparator builds a Comparator against the given interfaces (e.g.
// network.DefaultInterfaces()).
func NewComparator(ifaces []net.Interface) *Comparator {
	return &Comparator{ifaces: ifaces, addrs: network.Addrs(ifaces)}
}

// Less orders a before b: IPv4 beats IPv6 regardless of score; within the
// same family, the higher proximity score wins; ties break on lower port.
func (c *Comparator) Less(a, b ipservice.IPService) bool {
	aIsV4, bIsV4 := a.Addr.To4() != nil, b.Addr.To4() != nil
	if aIsV4 != bIsV4 {
		return aIsV4
	}

	sa, sb := c.score(a.Addr), c.score(b.Addr)
	if sa != sb {
		return sa > sb
	}
	return a.Port < b.Port
}

// score is the maximum shared-leading-bit count between addr and any
// local interface address of the same family, plus a fixed bonus when
// network.IsLocal reports addr as directly reachable. IPv6 scores and
// bonuses are scaled up from their IPv4 counterparts (128 bits of prefix
// to match instead of 32, a +128 reachability bonus instead of +32) so
// the two families stay proportionally comparable rather than IPv6
// addresses trivially dominating on raw bit count alone.
func (c *Comparator) score(addr net.IP) int {
	v4 := addr.To4()
	isV4 := v4 != nil

	best := 0
	for _, ia := range c.addrs {
		localIsV4 := ia.IP.To4() != nil
		if localIsV4 != isV4 {
			continue
		}
		if isV4 {
			if bits := commonPrefixBits(v4, ia.IP.To4()); bits > best {
				best = bits
			}
			continue
		}
		if bits := commonPrefixBits(addr.To16(), ia.IP.To16()); bits > best {
			best = bits
		}
	}
	if network.IsLocal(c.ifaces, addr) {
		if isV4 {
			best += localBonusIPv4
		} else {
			best += localBonusIPv6
		}
	}
	return best
}

// Sort orders services in place by proximity, most preferred first. Only
// meaningful for an unordered result set — an ordered resolve_order's
// relative order must be preserved by its own caller instead (§4.J.1).
func (c *Comparator) Sort(services []ipservice.IPService) {
	sort.SliceStable(services, func(i, j int) bool {
		return c.Less(services[i], services[j])
	})
}

// commonPrefixBits counts the shared leading bits of a and b, clamped to
// the shorter of the two (or to whichever family's full width — 32 for
// IPv4, 128 for IPv6 — len(a)/len(b) already implies once both are
// same-length net.IP forms, as score always passes them).
func commonPrefixBits(a, b net.IP) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	maxBits := n * 8

	bits := 0
	for i := 0; i < n; i++ {
		x := a[i] ^ b[i]
		if x == 0 {
			bits += 8
			continue
		}
		for mask := byte(0x80); mask != 0 && x&mask == 0; mask >>= 1 {
			bits++
		}
		break
	}
	if bits > maxBits {
		bits = maxBits
	}
	return bits
}
