// Package ipservice defines the address/port pair that every resolution
// method above the wire protocol converges on: a literal IP, an
// lmhosts/hosts entry, or an ADS SRV target all end up as one of these
// before they reach the name cache or the caller.
package ipservice

import "net"

// None is the port value used when a result carries no service port, e.g.
// a literal-address short-circuit or a plain hosts-file lookup.
const None uint16 = 0

// IPService pairs an address with the port the matching method resolved it
// at (an ADS SRV record's port, or None for methods that don't carry one).
type IPService struct {
	Addr net.IP
	Port uint16
}

// Equal reports whether s and other name the same (address, port) pair,
// the equality used by dedup (§4.J.6) and by the rank tie-break.
func (s IPService) Equal(other IPService) bool {
	return s.Addr.Equal(other.Addr) && s.Port == other.Port
}

// Dedup removes later duplicates by (addr, port) equality, preserving the
// order of first occurrence.
func Dedup(services []IPService) []IPService {
	out := make([]IPService, 0, len(services))
	for _, s := range services {
		dup := false
		for _, kept := range out {
			if kept.Equal(s) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, s)
		}
	}
	return out
}
