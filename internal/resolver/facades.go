package resolver

import (
	"context"
	"net"

	"github.com/netbios-go/nbtresolve/internal/ipservice"
	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/netbios"
)

// adsOnlyOrder is the resolve order the "*" token expands through for a
// DCAdsOnly lookup (see wildcardOrder). GetPDCIP does not use it; its
// ADS-first attempt calls the ads method directly.
var adsOnlyOrder = []string{"ads"}

// ResolveName returns a single address for name, chosen from Resolve's
// full result set. When preferIPv4, the first non-zero, non-broadcast
// IPv4 entry wins. Whether or not that first pass found anything, the
// fallback is the first entry of any family that passes the same
// zero/broadcast filter — never an unconditional services[0] — mirroring
// resolve_name's (namequery.c) unconditional second filtering pass; if
// nothing qualifies at all, resolution fails rather than returning a
// bogus address.
func (r *Resolver) ResolveName(ctx context.Context, name netbios.Name, preferIPv4 bool) (ipservice.IPService, error) {
	services, err := r.Resolve(ctx, name, "", r.defaultOrder)
	if err != nil {
		return ipservice.IPService{}, err
	}

	if preferIPv4 {
		for _, s := range services {
			if v4 := s.Addr.To4(); v4 != nil && isQualifyingAddr(s.Addr) {
				return s, nil
			}
		}
	}
	for _, s := range services {
		if isQualifyingAddr(s.Addr) {
			return s, nil
		}
	}
	return ipservice.IPService{}, nberrors.New(nberrors.NotFound, "resolver.ResolveName")
}

// isQualifyingAddr rejects the zero address and the IPv4 broadcast
// address, of either family, per resolve_name's filter.
func isQualifyingAddr(addr net.IP) bool {
	if addr.IsUnspecified() {
		return false
	}
	if v4 := addr.To4(); v4 != nil && isIPv4Broadcast(v4) {
		return false
	}
	return true
}

func isIPv4Broadcast(v4 []byte) bool {
	return v4[0] == 255 && v4[1] == 255 && v4[2] == 255 && v4[3] == 255
}

// FindMasterIP resolves group's local master browser, trying the
// master-browser name type (0x1D) before falling back to the domain
// master browser type (0x1B).
func (r *Resolver) FindMasterIP(ctx context.Context, group string) (ipservice.IPService, error) {
	for _, suffix := range []byte{netbios.SuffixMasterBrowser, netbios.SuffixPDC} {
		result, err := r.ResolveName(ctx, netbios.Name{Label: group, Suffix: suffix}, true)
		if err == nil {
			return result, nil
		}
	}
	return ipservice.IPService{}, nberrors.New(nberrors.NotFound, "resolver.FindMasterIP")
}

// GetPDCIP resolves domain's primary domain controller (name type 0x1B).
// When this process is configured for ADS security, it tries the
// ads-only order first and falls back to the default order on failure.
// A result set with more than one entry is ranked via the proximity
// comparator before the first entry is returned.
func (r *Resolver) GetPDCIP(ctx context.Context, domain string, adsSecurity bool) (ipservice.IPService, error) {
	name := netbios.Name{Label: domain, Suffix: netbios.SuffixPDC}

	// The ads-first attempt goes straight to the ads method rather than
	// through Resolve, so a miss here doesn't poison the name cache ahead
	// of the default-order attempt that follows.
	if adsSecurity {
		if adsMethod, ok := r.methods["ads"]; ok {
			if result, err := adsMethod(ctx, name, ""); err == nil {
				return r.rankFirst(result), nil
			}
		}
	}

	services, err := r.Resolve(ctx, name, "", r.defaultOrder)
	if err != nil {
		return ipservice.IPService{}, err
	}

	return r.rankFirst(services), nil
}

// rankFirst sorts services by proximity when there is more than one
// candidate, then returns the winner.
func (r *Resolver) rankFirst(services []ipservice.IPService) ipservice.IPService {
	if len(services) > 1 && r.comparator != nil {
		r.comparator.Sort(services)
	}
	return services[0]
}
