package resolver

import (
	"context"
	"strconv"
	"strings"

	"github.com/netbios-go/nbtresolve/internal/ipservice"
	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/netbios"
)

// LookupType selects how GetDCList assembles its candidate list (§4.J.1).
type LookupType int

const (
	// DCNormal tokenises the SAF/password-server candidate string as
	// usual.
	DCNormal LookupType = iota
	// DCAdsOnly substitutes ["ads"] when the caller's resolve order
	// contains "host", or ["NULL"] (fail fast) otherwise.
	DCAdsOnly
	// DCKDCOnly substitutes ["kdc"] and resolves under KDC_NAME_TYPE.
	DCKDCOnly
)

// dcListResult carries GetDCList's output alongside the ordered/unordered
// flag: wrapper functions (GetSortedDCList) only re-sort an unordered
// result.
type dcListResult struct {
	services []ipservice.IPService
	ordered  bool
}

// GetDCList assembles domain's candidate domain controller list under
// sitename, honoring lookupType's substitution policy (§4.J.1).
func (r *Resolver) GetDCList(ctx context.Context, domain, sitename string, lookupType LookupType, userOrder []string) ([]ipservice.IPService, error) {
	result, err := r.getDCList(ctx, domain, sitename, lookupType, userOrder)
	if err != nil {
		return nil, err
	}
	return result.services, nil
}

// GetSortedDCList is GetDCList followed by a proximity sort, skipped when
// the underlying candidate list was already ordered (a named-token result,
// or a substitution policy that forces ordered=true).
func (r *Resolver) GetSortedDCList(ctx context.Context, domain, sitename string, lookupType LookupType, userOrder []string) ([]ipservice.IPService, error) {
	result, err := r.getDCList(ctx, domain, sitename, lookupType, userOrder)
	if err != nil {
		return nil, err
	}
	if !result.ordered && r.comparator != nil {
		r.comparator.Sort(result.services)
	}
	return result.services, nil
}

// GetKDCList is GetDCList pinned to DCKDCOnly.
func (r *Resolver) GetKDCList(ctx context.Context, domain, sitename string, userOrder []string) ([]ipservice.IPService, error) {
	return r.GetDCList(ctx, domain, sitename, DCKDCOnly, userOrder)
}

func (r *Resolver) getDCList(ctx context.Context, domain, sitename string, lookupType LookupType, userOrder []string) (dcListResult, error) {
	// The "*" token's effective name-type: the generic DC type (0x1C) for
	// every lookup except DCKDCOnly, which targets the synthetic
	// KDC_NAME_TYPE instead. KDC_NAME_TYPE doesn't fit netbios.Name's
	// byte Suffix field, so the KDC case is routed through the "kdc"
	// token directly (via wildcardOrder) rather than carried in Suffix;
	// Resolve's own cache-key rewrite (§4.J step 6) applies the
	// KDC_NAME_TYPE discriminator once the kdc method actually answers.
	nameType := netbios.SuffixDomainMaster

	tokens, ordered, err := r.candidateTokens(domain, lookupType, userOrder)
	if err != nil {
		return dcListResult{}, err
	}

	var services []ipservice.IPService
	for _, token := range tokens {
		if token == "*" {
			result, err := r.Resolve(ctx, netbios.Name{Label: domain, Suffix: nameType}, sitename, r.wildcardOrder(lookupType))
			if err != nil {
				continue
			}
			services = append(services, result...)
			continue
		}

		host, port := splitHostPort(token, lookupType == DCKDCOnly)
		result, err := r.ResolveName(ctx, netbios.Name{Label: host, Suffix: netbios.SuffixServer}, true)
		if err != nil {
			continue
		}
		if port != 0 {
			result.Port = port
		}
		services = append(services, result)
	}

	services = r.filterDeadConnections(services)
	services = ipservice.Dedup(services)
	services = partitionIPv4First(services)

	if len(services) == 0 {
		return dcListResult{}, nberrors.New(nberrors.NotFound, "resolver.GetDCList")
	}
	return dcListResult{services: services, ordered: ordered}, nil
}

// candidateTokens applies the lookup-type substitution policy, then
// tokenises the SAF/password-server candidate string for DCNormal. The
// substituted policies resolve through a single method (ads or kdc), so
// they're represented as the wildcard token and routed through
// wildcardOrder rather than as literal hostname tokens.
func (r *Resolver) candidateTokens(domain string, lookupType LookupType, userOrder []string) (tokens []string, ordered bool, err error) {
	switch lookupType {
	case DCAdsOnly:
		if containsToken(userOrder, "host") {
			return []string{"*"}, true, nil
		}
		return nil, true, nberrors.New(nberrors.InvalidParameter, "resolver.GetDCList")
	case DCKDCOnly:
		return []string{"*"}, true, nil
	}

	candidate := r.candidateString(domain)
	tokens = tokenize(candidate)
	for _, t := range tokens {
		if t != "*" {
			ordered = true
			break
		}
	}
	return tokens, ordered, nil
}

// candidateString builds "saf_fetch(domain) + password_server()" when
// domain matches the configured workgroup/realm, else "saf + *".
func (r *Resolver) candidateString(domain string) string {
	saf, _ := r.saf.Preferred(domain)

	var tail string
	if strings.EqualFold(domain, r.workgroup) && r.passwordServer != nil {
		if ps := r.passwordServer(); ps != "" {
			tail = ps
		}
	}
	if tail == "" {
		tail = "*"
	}

	if saf == "" {
		return tail
	}
	return saf + ", " + tail
}

// wildcardOrder is the resolve order the "*" token expands through: the
// default order for DCNormal, or ["ads"]/["kdc"] for the lookup types
// that already force a single method.
func (r *Resolver) wildcardOrder(lookupType LookupType) []string {
	switch lookupType {
	case DCAdsOnly:
		return adsOnlyOrder
	case DCKDCOnly:
		return []string{"kdc"}
	default:
		return r.defaultOrder
	}
}

func tokenize(candidate string) []string {
	parts := strings.Split(candidate, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

// splitHostPort extracts a host:port token's port, per §4.J.1: the port
// component is ignored entirely for KDC lookups.
func splitHostPort(token string, ignorePort bool) (host string, port uint16) {
	idx := strings.LastIndexByte(token, ':')
	if idx < 0 {
		return token, 0
	}
	host = token[:idx]
	if ignorePort {
		return host, 0
	}
	if p, err := strconv.ParseUint(token[idx+1:], 10, 16); err == nil {
		port = uint16(p)
	}
	return host, port
}

func (r *Resolver) filterDeadConnections(services []ipservice.IPService) []ipservice.IPService {
	if r.negativeConn == nil {
		return services
	}
	out := make([]ipservice.IPService, 0, len(services))
	for _, s := range services {
		key := s.Addr.String() + ":" + strconv.Itoa(int(s.Port))
		if !r.negativeConn.Contains(key) {
			out = append(out, s)
		}
	}
	return out
}

// partitionIPv4First stably moves every IPv4 entry ahead of every IPv6
// entry without disturbing relative order within each family.
func partitionIPv4First(services []ipservice.IPService) []ipservice.IPService {
	out := make([]ipservice.IPService, 0, len(services))
	for _, s := range services {
		if s.Addr.To4() != nil {
			out = append(out, s)
		}
	}
	for _, s := range services {
		if s.Addr.To4() == nil {
			out = append(out, s)
		}
	}
	return out
}
