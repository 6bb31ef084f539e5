// Package resolver implements the orchestrator that sits above every
// resolution method: the name cache, method dispatch in configured
// order, and the higher-level facades built on top of it (§4.J).
package resolver

import (
	"context"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/netbios-go/nbtresolve/internal/cache"
	"github.com/netbios-go/nbtresolve/internal/ipservice"
	"github.com/netbios-go/nbtresolve/internal/message"
	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/netbios"
	"github.com/netbios-go/nbtresolve/internal/obs"
	"github.com/netbios-go/nbtresolve/internal/rank"
)

// nullToken is the sentinel resolveOrder[0] value that fails resolution
// fast (§4.J.3, and the DCAdsOnly substitution in §4.J.1).
const nullToken = "NULL"

// methodFunc adapts one resolution method (hosts, lmhosts, wins, bcast,
// ads, kdc) to a single shared signature so the orchestrator's dispatch
// loop doesn't need to know each method's own contract. sitename is
// ignored by every method except ads/kdc, which use it to narrow the SRV
// query to an AD site.
type methodFunc func(ctx context.Context, name netbios.Name, sitename string) ([]ipservice.IPService, error)

// Deps wires every resolution method and supporting store this
// orchestrator dispatches to. A nil method dependency simply leaves that
// token unregistered — the orchestrator logs and skips it like any other
// unrecognised token (§4.J.5).
type Deps struct {
	Hosts             methodFunc
	Lmhosts           methodFunc
	WINS              methodFunc
	Bcast             methodFunc
	ADS               methodFunc
	KDC               methodFunc
	NameCache         cache.Store
	NegativeConnCache *TTLSet
	SAF               *SAFCache
	Comparator        *rank.Comparator
	Metrics           *obs.Metrics

	// DefaultResolveOrder is used by every facade built on Resolve
	// (ResolveName, FindMasterIP, GetPDCIP, the DCNormal branch of
	// GetDCList) when the caller doesn't supply its own order.
	DefaultResolveOrder []string
	// Workgroup is this process's configured workgroup/realm, used by
	// GetDCList's candidate-list construction (§4.J.1) to decide between
	// the password-server and "*" fallback tokens.
	Workgroup string
	// PasswordServer returns the configured password-server candidate
	// string for the local workgroup/realm, or "" if none configured.
	PasswordServer func() string
	// CacheTTL is the positive/negative name-cache entry lifetime.
	CacheTTL time.Duration
}

// Resolver is the orchestrator. Build one with New and reuse it; it holds
// no per-call state beyond what its dependencies already carry.
type Resolver struct {
	methods        map[string]methodFunc
	nameCache      cache.Store
	negativeConn   *TTLSet
	saf            *SAFCache
	comparator     *rank.Comparator
	metrics        *obs.Metrics
	logger         *zap.Logger
	defaultOrder   []string
	workgroup      string
	passwordServer func() string
	cacheTTL       time.Duration
}

func New(d Deps) *Resolver {
	r := &Resolver{
		nameCache:      d.NameCache,
		negativeConn:   d.NegativeConnCache,
		saf:            d.SAF,
		comparator:     d.Comparator,
		metrics:        d.Metrics,
		logger:         obs.Named("resolver"),
		defaultOrder:   d.DefaultResolveOrder,
		workgroup:      d.Workgroup,
		passwordServer: d.PasswordServer,
		cacheTTL:       d.CacheTTL,
	}
	if r.cacheTTL == 0 {
		r.cacheTTL = 10 * time.Minute
	}
	if r.nameCache == nil {
		r.nameCache = cache.NewMemStore()
	}
	if r.negativeConn == nil {
		r.negativeConn = NewTTLSet(time.Minute)
	}
	if r.saf == nil {
		r.saf = NewSAFCache(time.Minute)
	}

	r.methods = map[string]methodFunc{}
	registerIfPresent(r.methods, "host", d.Hosts)
	registerIfPresent(r.methods, "hosts", d.Hosts)
	registerIfPresent(r.methods, "lmhosts", d.Lmhosts)
	registerIfPresent(r.methods, "wins", d.WINS)
	registerIfPresent(r.methods, "bcast", d.Bcast)
	registerIfPresent(r.methods, "ads", d.ADS)
	registerIfPresent(r.methods, "kdc", d.KDC)
	return r
}

func registerIfPresent(methods map[string]methodFunc, token string, fn methodFunc) {
	if fn != nil {
		methods[token] = fn
	}
}

// Resolve is ResolveNameInternal: the full §4.J pipeline.
func (r *Resolver) Resolve(ctx context.Context, name netbios.Name, sitename string, resolveOrder []string) ([]ipservice.IPService, error) {
	if ip := net.ParseIP(name.Label); ip != nil {
		if ip.IsUnspecified() {
			return nil, nberrors.New(nberrors.InvalidAddress, "resolver.Resolve")
		}
		return []ipservice.IPService{{Addr: ip, Port: ipservice.None}}, nil
	}

	key := cacheKey(name.Label, uint16(name.Suffix))
	if services, ok := r.nameCache.Get(key); ok {
		r.recordCacheOutcome(services)
		if len(services) == 0 {
			return nil, nberrors.New(nberrors.NotFound, "resolver.Resolve")
		}
		return services, nil
	}
	r.metrics.RecordCacheOutcome("miss")

	if len(resolveOrder) > 0 && resolveOrder[0] == nullToken {
		return nil, nberrors.New(nberrors.InvalidParameter, "resolver.Resolve")
	}

	order := resolveOrder
	if len(name.Label) > 15 || strings.Contains(name.Label, ".") {
		order = stripTokens(order, "lmhosts", "wins", "bcast")
	}

	var services []ipservice.IPService
	var matchedToken string
	for _, token := range order {
		if token == "wins" && name.Suffix == netbios.SuffixMasterBrowser {
			continue
		}
		method, ok := r.methods[token]
		if !ok {
			r.logger.Warn("unrecognized resolve method", zap.String("method", token))
			continue
		}

		start := time.Now()
		result, err := method(ctx, name, sitename)
		if err != nil {
			r.metrics.RecordResolution(token, "error", time.Since(start).Seconds())
			continue
		}
		r.metrics.RecordResolution(token, "ok", time.Since(start).Seconds())
		services = result
		matchedToken = token
		break
	}

	if len(services) == 0 {
		r.nameCache.Set(key, nil, r.cacheTTL)
		return nil, nberrors.New(nberrors.NotFound, "resolver.Resolve")
	}

	services = ipservice.Dedup(services)

	storeKey := key
	if matchedToken == "kdc" {
		storeKey = cacheKey(name.Label, netbios.KDCNameType)
	}
	r.nameCache.Set(storeKey, services, r.cacheTTL)
	return services, nil
}

func (r *Resolver) recordCacheOutcome(services []ipservice.IPService) {
	if len(services) == 0 {
		r.metrics.RecordCacheOutcome("negative")
		return
	}
	r.metrics.RecordCacheOutcome("hit")
}

func cacheKey(label string, nameType uint16) string {
	return strings.ToUpper(label) + "#" + hexType(nameType)
}

func hexType(t uint16) string {
	const hex = "0123456789ABCDEF"
	return string([]byte{hex[(t>>12)&0xF], hex[(t>>8)&0xF], hex[(t>>4)&0xF], hex[t&0xF]})
}

func stripTokens(order []string, drop ...string) []string {
	out := make([]string, 0, len(order))
	for _, token := range order {
		skip := false
		for _, d := range drop {
			if token == d {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, token)
		}
	}
	return out
}

// FromAddressRecords converts a wire-level NBT answer (carries flags, not
// a port) into the orchestrator's shared ip_service shape.
func FromAddressRecords(records []message.AddressRecord) []ipservice.IPService {
	out := make([]ipservice.IPService, 0, len(records))
	for _, rec := range records {
		ip := net.IP(rec.IPv4[:])
		if ip.IsUnspecified() {
			continue
		}
		out = append(out, ipservice.IPService{Addr: ip, Port: ipservice.None})
	}
	return out
}
