package wins

import (
	"context"
	"net"
	"time"

	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/nbquery"
	"github.com/netbios-go/nbtresolve/internal/netbios"
	"github.com/netbios-go/nbtresolve/internal/transaction"
)

// perServerDeadline bounds one server's probe within a tag's sequential
// walk, per §4.H.3.
const perServerDeadline = 2 * time.Second

// Config carries the WINS server list, partitioned by tag (a workgroup or
// site name — "*" conventionally meaning the unqualified default list),
// and the identity this process queries as.
type Config struct {
	Tags map[string][]net.Addr
	// SourceAddr is this host's own IPv4 address.
	SourceAddr net.IP
	// IsDaemon marks this process as itself answering NetBIOS name
	// service queries, in which case its own address is filtered out of
	// every tag's server list to prevent a self-loop (§4.H.2).
	IsDaemon bool
}

// Resolver runs WINS queries against a Config's server lists, remembering
// dead servers across calls via its DeadServerMap.
type Resolver struct {
	engine *transaction.Engine
	dead   *DeadServerMap
}

// NewResolver creates a Resolver. dead may be shared across many Resolve
// calls so cooldowns persist between lookups.
func NewResolver(engine *transaction.Engine, dead *DeadServerMap) *Resolver {
	return &Resolver{engine: engine, dead: dead}
}

type tagOutcome struct {
	res nbquery.NameQueryResult
	err error
}

// Resolve queries every tag in cfg.Tags concurrently; within a tag,
// servers are probed sequentially in order. The first tag to produce a
// successful reply wins and cancels every other tag's in-flight probes;
// the call only fails once every tag has been exhausted, with a NotFound
// error (per §4.H.3/4).
func (r *Resolver) Resolve(ctx context.Context, cfg Config, name netbios.Name) (nbquery.NameQueryResult, error) {
	if cfg.SourceAddr.To4() == nil {
		return nbquery.NameQueryResult{}, nberrors.New(nberrors.InvalidAddress, "wins.Resolve")
	}
	if len(cfg.Tags) == 0 {
		return nbquery.NameQueryResult{}, nberrors.New(nberrors.InvalidParameter, "wins.Resolve")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	source := cfg.SourceAddr.String()
	resultCh := make(chan tagOutcome, len(cfg.Tags))
	for _, servers := range cfg.Tags {
		servers := r.filterServers(servers, cfg)
		go r.probeTag(ctx, servers, name, source, resultCh)
	}

	var lastErr error
	for range cfg.Tags {
		o := <-resultCh
		if o.err == nil {
			cancel()
			return o.res, nil
		}
		lastErr = o.err
	}
	return nbquery.NameQueryResult{}, lastErr
}

// filterServers drops (a) this process's own address, when it is itself a
// NetBIOS daemon (self-loop protection), and (b) any server currently in
// its dead-server cooldown for this source.
func (r *Resolver) filterServers(servers []net.Addr, cfg Config) []net.Addr {
	out := make([]net.Addr, 0, len(servers))
	source := cfg.SourceAddr.String()
	for _, s := range servers {
		if cfg.IsDaemon && sameIPv4(s, cfg.SourceAddr) {
			continue
		}
		if r.dead.IsDead(s.String(), source) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// probeTag walks servers in order, one at a time. A timeout marks that
// server dead for this source and advances to the next; any other
// failure (e.g. a negative WINS reply from that particular server) also
// advances, since a "no" from one configured WINS server doesn't preclude
// asking another. Once ctx itself is done (another tag won, or the caller
// gave up), the walk stops without marking the server dead. Exhausting the
// list without success yields NotFound regardless of which errors were
// observed along the way.
func (r *Resolver) probeTag(ctx context.Context, servers []net.Addr, name netbios.Name, source string, resultCh chan<- tagOutcome) {
	if len(servers) == 0 {
		resultCh <- tagOutcome{err: nberrors.New(nberrors.NotFound, "wins.Resolve")}
		return
	}

	for _, server := range servers {
		attemptCtx, cancel := context.WithTimeout(ctx, perServerDeadline)
		res, err := nbquery.NameQuery(attemptCtx, r.engine, server, name, nbquery.NameQueryOptions{
			Broadcast:        false,
			RecursionDesired: true,
			Deadline:         perServerDeadline,
		})
		cancel()

		if err == nil {
			resultCh <- tagOutcome{res: res}
			return
		}
		if ctx.Err() != nil {
			break
		}
		if kind, ok := nberrors.KindOf(err); ok && kind == nberrors.Timeout {
			r.dead.MarkDead(server.String(), source)
		}
	}
	resultCh <- tagOutcome{err: nberrors.New(nberrors.NotFound, "wins.Resolve")}
}

func sameIPv4(addr net.Addr, ip net.IP) bool {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return false
	}
	return udpAddr.IP.Equal(ip)
}
