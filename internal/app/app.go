// Package app wires the resolver's concrete methods, caches, and metrics
// from a loaded config.Config into a ready-to-use resolver.Resolver, the
// way the CLI and any future daemon front-end both need it assembled.
package app

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/netbios-go/nbtresolve/internal/ads"
	"github.com/netbios-go/nbtresolve/internal/cache"
	"github.com/netbios-go/nbtresolve/internal/config"
	"github.com/netbios-go/nbtresolve/internal/hosts"
	"github.com/netbios-go/nbtresolve/internal/lmhosts"
	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/network"
	"github.com/netbios-go/nbtresolve/internal/obs"
	"github.com/netbios-go/nbtresolve/internal/rank"
	"github.com/netbios-go/nbtresolve/internal/resolver"
	"github.com/netbios-go/nbtresolve/internal/transaction"
	"github.com/netbios-go/nbtresolve/internal/wins"
)

// App bundles the resolver together with the pieces a CLI command needs
// to tear it down cleanly (the cache store, if it owns a file handle).
type App struct {
	Resolver *resolver.Resolver
	Metrics  *obs.Metrics

	store      cache.Store
	stopReader context.CancelFunc
}

// Close releases resources the wiring opened: the name cache (when it's
// Badger-backed) and, in daemon mode, the shared port-137 packet reader.
func (a *App) Close() error {
	if a.stopReader != nil {
		a.stopReader()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// New builds an App from cfg: every resolution method config.go knows how
// to configure, the name cache backend it selects, and the proximity
// comparator/metrics every facade uses.
func New(cfg *config.Config) (*App, error) {
	ifaces, err := network.DefaultInterfaces()
	if err != nil {
		return nil, nberrors.Wrap(nberrors.Io, "app.New", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	metrics := obs.NewMetrics(prometheus.DefaultRegisterer)

	dispatcher, stopReader, err := startPacketReader(cfg)
	if err != nil {
		return nil, err
	}
	engine := transaction.NewEngine(dispatcher, nil)

	deps := resolver.Deps{
		Hosts:               resolver.WrapHosts(hosts.New(nil)),
		Lmhosts:             resolver.WrapLmhosts(lmhosts.New(cfg.Lmhosts.Path)),
		Bcast:               resolver.WrapBcast(engine, cfg.NBT.Enabled, metrics),
		NameCache:           store,
		Comparator:          rank.NewComparator(ifaces),
		Metrics:             metrics,
		DefaultResolveOrder: cfg.ResolveOrder,
	}

	if winsCfg, ok := winsConfig(cfg, ifaces); ok {
		w := wins.NewResolver(engine, wins.NewDeadServerMap(30*time.Second, metrics))
		deps.WINS = resolver.WrapWINS(w, winsCfg)
	}

	dnsClient := ads.NewDNSClient("")
	adsResolver := ads.New(dnsClient, nil)
	deps.ADS = resolver.WrapADS(adsResolver, ads.DC)
	deps.KDC = resolver.WrapADS(adsResolver, ads.KDC)

	return &App{Resolver: resolver.New(deps), Metrics: metrics, store: store, stopReader: stopReader}, nil
}

// startPacketReader binds the shared port-137 listener and starts
// publishing every packet it sees to a fresh Dispatcher, but only in
// daemon mode (cfg.NBT.IsDaemon): a one-shot CLI resolution has no
// co-resident listener to race against and has no business holding the
// shared NetBIOS port. Outside daemon mode it returns a nil dispatcher, so
// Engine runs socket-only exactly as before.
func startPacketReader(cfg *config.Config) (*transaction.Dispatcher, context.CancelFunc, error) {
	if !cfg.NBT.IsDaemon {
		return nil, nil, nil
	}

	dispatcher := transaction.NewDispatcher()
	reader, err := newPacketReader(dispatcher)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go reader.Run(ctx)
	return dispatcher, cancel, nil
}

func newStore(cfg *config.Config) (cache.Store, error) {
	if cfg.Cache.Backend == "badger" {
		store, err := cache.OpenBadgerStore(cfg.Cache.BadgerDir)
		if err != nil {
			return nil, nberrors.Wrap(nberrors.Io, "app.New", err)
		}
		return store, nil
	}
	return cache.NewMemStore(), nil
}

// winsConfig translates config.Config's flat tag-to-"host:port"-list form
// into wins.Config's net.Addr form, reporting ok=false when no WINS
// servers are configured at all (leaving the WINS method unregistered).
func winsConfig(cfg *config.Config, ifaces []net.Interface) (wins.Config, bool) {
	if len(cfg.WINS.Tags) == 0 {
		return wins.Config{}, false
	}

	tags := make(map[string][]net.Addr, len(cfg.WINS.Tags))
	for tag, servers := range cfg.WINS.Tags {
		addrs := make([]net.Addr, 0, len(servers))
		for _, s := range servers {
			host, port := splitHostPort(s)
			ip := net.ParseIP(host)
			if ip == nil {
				continue
			}
			addrs = append(addrs, &net.UDPAddr{IP: ip, Port: port})
		}
		if len(addrs) > 0 {
			tags[tag] = addrs
		}
	}
	if len(tags) == 0 {
		return wins.Config{}, false
	}

	source := net.ParseIP(cfg.NBT.SourceAddr)
	if source == nil || source.To4() == nil {
		source = firstLocalIPv4(ifaces)
	}

	return wins.Config{Tags: tags, SourceAddr: source, IsDaemon: cfg.NBT.IsDaemon}, true
}

// firstLocalIPv4 picks this host's first configured IPv4 interface address
// to stand in for an unconfigured WINS source address.
func firstLocalIPv4(ifaces []net.Interface) net.IP {
	for _, a := range network.Addrs(ifaces) {
		if v4 := a.IP.To4(); v4 != nil {
			return v4
		}
	}
	return net.IPv4zero
}

func splitHostPort(s string) (string, int) {
	host, portStr, found := strings.Cut(s, ":")
	if !found {
		return s, 137
	}
	port := 137
	if parsed, err := strconv.Atoi(portStr); err == nil {
		port = parsed
	}
	return host, port
}
