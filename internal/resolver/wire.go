package resolver

import (
	"context"

	"github.com/netbios-go/nbtresolve/internal/ads"
	"github.com/netbios-go/nbtresolve/internal/bcast"
	"github.com/netbios-go/nbtresolve/internal/hosts"
	"github.com/netbios-go/nbtresolve/internal/ipservice"
	"github.com/netbios-go/nbtresolve/internal/lmhosts"
	"github.com/netbios-go/nbtresolve/internal/netbios"
	"github.com/netbios-go/nbtresolve/internal/obs"
	"github.com/netbios-go/nbtresolve/internal/transaction"
	"github.com/netbios-go/nbtresolve/internal/wins"
)

// WrapHosts adapts a hosts.Resolver to methodFunc.
func WrapHosts(h *hosts.Resolver) methodFunc {
	return func(ctx context.Context, name netbios.Name, _ string) ([]ipservice.IPService, error) {
		return h.Resolve(ctx, name)
	}
}

// WrapLmhosts adapts a lmhosts.Resolver to methodFunc. lmhosts.Resolve
// isn't context-aware (it's a local file read), so ctx is dropped.
func WrapLmhosts(l *lmhosts.Resolver) methodFunc {
	return func(_ context.Context, name netbios.Name, _ string) ([]ipservice.IPService, error) {
		return l.Resolve(name)
	}
}

// WrapWINS adapts a wins.Resolver under cfg to methodFunc.
func WrapWINS(w *wins.Resolver, cfg wins.Config) methodFunc {
	return func(ctx context.Context, name netbios.Name, _ string) ([]ipservice.IPService, error) {
		result, err := w.Resolve(ctx, cfg, name)
		if err != nil {
			return nil, err
		}
		return FromAddressRecords(result.Addresses), nil
	}
}

// WrapBcast adapts the broadcast resolver to methodFunc.
func WrapBcast(engine *transaction.Engine, enabled bool, metrics *obs.Metrics) methodFunc {
	return func(ctx context.Context, name netbios.Name, _ string) ([]ipservice.IPService, error) {
		result, err := bcast.Resolve(ctx, engine, name, enabled, metrics)
		if err != nil {
			return nil, err
		}
		return FromAddressRecords(result.Addresses), nil
	}
}

// WrapADS adapts an ads.Resolver under kind to methodFunc, passing
// sitename through for a site-scoped SRV query.
func WrapADS(a *ads.Resolver, kind ads.Kind) methodFunc {
	return func(ctx context.Context, name netbios.Name, sitename string) ([]ipservice.IPService, error) {
		return a.Resolve(ctx, name.Label, sitename, kind)
	}
}
