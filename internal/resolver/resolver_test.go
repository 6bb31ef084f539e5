package resolver_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbios-go/nbtresolve/internal/ipservice"
	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/netbios"
	"github.com/netbios-go/nbtresolve/internal/resolver"
)

func method(services []ipservice.IPService, err error) func(context.Context, netbios.Name, string) ([]ipservice.IPService, error) {
	return func(context.Context, netbios.Name, string) ([]ipservice.IPService, error) {
		return services, err
	}
}

func newDepsFor(hosts func(context.Context, netbios.Name, string) ([]ipservice.IPService, error)) resolver.Deps {
	return resolver.Deps{
		Hosts:               hosts,
		DefaultResolveOrder: []string{"hosts"},
		CacheTTL:            time.Minute,
	}
}

func TestResolve_LiteralIPShortCircuits(t *testing.T) {
	r := resolver.New(resolver.Deps{DefaultResolveOrder: []string{"hosts"}})

	services, err := r.Resolve(context.Background(), netbios.Name{Label: "192.168.1.5"}, "", []string{"hosts"})
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.True(t, services[0].Addr.Equal(net.ParseIP("192.168.1.5")))
}

func TestResolve_ZeroLiteralAddressIsRejected(t *testing.T) {
	r := resolver.New(resolver.Deps{})

	_, err := r.Resolve(context.Background(), netbios.Name{Label: "0.0.0.0"}, "", []string{"hosts"})
	require.Error(t, err)
	kind, ok := nberrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nberrors.InvalidAddress, kind)
}

func TestResolve_NullSentinelFailsFast(t *testing.T) {
	r := resolver.New(resolver.Deps{})

	_, err := r.Resolve(context.Background(), netbios.Name{Label: "HOST"}, "", []string{"NULL", "hosts"})
	require.Error(t, err)
	kind, ok := nberrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nberrors.InvalidParameter, kind)
}

func TestResolve_UnrecognizedTokenIsSkipped(t *testing.T) {
	svc := []ipservice.IPService{{Addr: net.ParseIP("10.0.0.1"), Port: ipservice.None}}
	d := newDepsFor(method(svc, nil))
	r := resolver.New(d)

	services, err := r.Resolve(context.Background(), netbios.Name{Label: "HOST", Suffix: netbios.SuffixWorkstation}, "", []string{"bogus", "hosts"})
	require.NoError(t, err)
	require.Len(t, services, 1)
}

func TestResolve_NameCacheHitShortCircuits(t *testing.T) {
	calls := 0
	hosts := func(context.Context, netbios.Name, string) ([]ipservice.IPService, error) {
		calls++
		return []ipservice.IPService{{Addr: net.ParseIP("10.0.0.2"), Port: ipservice.None}}, nil
	}
	r := resolver.New(newDepsFor(hosts))
	name := netbios.Name{Label: "HOST", Suffix: netbios.SuffixWorkstation}

	_, err := r.Resolve(context.Background(), name, "", []string{"hosts"})
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), name, "", []string{"hosts"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second call must be served from the name cache")
}

func TestResolve_NegativeCacheHitIsAuthoritative(t *testing.T) {
	calls := 0
	hosts := func(context.Context, netbios.Name, string) ([]ipservice.IPService, error) {
		calls++
		return nil, nberrors.New(nberrors.NotFound, "test")
	}
	r := resolver.New(newDepsFor(hosts))
	name := netbios.Name{Label: "GHOST", Suffix: netbios.SuffixWorkstation}

	_, err := r.Resolve(context.Background(), name, "", []string{"hosts"})
	require.Error(t, err)
	_, err = r.Resolve(context.Background(), name, "", []string{"hosts"})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "a cached negative hit must not re-invoke the method")
}

func TestResolve_LongNameStripsLmhostsWinsAndBcast(t *testing.T) {
	calledLmhosts := false
	lmhosts := func(context.Context, netbios.Name, string) ([]ipservice.IPService, error) {
		calledLmhosts = true
		return nil, nberrors.New(nberrors.NotFound, "test")
	}
	adsFn := method([]ipservice.IPService{{Addr: net.ParseIP("10.0.0.3"), Port: 389}}, nil)

	r := resolver.New(resolver.Deps{
		Lmhosts:             lmhosts,
		ADS:                 adsFn,
		DefaultResolveOrder: []string{"lmhosts", "ads"},
		CacheTTL:            time.Minute,
	})

	longName := "this-name-is-definitely-over-fifteen-characters"
	_, err := r.Resolve(context.Background(), netbios.Name{Label: longName}, "", []string{"lmhosts", "ads"})
	require.NoError(t, err)
	assert.False(t, calledLmhosts, "lmhosts must be stripped for names over 15 characters")
}

func TestResolve_SkipsWINSForMasterBrowserNames(t *testing.T) {
	calledWINS := false
	wins := func(context.Context, netbios.Name, string) ([]ipservice.IPService, error) {
		calledWINS = true
		return nil, nberrors.New(nberrors.NotFound, "test")
	}
	bcast := method([]ipservice.IPService{{Addr: net.ParseIP("10.0.0.4"), Port: ipservice.None}}, nil)

	r := resolver.New(resolver.Deps{WINS: wins, Bcast: bcast, CacheTTL: time.Minute})

	name := netbios.Name{Label: "WORKGROUP", Suffix: netbios.SuffixMasterBrowser}
	_, err := r.Resolve(context.Background(), name, "", []string{"wins", "bcast"})
	require.NoError(t, err)
	assert.False(t, calledWINS)
}

func TestResolve_DedupsAddressPortPairs(t *testing.T) {
	dup := []ipservice.IPService{
		{Addr: net.ParseIP("10.0.0.5"), Port: 389},
		{Addr: net.ParseIP("10.0.0.5"), Port: 389},
	}
	r := resolver.New(newDepsFor(method(dup, nil)))

	services, err := r.Resolve(context.Background(), netbios.Name{Label: "DC1", Suffix: netbios.SuffixWorkstation}, "", []string{"hosts"})
	require.NoError(t, err)
	assert.Len(t, services, 1)
}
