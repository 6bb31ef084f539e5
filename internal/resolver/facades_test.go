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

func TestResolveName_PreferIPv4SkipsBroadcastAndZero(t *testing.T) {
	services := []ipservice.IPService{
		{Addr: net.ParseIP("255.255.255.255"), Port: ipservice.None},
		{Addr: net.ParseIP("10.0.0.9"), Port: ipservice.None},
	}
	r := resolver.New(resolver.Deps{
		Hosts:               method(services, nil),
		DefaultResolveOrder: []string{"hosts"},
		CacheTTL:            time.Minute,
	})

	result, err := r.ResolveName(context.Background(), netbios.Name{Label: "HOST", Suffix: netbios.SuffixWorkstation}, true)
	require.NoError(t, err)
	assert.True(t, result.Addr.Equal(net.ParseIP("10.0.0.9")))
}

func TestResolveName_FallbackFiltersZeroAndBroadcastRegardlessOfFamily(t *testing.T) {
	services := []ipservice.IPService{
		{Addr: net.ParseIP("255.255.255.255"), Port: ipservice.None},
		{Addr: net.IPv6zero, Port: ipservice.None},
		{Addr: net.ParseIP("2001:db8::1"), Port: ipservice.None},
	}
	r := resolver.New(resolver.Deps{
		Hosts:               method(services, nil),
		DefaultResolveOrder: []string{"hosts"},
		CacheTTL:            time.Minute,
	})

	result, err := r.ResolveName(context.Background(), netbios.Name{Label: "HOST", Suffix: netbios.SuffixWorkstation}, false)
	require.NoError(t, err)
	assert.True(t, result.Addr.Equal(net.ParseIP("2001:db8::1")))
}

func TestResolveName_AllAddressesDisqualifiedIsNotFound(t *testing.T) {
	services := []ipservice.IPService{
		{Addr: net.ParseIP("255.255.255.255"), Port: ipservice.None},
		{Addr: net.IPv4zero, Port: ipservice.None},
	}
	r := resolver.New(resolver.Deps{
		Hosts:               method(services, nil),
		DefaultResolveOrder: []string{"hosts"},
		CacheTTL:            time.Minute,
	})

	_, err := r.ResolveName(context.Background(), netbios.Name{Label: "HOST", Suffix: netbios.SuffixWorkstation}, true)
	require.Error(t, err)
	kind, ok := nberrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nberrors.NotFound, kind)
}

func TestFindMasterIP_FallsBackFromMasterBrowserToPDC(t *testing.T) {
	calls := 0
	hosts := func(context.Context, netbios.Name, string) ([]ipservice.IPService, error) {
		calls++
		if calls == 1 {
			return nil, nberrors.New(nberrors.NotFound, "test")
		}
		return []ipservice.IPService{{Addr: net.ParseIP("10.0.0.10"), Port: ipservice.None}}, nil
	}
	r := resolver.New(resolver.Deps{
		Hosts:               hosts,
		DefaultResolveOrder: []string{"hosts"},
		CacheTTL:            time.Minute,
	})

	result, err := r.FindMasterIP(context.Background(), "WORKGROUP")
	require.NoError(t, err)
	assert.True(t, result.Addr.Equal(net.ParseIP("10.0.0.10")))
	assert.Equal(t, 2, calls)
}

func TestGetPDCIP_UsesAdsOrderFirstWhenADSSecurity(t *testing.T) {
	adsCalled := false
	adsFn := func(context.Context, netbios.Name, string) ([]ipservice.IPService, error) {
		adsCalled = true
		return []ipservice.IPService{{Addr: net.ParseIP("10.0.0.11"), Port: 389}}, nil
	}
	r := resolver.New(resolver.Deps{
		ADS:                 adsFn,
		DefaultResolveOrder: []string{"hosts"},
		CacheTTL:            time.Minute,
	})

	_, err := r.GetPDCIP(context.Background(), "EXAMPLE", true)
	require.NoError(t, err)
	assert.True(t, adsCalled)
}

func TestGetPDCIP_FallsBackToDefaultOrderWhenAdsFails(t *testing.T) {
	adsFn := func(context.Context, netbios.Name, string) ([]ipservice.IPService, error) {
		return nil, nberrors.New(nberrors.NotFound, "test")
	}
	hosts := method([]ipservice.IPService{{Addr: net.ParseIP("10.0.0.12"), Port: ipservice.None}}, nil)

	r := resolver.New(resolver.Deps{
		ADS:                 adsFn,
		Hosts:               hosts,
		DefaultResolveOrder: []string{"hosts"},
		CacheTTL:            time.Minute,
	})

	result, err := r.GetPDCIP(context.Background(), "EXAMPLE", true)
	require.NoError(t, err)
	assert.True(t, result.Addr.Equal(net.ParseIP("10.0.0.12")))
}
