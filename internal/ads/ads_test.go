package ads_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbios-go/nbtresolve/internal/ads"
	"github.com/netbios-go/nbtresolve/internal/nberrors"
)

type fakeSRV struct {
	byFQDN map[string][]ads.Record
	err    error
}

func (f fakeSRV) LookupSRV(_ context.Context, fqdn string) ([]ads.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byFQDN[fqdn], nil
}

type fakeHost struct {
	byTarget map[string][]net.IP
}

func (f fakeHost) LookupHost(_ context.Context, host string) ([]net.IP, error) {
	addrs, ok := f.byTarget[host]
	if !ok {
		return nil, errors.New("nxdomain")
	}
	return addrs, nil
}

func TestResolve_DC_ExpandsHostnameTargetAndKeepsPort(t *testing.T) {
	srv := fakeSRV{byFQDN: map[string][]ads.Record{
		"_ldap._tcp.dc._msdcs.example.com.": {
			{Target: "dc1.example.com.", Port: 389, Priority: 0, Weight: 100},
		},
	}}
	host := fakeHost{byTarget: map[string][]net.IP{
		"dc1.example.com.": {net.ParseIP("10.0.0.5")},
	}}

	r := ads.New(srv, host)
	result, err := r.Resolve(context.Background(), "example.com", "", ads.DC)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.True(t, result[0].Addr.Equal(net.ParseIP("10.0.0.5")))
	assert.Equal(t, uint16(389), result[0].Port)
}

func TestResolve_SortsByPriorityThenWeight(t *testing.T) {
	srv := fakeSRV{byFQDN: map[string][]ads.Record{
		"_ldap._tcp.pdc._msdcs.example.com.": {
			{Target: "low.example.com.", Port: 389, Priority: 10, Weight: 100},
			{Target: "high.example.com.", Port: 389, Priority: 0, Weight: 50},
		},
	}}
	host := fakeHost{byTarget: map[string][]net.IP{
		"low.example.com.":  {net.ParseIP("10.0.0.2")},
		"high.example.com.": {net.ParseIP("10.0.0.1")},
	}}

	r := ads.New(srv, host)
	result, err := r.Resolve(context.Background(), "example.com", "", ads.PDC)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.True(t, result[0].Addr.Equal(net.ParseIP("10.0.0.1")), "lower priority record must sort first")
}

func TestResolve_UsesPreResolvedAddrsWithoutHostLookup(t *testing.T) {
	srv := fakeSRV{byFQDN: map[string][]ads.Record{
		"_kerberos._tcp.dc._msdcs.example.com.": {
			{Target: "kdc1.example.com.", Port: 88, Addrs: []net.IP{net.ParseIP("10.0.0.9")}},
		},
	}}
	r := ads.New(srv, fakeHost{byTarget: map[string][]net.IP{}})

	result, err := r.Resolve(context.Background(), "example.com", "", ads.KDC)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, uint16(88), result[0].Port)
}

func TestResolve_SitenameNarrowsQueryToSiteSRVName(t *testing.T) {
	srv := fakeSRV{byFQDN: map[string][]ads.Record{
		"_ldap._tcp.site1._sites.dc._msdcs.example.com.": {
			{Target: "dc1.example.com.", Port: 389, Addrs: []net.IP{net.ParseIP("10.0.0.5")}},
		},
	}}
	r := ads.New(srv, fakeHost{byTarget: map[string][]net.IP{}})

	result, err := r.Resolve(context.Background(), "example.com", "site1", ads.DC)
	require.NoError(t, err)
	require.Len(t, result, 1)
}

func TestResolve_NoRecordsIsNotFound(t *testing.T) {
	r := ads.New(fakeSRV{byFQDN: map[string][]ads.Record{}}, fakeHost{byTarget: map[string][]net.IP{}})

	_, err := r.Resolve(context.Background(), "example.com", "", ads.DC)
	require.Error(t, err)
	kind, ok := nberrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nberrors.NotFound, kind)
}

func TestResolve_SRVLookupErrorIsWrapped(t *testing.T) {
	r := ads.New(fakeSRV{err: errors.New("network down")}, fakeHost{})

	_, err := r.Resolve(context.Background(), "example.com", "", ads.DC)
	require.Error(t, err)
	kind, ok := nberrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nberrors.Io, kind)
}
