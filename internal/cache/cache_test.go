package cache_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbios-go/nbtresolve/internal/cache"
	"github.com/netbios-go/nbtresolve/internal/ipservice"
)

func TestMemStore_SetThenGet(t *testing.T) {
	s := cache.NewMemStore()
	want := []ipservice.IPService{{Addr: net.ParseIP("10.0.0.1"), Port: 0}}

	s.Set("FILESERVER<20>", want, time.Minute)
	got, ok := s.Get("FILESERVER<20>")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestMemStore_NegativeHitIsPresentWithNoServices(t *testing.T) {
	s := cache.NewMemStore()
	s.Set("MISSING<20>", nil, time.Minute)

	got, ok := s.Get("MISSING<20>")
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestMemStore_ExpiredEntryIsNotPresent(t *testing.T) {
	s := cache.NewMemStore()
	s.Set("FILESERVER<20>", []ipservice.IPService{{Addr: net.ParseIP("10.0.0.1")}}, time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	_, ok := s.Get("FILESERVER<20>")
	assert.False(t, ok)
}

func TestMemStore_DeleteRemovesEntryBeforeTTL(t *testing.T) {
	s := cache.NewMemStore()
	s.Set("FILESERVER<20>", []ipservice.IPService{{Addr: net.ParseIP("10.0.0.1")}}, time.Hour)

	s.Delete("FILESERVER<20>")
	_, ok := s.Get("FILESERVER<20>")
	assert.False(t, ok)
}

func TestBadgerStore_SetThenGetRoundTrips(t *testing.T) {
	store, err := cache.OpenBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	want := []ipservice.IPService{{Addr: net.ParseIP("10.0.0.9"), Port: 389}}
	store.Set("EXAMPLE<1c>", want, time.Minute)

	got, ok := store.Get("EXAMPLE<1c>")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.True(t, got[0].Addr.Equal(want[0].Addr))
	assert.Equal(t, want[0].Port, got[0].Port)
}

func TestBadgerStore_DeleteRemovesEntry(t *testing.T) {
	store, err := cache.OpenBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	store.Set("EXAMPLE<1c>", []ipservice.IPService{{Addr: net.ParseIP("10.0.0.9")}}, time.Hour)
	store.Delete("EXAMPLE<1c>")

	_, ok := store.Get("EXAMPLE<1c>")
	assert.False(t, ok)
}
