// Package bcast implements the broadcast name-resolution method: querying
// every locally attached IPv4 broadcast segment in parallel.
package bcast

import (
	"context"
	"net"
	"time"

	"github.com/netbios-go/nbtresolve/internal/fanout"
	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/netbios"
	"github.com/netbios-go/nbtresolve/internal/network"
	"github.com/netbios-go/nbtresolve/internal/obs"
	"github.com/netbios-go/nbtresolve/internal/transaction"
)

// waitStep and perAttemptTimeout are fixed for broadcast resolution: every
// segment is queried at once (no stagger) and each is given one second to
// answer before the fan-out gives up on it.
const (
	waitStep          = 0
	perAttemptTimeout = time.Second
)

// Resolve enumerates this host's broadcast-eligible interfaces and queries
// every one of their subnet broadcast addresses for name, recursively
// collecting replies until the per-attempt deadline. enabled gates the
// whole method off administratively: when false, Resolve fails fast with
// InvalidParameter rather than touching the network, mirroring NetBIOS
// being disabled on the node. metrics may be nil; when non-nil and the
// fan-out succeeds, the winning segment's collected-address count is
// recorded. A failed fan-out records nothing.
func Resolve(ctx context.Context, engine *transaction.Engine, name netbios.Name, enabled bool, metrics *obs.Metrics) (fanout.Result, error) {
	if !enabled {
		return fanout.Result{}, nberrors.New(nberrors.InvalidParameter, "bcast.Resolve")
	}

	ifaces, err := network.DefaultInterfaces()
	if err != nil {
		return fanout.Result{}, nberrors.Wrap(nberrors.Io, "bcast.Resolve", err)
	}

	ips := network.BroadcastAddrs(ifaces)
	if len(ips) == 0 {
		return fanout.Result{}, nberrors.New(nberrors.NotFound, "bcast.Resolve")
	}

	addrs := make([]net.Addr, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, &net.UDPAddr{IP: ip, Port: netbios.Port})
	}

	result, err := fanout.NameQueries(ctx, engine, name, true, true, addrs, waitStep, perAttemptTimeout)
	if err == nil {
		metrics.ObserveBroadcastReplies(len(result.Addresses))
	}
	return result, err
}
