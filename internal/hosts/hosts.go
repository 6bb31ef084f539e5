// Package hosts implements the "hosts" resolution method (§4.I): a thin
// adapter over the system resolver, restricted to the two NetBIOS name
// types that make sense as plain hostnames.
package hosts

import (
	"context"
	"net"

	"github.com/netbios-go/nbtresolve/internal/ipservice"
	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/netbios"
)

// Lookup is the subset of *net.Resolver this package depends on, so tests
// can substitute a fake without touching the real DNS/hosts-file path.
type Lookup interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Resolver adapts a Lookup into the hosts method.
type Resolver struct {
	lookup Lookup
}

// New wraps the system resolver. A nil lookup falls back to
// net.DefaultResolver.
func New(lookup Lookup) *Resolver {
	if lookup == nil {
		lookup = net.DefaultResolver
	}
	return &Resolver{lookup: lookup}
}

// Resolve looks up name via the system's hosts-file/DNS stack. Only
// workstation (0x00) and server (0x20) name types carry meaning for a
// hostname lookup; anything else is InvalidParameter. Zero addresses
// (0.0.0.0 or ::) returned by a misconfigured hosts file are filtered out.
func (r *Resolver) Resolve(ctx context.Context, name netbios.Name) ([]ipservice.IPService, error) {
	if name.Suffix != netbios.SuffixWorkstation && name.Suffix != netbios.SuffixServer {
		return nil, nberrors.New(nberrors.InvalidParameter, "hosts.Resolve")
	}

	addrs, err := r.lookup.LookupIPAddr(ctx, name.Label)
	if err != nil {
		return nil, nberrors.Wrap(nberrors.Io, "hosts.Resolve", err)
	}

	out := make([]ipservice.IPService, 0, len(addrs))
	for _, a := range addrs {
		if a.IP.IsUnspecified() {
			continue
		}
		out = append(out, ipservice.IPService{Addr: a.IP, Port: ipservice.None})
	}
	if len(out) == 0 {
		return nil, nberrors.New(nberrors.NotFound, "hosts.Resolve")
	}
	return out, nil
}
