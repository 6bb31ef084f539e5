// Package ads implements the ADS (Active Directory Domain Services)
// resolution method (§4.I): DNS SRV lookups for a domain's PDC, generic
// DCs, or Kerberos KDCs, with each target hostname expanded to addresses
// while preserving the SRV record's port.
package ads

import (
	"context"
	"net"
	"sort"

	"github.com/miekg/dns"

	"github.com/netbios-go/nbtresolve/internal/ipservice"
	"github.com/netbios-go/nbtresolve/internal/nberrors"
)

// Kind selects which AD service's SRV records to query. These are the
// only three accepted targets: PDC (name type 0x1B), generic DC (0x1C),
// and KDC (the synthetic KDC_NAME_TYPE, 0xDCDC).
type Kind int

const (
	PDC Kind = iota
	DC
	KDC
)

// srvName builds the SRV query name for k under domain. A non-empty
// sitename narrows DC/KDC queries to that AD site
// (_ldap._tcp.<site>._sites.dc._msdcs.<domain>); the PDC is forest-wide
// and has no site-scoped form, so sitename is ignored for PDC.
func (k Kind) srvName(domain, sitename string) (string, error) {
	fqdn := dns.Fqdn(domain)
	switch k {
	case PDC:
		return "_ldap._tcp.pdc._msdcs." + fqdn, nil
	case DC:
		if sitename != "" {
			return "_ldap._tcp." + sitename + "._sites.dc._msdcs." + fqdn, nil
		}
		return "_ldap._tcp.dc._msdcs." + fqdn, nil
	case KDC:
		if sitename != "" {
			return "_kerberos._tcp." + sitename + "._sites.dc._msdcs." + fqdn, nil
		}
		return "_kerberos._tcp.dc._msdcs." + fqdn, nil
	default:
		return "", nberrors.New(nberrors.InvalidParameter, "ads.Resolve")
	}
}

// Record is one entry a SRV iterator yields for a name: a prioritized,
// weighted target that is either already resolved to addresses (glue) or
// just a hostname the adapter must expand itself.
type Record struct {
	Target   string
	Port     uint16
	Priority uint16
	Weight   uint16
	Addrs    []net.IP
}

// SRVLookup resolves one SRV query name to its record set, ordered by
// priority then weight as the zone returned them.
type SRVLookup interface {
	LookupSRV(ctx context.Context, fqdn string) ([]Record, error)
}

// HostLookup expands an SRV target's hostname to addresses when the SRV
// iterator didn't already supply glue records.
type HostLookup interface {
	LookupHost(ctx context.Context, host string) ([]net.IP, error)
}

// Resolver queries AD SRV records and expands them into ip_service
// entries.
type Resolver struct {
	srv  SRVLookup
	host HostLookup
}

// New builds a Resolver. A nil srv defaults to DNSClient using the
// system's configured nameserver; a nil host defaults to
// net.DefaultResolver.
func New(srv SRVLookup, host HostLookup) *Resolver {
	if srv == nil {
		srv = NewDNSClient("")
	}
	if host == nil {
		host = systemHostLookup{}
	}
	return &Resolver{srv: srv, host: host}
}

// Resolve queries the SRV records for kind under domain, sorts them by
// priority then weight, and expands each target to its addresses,
// preserving the record's port. An empty sitename queries the
// forest-wide SRV name; see Kind.srvName for the site-scoped form.
func (r *Resolver) Resolve(ctx context.Context, domain, sitename string, kind Kind) ([]ipservice.IPService, error) {
	fqdn, err := kind.srvName(domain, sitename)
	if err != nil {
		return nil, err
	}

	records, err := r.srv.LookupSRV(ctx, fqdn)
	if err != nil {
		return nil, nberrors.Wrap(nberrors.Io, "ads.Resolve", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority < records[j].Priority
		}
		return records[i].Weight > records[j].Weight
	})

	var out []ipservice.IPService
	for _, rec := range records {
		addrs := rec.Addrs
		if len(addrs) == 0 {
			addrs, err = r.host.LookupHost(ctx, rec.Target)
			if err != nil {
				continue
			}
		}
		for _, a := range addrs {
			out = append(out, ipservice.IPService{Addr: a, Port: rec.Port})
		}
	}
	if len(out) == 0 {
		return nil, nberrors.New(nberrors.NotFound, "ads.Resolve")
	}
	return out, nil
}

type systemHostLookup struct{}

func (systemHostLookup) LookupHost(ctx context.Context, host string) ([]net.IP, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	out := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.IP)
	}
	return out, nil
}
