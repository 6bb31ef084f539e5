package ads

import (
	"context"
	"net"

	krb5config "github.com/jcmturner/gokrb5/v8/config"
	"github.com/miekg/dns"

	"github.com/netbios-go/nbtresolve/internal/nberrors"
)

// DNSClient is the default SRVLookup: it queries the system's configured
// nameserver (per resolv.conf) directly with the DNS wire protocol rather
// than going through the OS stub resolver, so SRV priority/weight/port
// fields survive intact.
type DNSClient struct {
	client  *dns.Client
	servers []string
}

// NewDNSClient builds a DNSClient. An empty resolvConfPath defaults to
// "/etc/resolv.conf".
func NewDNSClient(resolvConfPath string) *DNSClient {
	if resolvConfPath == "" {
		resolvConfPath = "/etc/resolv.conf"
	}

	d := &DNSClient{client: &dns.Client{}}
	if cfg, err := dns.ClientConfigFromFile(resolvConfPath); err == nil {
		for _, server := range cfg.Servers {
			d.servers = append(d.servers, net.JoinHostPort(server, cfg.Port))
		}
	}
	return d
}

// LookupSRV queries fqdn against each configured nameserver in turn,
// returning the first successful answer's records.
func (d *DNSClient) LookupSRV(ctx context.Context, fqdn string) ([]Record, error) {
	if len(d.servers) == 0 {
		return nil, nberrors.New(nberrors.Io, "ads.DNSClient.LookupSRV")
	}

	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeSRV)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range d.servers {
		reply, _, err := d.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if reply.Rcode != dns.RcodeSuccess {
			lastErr = nberrors.New(nberrors.NotFound, "ads.DNSClient.LookupSRV")
			continue
		}
		return recordsFromAnswer(reply.Answer), nil
	}
	return nil, lastErr
}

func recordsFromAnswer(answer []dns.RR) []Record {
	out := make([]Record, 0, len(answer))
	for _, rr := range answer {
		srv, ok := rr.(*dns.SRV)
		if !ok {
			continue
		}
		out = append(out, Record{
			Target:   srv.Target,
			Port:     srv.Port,
			Priority: srv.Priority,
			Weight:   srv.Weight,
		})
	}
	return out
}

// RealmFromKrb5Conf reads the default Kerberos realm out of a krb5.conf
// file, used to default an ADS domain when the caller didn't supply one.
// An empty path defaults to "/etc/krb5.conf".
func RealmFromKrb5Conf(path string) (string, error) {
	if path == "" {
		path = "/etc/krb5.conf"
	}
	cfg, err := krb5config.Load(path)
	if err != nil {
		return "", nberrors.Wrap(nberrors.Io, "ads.RealmFromKrb5Conf", err)
	}
	if cfg.LibDefaults.DefaultRealm == "" {
		return "", nberrors.New(nberrors.NotFound, "ads.RealmFromKrb5Conf")
	}
	return cfg.LibDefaults.DefaultRealm, nil
}
