package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/net/ipv4"

	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/netbios"
)

// defaultTTL is the outbound IP TTL for this socket. Unlike the teacher's
// mDNS transport, which pins TTL=1 because multicast must never cross a
// router, this socket carries both broadcast queries (local segment only,
// TTL is irrelevant) and unicast WINS/DC queries that may be several hops
// away, so it keeps the normal routable default rather than restricting it.
const defaultTTL = 64

// UDPv4Transport implements Transport over an IPv4 UDP socket. Unlike an
// mDNS socket it never joins a multicast group: NetBIOS name resolution
// falls back to subnet broadcast rather than multicast (RFC 1001 §6.1), so
// the socket is instead configured for SO_BROADCAST sends alongside the
// usual SO_REUSEADDR/SO_REUSEPORT pair.
//
// This migrates the CreateSocket/SendQuery/ReceiveResponse trio that used
// to live directly in internal/network/socket.go onto the Transport
// interface, adding context support for cancellation and deadlines.
type UDPv4Transport struct {
	conn    net.PacketConn
	pktConn *ipv4.PacketConn
}

// NewUDPv4Transport binds a UDP4 socket to localPort (0 for an ephemeral
// port used by outbound-only resolvers, or netbios.Port to also receive
// unsolicited broadcast replies the way a full NetBIOS node would).
func NewUDPv4Transport(localPort int) (*UDPv4Transport, error) {
	lc := net.ListenConfig{Control: PlatformControl}

	conn, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort("", strconv.Itoa(localPort)))
	if err != nil {
		return nil, nberrors.Wrap(nberrors.Io, "transport.NewUDPv4Transport",
			fmt.Errorf("bind udp4 :%d: %w", localPort, err))
	}

	if udpConn, ok := conn.(*net.UDPConn); ok {
		if err := udpConn.SetReadBuffer(65536); err != nil {
			_ = conn.Close()
			return nil, nberrors.Wrap(nberrors.Io, "transport.NewUDPv4Transport", err)
		}
	}

	pktConn := ipv4.NewPacketConn(conn)
	if err := pktConn.SetTTL(defaultTTL); err != nil {
		// Some platforms/socket types don't support per-socket TTL control
		// (e.g. certain loopback-only test binds); this is not fatal.
		_ = err
	}

	return &UDPv4Transport{conn: conn, pktConn: pktConn}, nil
}

// Send transmits packet to dest, which may be a WINS/DC unicast address or
// a subnet broadcast address produced by internal/network.BroadcastAddrs.
//
// This migrates SendQuery() from the pre-transport socket package.
func (t *UDPv4Transport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
	select {
	case <-ctx.Done():
		return nberrors.Wrap(nberrors.Timeout, "transport.Send", ctx.Err())
	default:
	}

	n, err := t.conn.WriteTo(packet, dest)
	if err != nil {
		return nberrors.Wrap(nberrors.Io, "transport.Send", err)
	}
	if n != len(packet) {
		return nberrors.New(nberrors.Io, "transport.Send")
	}
	return nil
}

// Receive waits for an incoming packet, respecting context cancellation and
// deadline.
//
// This migrates ReceiveResponse() from the pre-transport socket package,
// adding context propagation.
func (t *UDPv4Transport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case <-ctx.Done():
		return nil, nil, nberrors.Wrap(nberrors.Timeout, "transport.Receive", ctx.Err())
	default:
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return nil, nil, nberrors.Wrap(nberrors.Io, "transport.Receive", err)
		}
	}

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)
	buffer := *bufPtr

	n, srcAddr, err := t.conn.ReadFrom(buffer)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, nil, nberrors.Wrap(nberrors.Timeout, "transport.Receive", err)
		}
		return nil, nil, nberrors.Wrap(nberrors.Io, "transport.Receive", err)
	}

	result := make([]byte, n)
	copy(result, buffer[:n])
	return result, srcAddr, nil
}

// TTL reports the socket's current outbound IP TTL.
func (t *UDPv4Transport) TTL() (int, error) {
	ttl, err := t.pktConn.TTL()
	if err != nil {
		return 0, nberrors.Wrap(nberrors.Io, "transport.TTL", err)
	}
	return ttl, nil
}

// LocalAddr returns the socket's bound local address, primarily useful in
// tests that need to address a transport by its ephemeral port.
func (t *UDPv4Transport) LocalAddr() net.Addr {
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

// Close releases the socket. A second call returns an error rather than
// swallowing it.
func (t *UDPv4Transport) Close() error {
	if t.conn == nil {
		return nberrors.New(nberrors.Io, "transport.Close")
	}
	conn := t.conn
	t.conn = nil
	if err := conn.Close(); err != nil {
		return nberrors.Wrap(nberrors.Io, "transport.Close", err)
	}
	return nil
}

// BroadcastAddr builds the net.Addr for a broadcast send to ip on the
// NetBIOS name service port.
func BroadcastAddr(ip net.IP) net.Addr {
	return &net.UDPAddr{IP: ip, Port: netbios.Port}
}
