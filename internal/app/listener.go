package app

import (
	"context"

	"github.com/netbios-go/nbtresolve/internal/message"
	"github.com/netbios-go/nbtresolve/internal/netbios"
	"github.com/netbios-go/nbtresolve/internal/transaction"
	"github.com/netbios-go/nbtresolve/internal/transport"
)

// packetReader is a long-running goroutine that owns the shared port-137
// socket in daemon mode and hands every parsed datagram to the transaction
// Dispatcher, the way a co-resident Samba nmbd would let nb_packet_reader
// short-circuit a reply straight to the waiting transaction instead of
// every caller reading its own ephemeral socket. It is the production
// publisher side of transaction.Dispatcher.Publish; outside daemon mode
// nothing binds port 137 and the Engine it's handed runs socket-only.
type packetReader struct {
	tr         transport.Transport
	dispatcher *transaction.Dispatcher
}

// newPacketReader binds the shared NetBIOS port and returns a reader ready
// to run. The caller starts it with Run in its own goroutine and stops it
// by cancelling the context passed to Run, which also closes the socket.
func newPacketReader(dispatcher *transaction.Dispatcher) (*packetReader, error) {
	tr, err := transport.NewUDPv4Transport(netbios.Port)
	if err != nil {
		return nil, err
	}
	return &packetReader{tr: tr, dispatcher: dispatcher}, nil
}

// Run reads datagrams until ctx is done or the socket errors, publishing
// every parsed packet to the dispatcher. Unparseable datagrams are
// discarded silently, same as transaction.recvLoop.
func (p *packetReader) Run(ctx context.Context) {
	defer func() { _ = p.tr.Close() }()
	for {
		raw, from, err := p.tr.Receive(ctx)
		if err != nil {
			return
		}
		pkt, err := message.Parse(raw)
		if err != nil {
			continue
		}
		p.dispatcher.Publish(pkt, from)
	}
}
