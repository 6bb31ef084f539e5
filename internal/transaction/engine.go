package transaction

import (
	"context"
	"net"
	"time"

	"github.com/netbios-go/nbtresolve/internal/message"
	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/transport"
)

// Outcome is a validator's verdict on a candidate reply.
type Outcome int

const (
	// Reject means the packet doesn't match what this transaction is
	// waiting for; keep waiting for another one.
	Reject Outcome = iota
	// Accept means the packet is the successful reply; resolve the
	// transaction with it.
	Accept
	// AcceptNegative means the packet is a terminal but unsuccessful
	// reply (e.g. NBSTAT rcode NAME_ERROR); resolve the transaction with
	// a NotFound error rather than retrying.
	AcceptNegative
)

// Validator judges one parsed reply packet.
type Validator func(pkt message.Packet) Outcome

// retransmitInterval matches namequery.c's nb_trans_sent: resend every
// second until the caller's deadline is reached.
const retransmitInterval = time.Second

// Engine runs transactions: send, retransmit, race the reply against the
// dispatcher and the raw socket, validate, repeat until accepted, rejected
// terminally, or the context is done.
type Engine struct {
	dispatcher   *Dispatcher
	newTransport func() (transport.Transport, error)
}

// NewEngine creates an Engine. dispatcher may be nil (socket-only mode).
// newTransport is called once per Trans call to obtain a fresh, disposable
// socket; pass nil to use a real ephemeral-port UDP socket.
func NewEngine(dispatcher *Dispatcher, newTransport func() (transport.Transport, error)) *Engine {
	if newTransport == nil {
		newTransport = func() (transport.Transport, error) {
			return transport.NewUDPv4Transport(0)
		}
	}
	return &Engine{dispatcher: dispatcher, newTransport: newTransport}
}

type recvResult struct {
	pkt     message.Packet
	outcome Outcome
	err     error
}

// Trans performs one NetBIOS query/reply transaction: sends packetBytes to
// dstAddr (broadcast-permitted iff isBroadcast — enforced by the
// transport, not here), retransmits every second, and resolves as soon as
// validator accepts a reply (from the dispatcher or the socket) or ctx is
// done. trnID of -1 disables the transaction-id check on socket-received
// packets (the dispatcher match is always exact).
func (e *Engine) Trans(
	ctx context.Context,
	dstAddr net.Addr,
	isBroadcast bool,
	packetBytes []byte,
	expectedType uint16,
	trnID int32,
	validator Validator,
) (message.Packet, error) {
	tr, err := e.newTransport()
	if err != nil {
		return message.Packet{}, nberrors.Wrap(nberrors.Io, "transaction.Trans", err)
	}
	defer func() { _ = tr.Close() }()

	var subCh <-chan dispatched
	var subCancel func()
	if e.dispatcher != nil {
		subCh, subCancel = e.dispatcher.Subscribe(expectedType, trnID)
	}
	defer func() {
		if subCancel != nil {
			subCancel()
		}
	}()

	recvCtx, recvCancel := context.WithCancel(ctx)
	defer recvCancel()

	resultCh := make(chan recvResult, 1)
	go recvLoop(recvCtx, tr, trnID, validator, resultCh)

	if err := tr.Send(ctx, packetBytes, dstAddr); err != nil {
		return message.Packet{}, err
	}

	ticker := time.NewTicker(retransmitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return message.Packet{}, nberrors.Wrap(nberrors.Timeout, "transaction.Trans", ctx.Err())

		case d, ok := <-subCh:
			if !ok {
				subCh = nil
				continue
			}
			switch validator(d.pkt) {
			case Accept:
				return d.pkt, nil
			case AcceptNegative:
				return message.Packet{}, nberrors.New(nberrors.NotFound, "transaction.Trans")
			default:
				// Rejected: this subscription already delivered its one
				// slot. Re-arm a fresh one for the same (type, trnID) so a
				// co-resident listener can still hand us the next
				// candidate instead of leaving us socket-only.
				subCancel()
				subCh, subCancel = e.dispatcher.Subscribe(expectedType, trnID)
			}

		case r := <-resultCh:
			if r.err != nil {
				return message.Packet{}, r.err
			}
			switch r.outcome {
			case Accept:
				return r.pkt, nil
			case AcceptNegative:
				return message.Packet{}, nberrors.New(nberrors.NotFound, "transaction.Trans")
			default:
				// recvLoop never reports Reject; it keeps looping
				// internally until it has something terminal or an error.
			}

		case <-ticker.C:
			if err := tr.Send(ctx, packetBytes, dstAddr); err != nil {
				return message.Packet{}, err
			}
		}
	}
}

// recvLoop reads from tr until it finds a packet the validator doesn't
// reject, or the socket errors, or ctx is done. It silently discards
// unparseable datagrams, non-IPv4 peers, and (when trnID != -1)
// mismatched transaction ids — per §4.C.5.
func recvLoop(ctx context.Context, tr transport.Transport, trnID int32, validator Validator, out chan<- recvResult) {
	for {
		raw, from, err := tr.Receive(ctx)
		if err != nil {
			select {
			case out <- recvResult{err: err}:
			case <-ctx.Done():
			}
			return
		}

		pkt, err := message.Parse(raw)
		if err != nil {
			continue
		}
		if !isIPv4(from) {
			continue
		}
		if trnID != -1 && int32(pkt.Header.TrnID) != trnID {
			continue
		}

		outcome := validator(pkt)
		if outcome == Reject {
			continue
		}

		select {
		case out <- recvResult{pkt: pkt, outcome: outcome}:
		case <-ctx.Done():
		}
		return
	}
}

// Collect behaves like Trans but never settles on the first accepted
// packet: broadcast name queries (§4.E) gather replies from every host
// that answers rather than stopping at the first one. It retransmits on
// the same schedule as Trans and forwards every non-rejected packet to
// onPacket until onPacket reports satisfaction (stop == true) or ctx is
// done; reaching the deadline without onPacket stopping is not an error,
// since the caller keeps whatever it accumulated.
func (e *Engine) Collect(
	ctx context.Context,
	dstAddr net.Addr,
	packetBytes []byte,
	expectedType uint16,
	trnID int32,
	validator Validator,
	onPacket func(pkt message.Packet) (stop bool),
) error {
	tr, err := e.newTransport()
	if err != nil {
		return nberrors.Wrap(nberrors.Io, "transaction.Collect", err)
	}
	defer func() { _ = tr.Close() }()

	var subCh <-chan dispatched
	var subCancel func()
	if e.dispatcher != nil {
		subCh, subCancel = e.dispatcher.Subscribe(expectedType, trnID)
	}
	defer func() {
		if subCancel != nil {
			subCancel()
		}
	}()

	recvCtx, recvCancel := context.WithCancel(ctx)
	defer recvCancel()

	packetCh := make(chan message.Packet, 4)
	go collectLoop(recvCtx, tr, trnID, validator, packetCh)

	if err := tr.Send(ctx, packetBytes, dstAddr); err != nil {
		return err
	}

	ticker := time.NewTicker(retransmitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case d, ok := <-subCh:
			if !ok {
				subCh = nil
				continue
			}
			if validator(d.pkt) == Reject {
				// Rejected: re-arm a fresh subscription for the same
				// (type, trnID), same reasoning as Trans.
				subCancel()
				subCh, subCancel = e.dispatcher.Subscribe(expectedType, trnID)
				continue
			}
			if onPacket(d.pkt) {
				return nil
			}
			subCancel()
			subCh, subCancel = e.dispatcher.Subscribe(expectedType, trnID)

		case pkt, ok := <-packetCh:
			if !ok {
				packetCh = nil
				continue
			}
			if onPacket(pkt) {
				return nil
			}

		case <-ticker.C:
			if err := tr.Send(ctx, packetBytes, dstAddr); err != nil {
				return err
			}
		}
	}
}

// collectLoop is recvLoop's counterpart for Collect: rather than stopping
// at the first non-rejected packet, it keeps reading and forwarding every
// one of them until the socket errors or ctx is done.
func collectLoop(ctx context.Context, tr transport.Transport, trnID int32, validator Validator, out chan<- message.Packet) {
	defer close(out)
	for {
		raw, from, err := tr.Receive(ctx)
		if err != nil {
			return
		}

		pkt, err := message.Parse(raw)
		if err != nil {
			continue
		}
		if !isIPv4(from) {
			continue
		}
		if trnID != -1 && int32(pkt.Header.TrnID) != trnID {
			continue
		}
		if validator(pkt) == Reject {
			continue
		}

		select {
		case out <- pkt:
		case <-ctx.Done():
			return
		}
	}
}

func isIPv4(addr net.Addr) bool {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return false
	}
	return udpAddr.IP.To4() != nil
}
