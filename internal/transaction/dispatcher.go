// Package transaction implements a single NetBIOS request/reply exchange:
// send, retransmit every second until a caller-set deadline, and race the
// reply against an in-process dispatcher that lets a co-resident listener
// deliver an already-received packet instead of forcing every caller to
// read its own socket.
package transaction

import (
	"net"
	"sync"

	"github.com/netbios-go/nbtresolve/internal/message"
)

// Dispatcher is the in-process analogue of Samba's nb_packet_reader: a
// shared mailbox that a long-running receive loop can use to hand a
// just-arrived packet straight to the transaction waiting for it, without
// that transaction opening a second socket. It is optional — Engine.Trans
// works socket-only when no Dispatcher is wired in.
type Dispatcher struct {
	mu   sync.Mutex
	subs map[subKey]chan dispatched
}

type subKey struct {
	qType uint16
	trnID int32
}

type dispatched struct {
	pkt  message.Packet
	from net.Addr
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[subKey]chan dispatched)}
}

// Subscribe registers interest in replies of qType carrying trnID. The
// match is exact: Publish looks up the reply header's own transaction id,
// so a subscription with trnID -1 receives nothing. The returned channel
// receives at most one packet; cancel must be called once the caller stops
// waiting, win or lose.
func (d *Dispatcher) Subscribe(qType uint16, trnID int32) (<-chan dispatched, func()) {
	key := subKey{qType: qType, trnID: trnID}
	ch := make(chan dispatched, 1)

	d.mu.Lock()
	d.subs[key] = ch
	d.mu.Unlock()

	cancel := func() {
		d.mu.Lock()
		if d.subs[key] == ch {
			delete(d.subs, key)
		}
		d.mu.Unlock()
	}
	return ch, cancel
}

// Publish hands pkt to the subscriber matching its first answer's type and
// the header's transaction id, if any is currently waiting. It returns
// false when nobody is subscribed or the subscriber's buffer is full (the
// latter should not happen in practice since each subscription is
// one-shot and removed by its owner on delivery or cancel).
func (d *Dispatcher) Publish(pkt message.Packet, from net.Addr) bool {
	if len(pkt.Answers) == 0 {
		return false
	}
	key := subKey{qType: pkt.Answers[0].Type, trnID: int32(pkt.Header.TrnID)}

	d.mu.Lock()
	ch, ok := d.subs[key]
	d.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case ch <- dispatched{pkt: pkt, from: from}:
		return true
	default:
		return false
	}
}
