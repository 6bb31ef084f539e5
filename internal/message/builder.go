package message

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"

	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/netbios"
)

// NewTransactionID generates a random 16-bit transaction id. The original
// Samba source used rand()%0x7FFF; this rendition uses crypto/rand for the
// same range, which is strictly higher quality randomness and costs
// nothing at NBT's query volumes.
func NewTransactionID() (uint16, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(0x7FFF))
	if err != nil {
		return 0, nberrors.Wrap(nberrors.Io, "message.NewTransactionID", err)
	}
	return uint16(n.Int64()), nil
}

// BuildNameQueryOptions controls the header bits of a 0x20 (NB) query, per
// §4.E of the resolver spec.
type BuildNameQueryOptions struct {
	TrnID            uint16
	Broadcast        bool
	RecursionDesired bool
}

// BuildNameQuery constructs a 0x20 name-query packet for the given NetBIOS
// name, per RFC 1002 §4.2.12.
func BuildNameQuery(name netbios.Name, opts BuildNameQueryOptions) []byte {
	var flags uint16
	if opts.Broadcast {
		flags |= netbios.FlagBroadcast
	}
	if opts.RecursionDesired {
		flags |= netbios.FlagRecursionDesired
	}
	h := Header{TrnID: opts.TrnID, Flags: flags, QDCount: 1}
	buf := h.marshal()
	buf = append(buf, netbios.Encode(name)...)
	buf = appendUint16(buf, netbios.QuestionTypeNB)
	buf = appendUint16(buf, netbios.ClassIN)
	return buf
}

// BuildNodeStatusQueryOptions controls the header bits of a 0x21 (NBSTAT)
// query, per §4.D.
type BuildNodeStatusQueryOptions struct {
	TrnID uint16
}

// BuildNodeStatusQuery constructs a 0x21 node-status query packet, always
// unicast, non-recursive, per §4.D.
func BuildNodeStatusQuery(name netbios.Name, opts BuildNodeStatusQueryOptions) []byte {
	h := Header{TrnID: opts.TrnID, Flags: 0, QDCount: 1}
	buf := h.marshal()
	buf = append(buf, netbios.Encode(name)...)
	buf = appendUint16(buf, netbios.QuestionTypeNBSTAT)
	buf = appendUint16(buf, netbios.ClassIN)
	return buf
}

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

// BuildAddressAnswer encodes one 0x20 answer record carrying a set of
// (flags, ipv4) pairs in its rdata, matching RFC 1002 §4.2.13. Exposed for
// tests and for any future in-process packet dispatcher that needs to
// synthesize a reply (see internal/transaction.Dispatcher).
func BuildAddressAnswer(name netbios.Name, ttl uint32, records []AddressRecord) []byte {
	rdata := make([]byte, 0, 6*len(records))
	for _, r := range records {
		rdata = appendUint16(rdata, r.Flags)
		rdata = append(rdata, r.IPv4[:]...)
	}
	return buildAnswer(name, netbios.QuestionTypeNB, ttl, rdata)
}

// BuildNodeStatusAnswer encodes one 0x21 answer record carrying a name
// table (and optional trailing MAC address), matching RFC 1002 §4.2.18.
func BuildNodeStatusAnswer(name netbios.Name, ttl uint32, entries []NodeStatusEntry, mac [6]byte) []byte {
	rdata := make([]byte, 0, 1+18*len(entries)+6)
	// The count byte is bounded by the 18-byte-entry packet size limit; a
	// caller passing more than 255 entries would overflow NBT wire format
	// regardless, so int->byte here simply reflects that constraint.
	rdata = append(rdata, byte(len(entries)))
	for _, e := range entries {
		padded := e.Name.Pad()
		rdata = append(rdata, padded[:]...)
		rdata = append(rdata, e.Name.Suffix)
		rdata = appendUint16(rdata, e.Flags)
	}
	rdata = append(rdata, mac[:]...)
	return buildAnswer(name, netbios.QuestionTypeNBSTAT, ttl, rdata)
}

// BuildReply assembles a complete reply datagram — header plus a single
// answer record built by BuildAddressAnswer/BuildNodeStatusAnswer — for use
// by tests and by anything that synthesizes an in-process reply (see
// internal/transaction.Dispatcher). ancount is fixed at 1 since neither
// caller ever needs more than one answer on the wire.
func BuildReply(trnID uint16, flags uint16, answer []byte) []byte {
	h := Header{TrnID: trnID, Flags: flags, ANCount: 1}
	buf := h.marshal()
	return append(buf, answer...)
}

func buildAnswer(name netbios.Name, qtype uint16, ttl uint32, rdata []byte) []byte {
	buf := netbios.Encode(name)
	buf = appendUint16(buf, qtype)
	buf = appendUint16(buf, netbios.ClassIN)
	var ttlBuf [4]byte
	binary.BigEndian.PutUint32(ttlBuf[:], ttl)
	buf = append(buf, ttlBuf[:]...)
	buf = appendUint16(buf, uint16(len(rdata)))
	buf = append(buf, rdata...)
	return buf
}
