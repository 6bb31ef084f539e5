// Package message implements the NMB (NetBIOS name service) wire format:
// the 12-byte header plus question/answer sections described in RFC 1002
// §4.2, including the 0x20 (name query) and 0x21 (node status) answer
// rdata layouts.
package message

import (
	"encoding/binary"

	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/netbios"
)

// headerLength is the fixed NMB header size: transaction id, flags, and
// four 16-bit section counts.
const headerLength = 12

// Header is the fixed portion of an NMB packet, per RFC 1002 §4.2.1.
//
//	0  1  2  3  4  5  6  7  8  9  0  1  2  3  4  5
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                   NAME_TRN_ID                 |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|R| OPCODE  |AA|TC|RD|RA| 0  0  B|   RCODE   |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                    QDCOUNT                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                    ANCOUNT                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                    NSCOUNT                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                    ARCOUNT                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
type Header struct {
	TrnID   uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

func (h Header) marshal() []byte {
	buf := make([]byte, headerLength)
	binary.BigEndian.PutUint16(buf[0:2], h.TrnID)
	binary.BigEndian.PutUint16(buf[2:4], h.Flags)
	binary.BigEndian.PutUint16(buf[4:6], h.QDCount)
	binary.BigEndian.PutUint16(buf[6:8], h.ANCount)
	binary.BigEndian.PutUint16(buf[8:10], h.NSCount)
	binary.BigEndian.PutUint16(buf[10:12], h.ARCount)
	return buf
}

func unmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < headerLength {
		return Header{}, nberrors.New(nberrors.Protocol, "message.unmarshalHeader")
	}
	return Header{
		TrnID:   binary.BigEndian.Uint16(buf[0:2]),
		Flags:   binary.BigEndian.Uint16(buf[2:4]),
		QDCount: binary.BigEndian.Uint16(buf[4:6]),
		ANCount: binary.BigEndian.Uint16(buf[6:8]),
		NSCount: binary.BigEndian.Uint16(buf[8:10]),
		ARCount: binary.BigEndian.Uint16(buf[10:12]),
	}, nil
}

// Answer is one parsed NMB resource record from the answer section: the
// name, type, class, TTL, and the raw rdata bytes. Interpretation of RData
// depends on Type — see ParseAddressRecords and ParseNodeStatusEntries.
type Answer struct {
	Name  netbios.Name
	Type  uint16
	Class uint16
	TTL   uint32
	RData []byte
}

// Packet is a fully parsed NMB message: header and answer records. The
// question section, once validated against the outgoing request, carries
// no further information the resolver pipeline needs.
type Packet struct {
	Header  Header
	Answers []Answer
}

// AddressRecord is one decoded entry from a 0x20 (NB) answer's rdata: a
// 2-byte flags field and a 4-byte big-endian IPv4 address (RFC 1002
// §4.2.13).
type AddressRecord struct {
	Flags uint16
	IPv4  [4]byte
}

// NodeStatusEntry is one decoded entry from a 0x21 (NBSTAT) answer's rdata
// (§3 Node Status Entry): a 15-byte name, 1-byte suffix, and flags whose
// high bit marks a group name.
type NodeStatusEntry struct {
	Name  netbios.Name
	Flags uint16
}

// IsGroup reports whether the entry's high flag bit marks a group name
// rather than a unique name.
func (e NodeStatusEntry) IsGroup() bool {
	return e.Flags&netbios.NodeFlagGroup != 0
}
