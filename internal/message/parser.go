package message

import (
	"encoding/binary"

	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/netbios"
)

// Parse decodes a full NMB packet: header, the question section (skipped,
// not retained — see Packet), and every answer record. It does not
// interpret rdata; callers use ParseAddressRecords or
// ParseNodeStatusEntries on Answer.RData depending on Answer.Type.
func Parse(buf []byte) (Packet, error) {
	hdr, err := unmarshalHeader(buf)
	if err != nil {
		return Packet{}, err
	}
	off := headerLength

	for i := uint16(0); i < hdr.QDCount; i++ {
		_, next, err := netbios.Decode(buf, off)
		if err != nil {
			return Packet{}, err
		}
		off = next + 4 // qtype + qclass
	}

	answers := make([]Answer, 0, hdr.ANCount)
	for i := uint16(0); i < hdr.ANCount; i++ {
		a, next, err := parseAnswer(buf, off)
		if err != nil {
			return Packet{}, err
		}
		answers = append(answers, a)
		off = next
	}

	return Packet{Header: hdr, Answers: answers}, nil
}

func parseAnswer(buf []byte, off int) (Answer, int, error) {
	name, off, err := netbios.Decode(buf, off)
	if err != nil {
		return Answer{}, 0, err
	}
	if off+10 > len(buf) {
		return Answer{}, 0, nberrors.New(nberrors.Protocol, "message.parseAnswer")
	}
	typ := binary.BigEndian.Uint16(buf[off : off+2])
	class := binary.BigEndian.Uint16(buf[off+2 : off+4])
	ttl := binary.BigEndian.Uint32(buf[off+4 : off+8])
	rdlen := binary.BigEndian.Uint16(buf[off+8 : off+10])
	off += 10
	if off+int(rdlen) > len(buf) {
		return Answer{}, 0, nberrors.New(nberrors.Protocol, "message.parseAnswer")
	}
	rdata := buf[off : off+int(rdlen)]
	off += int(rdlen)
	return Answer{Name: name, Type: typ, Class: class, TTL: ttl, RData: rdata}, off, nil
}

// ParseAddressRecords decodes a 0x20 answer's rdata into its constituent
// 6-byte (flags, ipv4) records, per RFC 1002 §4.2.13. A malformed length
// (not a multiple of 6) is a protocol error.
func ParseAddressRecords(rdata []byte) ([]AddressRecord, error) {
	if len(rdata)%6 != 0 {
		return nil, nberrors.New(nberrors.Protocol, "message.ParseAddressRecords")
	}
	out := make([]AddressRecord, 0, len(rdata)/6)
	for off := 0; off < len(rdata); off += 6 {
		rec := AddressRecord{Flags: binary.BigEndian.Uint16(rdata[off : off+2])}
		copy(rec.IPv4[:], rdata[off+2:off+6])
		out = append(out, rec)
	}
	return out, nil
}

// ParseNodeStatusEntries decodes a 0x21 answer's rdata into its name-table
// entries and trailing MAC address, per RFC 1002 §4.2.18 and §3 Node
// Status Entry. The MAC is the six bytes immediately following the last
// declared entry; it is optional (some servers omit it), in which
// case a zero MAC is returned.
func ParseNodeStatusEntries(rdata []byte) ([]NodeStatusEntry, [6]byte, error) {
	var mac [6]byte
	if len(rdata) < 1 {
		return nil, mac, nberrors.New(nberrors.Protocol, "message.ParseNodeStatusEntries")
	}
	count := int(rdata[0])
	off := 1
	entries := make([]NodeStatusEntry, 0, count)
	for i := 0; i < count; i++ {
		if off+18 > len(rdata) {
			return nil, mac, nberrors.New(nberrors.Protocol, "message.ParseNodeStatusEntries")
		}
		label := string(rdata[off : off+15])
		suffix := rdata[off+15]
		flags := binary.BigEndian.Uint16(rdata[off+16 : off+18])
		entries = append(entries, NodeStatusEntry{
			Name:  netbios.Name{Label: trimName(label), Suffix: suffix},
			Flags: flags,
		})
		off += 18
	}
	if off+6 <= len(rdata) {
		copy(mac[:], rdata[off:off+6])
	}
	return entries, mac, nil
}

func trimName(s string) string {
	end := len(s)
	for end > 0 && (s[end-1] == ' ' || s[end-1] == 0) {
		end--
	}
	return s[:end]
}
