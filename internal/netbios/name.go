// Package netbios implements RFC 1001/1002 NetBIOS name encoding, suffix
// type constants, and NMB header bit layout.
package netbios

import (
	"strings"

	"github.com/netbios-go/nbtresolve/internal/nberrors"
)

const (
	// Port is the NetBIOS Name Service UDP port per RFC 1002 §4.2.
	Port = 137

	// labelLength is the padded length of a NetBIOS name label, excluding
	// the trailing suffix byte.
	labelLength = 15

	// NameLength is the full length of a NetBIOS name: 15 bytes of label
	// plus one suffix byte.
	NameLength = 16

	// encodedLength is the wire length of a first-level-encoded NetBIOS
	// name: one length byte (0x20), 32 encoded bytes, one NUL terminator.
	encodedLength = 34
)

// Suffix type bytes (the 16th byte of a NetBIOS name), per RFC 1001 §14 and
// common Microsoft usage.
const (
	SuffixWorkstation  byte = 0x00
	SuffixServer       byte = 0x20
	SuffixPDC          byte = 0x1B
	SuffixDomainMaster byte = 0x1C
	SuffixMasterBrowser byte = 0x1D
	SuffixNodeStatus   byte = 0x21
)

// KDCNameType is a synthetic suffix used only as a cache-key discriminator:
// it never appears on the wire. A successful "kdc" resolution caches under
// this type so a later 0x1C lookup does not collide with it.
const KDCNameType uint16 = 0xDCDC

// Name is a decoded NetBIOS name: a trimmed label plus its suffix type.
type Name struct {
	Label  string
	Suffix byte
}

// String renders the name the way a human expects to see it, e.g. "WORKGROUP<1D>".
func (n Name) String() string {
	return n.Label + "<" + hexByte(n.Suffix) + ">"
}

func hexByte(b byte) string {
	const hex = "0123456789ABCDEF"
	return string([]byte{hex[b>>4], hex[b&0x0F]})
}

// Pad renders Label as a space-padded, upper-cased 15-byte buffer suitable
// for first-level encoding. Labels longer than 15 bytes are truncated, as
// the original NetBIOS wire format requires — this is a lossy operation the
// caller is expected to have already validated against (see ValidateLabel).
func (n Name) Pad() [labelLength]byte {
	var buf [labelLength]byte
	label := strings.ToUpper(n.Label)
	copy(buf[:], label)
	for i := len(label); i < labelLength; i++ {
		buf[i] = ' '
	}
	return buf
}

// ValidateLabel enforces the 15-byte label constraint from §3 of the
// resolver spec: names longer than 15 characters (after padding would
// overflow) are rejected up front rather than silently truncated.
func ValidateLabel(label string) error {
	if label == "" {
		return nberrors.New(nberrors.InvalidParameter, "netbios.ValidateLabel")
	}
	if len(label) > labelLength {
		return nberrors.New(nberrors.InvalidParameter, "netbios.ValidateLabel")
	}
	return nil
}

// Encode produces the 34-byte first-level-encoded NetBIOS name per RFC 1001
// §14: a 0x20 length prefix, 32 bytes where each byte of the padded 16-byte
// name is split into two nibbles mapped onto 'A'..'P', and a NUL terminator.
func Encode(n Name) []byte {
	padded := n.Pad()
	buf := make([]byte, 0, encodedLength)
	buf = append(buf, 0x20)
	encodeByte := func(b byte) {
		buf = append(buf, 'A'+(b>>4), 'A'+(b&0x0F))
	}
	for _, b := range padded {
		encodeByte(b)
	}
	encodeByte(n.Suffix)
	buf = append(buf, 0x00)
	return buf
}

// Decode parses a first-level-encoded NetBIOS name starting at offset off in
// buf, returning the decoded Name and the offset immediately following the
// NUL terminator.
func Decode(buf []byte, off int) (Name, int, error) {
	if off >= len(buf) {
		return Name{}, 0, nberrors.New(nberrors.Protocol, "netbios.Decode")
	}
	length := int(buf[off])
	if length != 0x20 {
		return Name{}, 0, nberrors.New(nberrors.Protocol, "netbios.Decode")
	}
	off++
	if off+32 > len(buf) {
		return Name{}, 0, nberrors.New(nberrors.Protocol, "netbios.Decode")
	}
	var raw [16]byte
	for i := 0; i < 16; i++ {
		hi := buf[off+2*i]
		lo := buf[off+2*i+1]
		if hi < 'A' || hi > 'P' || lo < 'A' || lo > 'P' {
			return Name{}, 0, nberrors.New(nberrors.Protocol, "netbios.Decode")
		}
		raw[i] = (hi-'A')<<4 | (lo - 'A')
	}
	off += 32
	if off >= len(buf) || buf[off] != 0x00 {
		return Name{}, 0, nberrors.New(nberrors.Protocol, "netbios.Decode")
	}
	off++
	label := strings.TrimRight(string(raw[:15]), " \x00")
	return Name{Label: label, Suffix: raw[15]}, off, nil
}
