package netbios

// NMB header flag bits, per RFC 1002 §4.2.1. Unlike RFC 1035 DNS, NetBIOS
// additionally carries a broadcast bit and a distinct recursion-available
// bit, both consulted by the resolver pipeline.
const (
	FlagResponse        uint16 = 1 << 15 // R: response (vs. request)
	opcodeShift                = 11
	opcodeMask          uint16 = 0x0F
	FlagAuthoritative   uint16 = 1 << 10 // AA
	FlagTruncated       uint16 = 1 << 9  // TC
	FlagRecursionDesired uint16 = 1 << 8 // RD
	FlagRecursionAvail  uint16 = 1 << 7  // RA
	FlagBroadcast       uint16 = 1 << 4  // B
	rcodeMask           uint16 = 0x000F
)

// Opcode values used by this resolver (RFC 1002 §4.2.1).
const (
	OpcodeQuery uint16 = 0
)

// Question types (RFC 1002 §4.2.1.2). These are the only two used anywhere
// in the resolver pipeline.
const (
	QuestionTypeNB     uint16 = 0x20 // general name query
	QuestionTypeNBSTAT uint16 = 0x21 // node status
)

const ClassIN uint16 = 0x0001

// RCode values returned in 0x20 negative replies (RFC 1002 §4.2.11 Table),
// matching the table named in §4.E of the resolver spec.
const (
	RCodeOK              uint16 = 0x0
	RCodeFormatError     uint16 = 0x1
	RCodeServerFailure   uint16 = 0x2
	RCodeNameError       uint16 = 0x3
	RCodeUnsupported     uint16 = 0x4
	RCodeRefused         uint16 = 0x5
)

// RCodeString renders a negative-reply rcode as the fixed table from §4.E.
func RCodeString(rcode uint16) string {
	switch rcode {
	case RCodeFormatError:
		return "format error"
	case RCodeServerFailure:
		return "server problem"
	case RCodeNameError:
		return "name does not exist"
	case RCodeUnsupported:
		return "not supported"
	case RCodeRefused:
		return "refused"
	default:
		return "unknown rcode"
	}
}

// Opcode extracts the 4-bit opcode from a packed NMB flags field.
func Opcode(flags uint16) uint16 {
	return (flags >> opcodeShift) & opcodeMask
}

// RCode extracts the 4-bit response code from a packed NMB flags field.
func RCode(flags uint16) uint16 {
	return flags & rcodeMask
}

// NodeFlags are the 2-byte per-record flags carried in 0x20 answer rdata
// (RFC 1002 §4.2.13) and in 0x21 node-status name-table entries.
const (
	NodeFlagGroup uint16 = 1 << 15 // high bit: group name, not unique
)

// PortNone is the sentinel meaning "no port preference attached to this
// address" (§3 IP Service).
const PortNone = 0
