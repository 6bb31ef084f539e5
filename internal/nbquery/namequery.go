package nbquery

import (
	"context"
	"net"
	"time"

	"github.com/netbios-go/nbtresolve/internal/message"
	"github.com/netbios-go/nbtresolve/internal/netbios"
	"github.com/netbios-go/nbtresolve/internal/transaction"
)

// NameQueryOptions controls a 0x20 name query.
type NameQueryOptions struct {
	// Broadcast sets the header's broadcast bit and switches the query
	// into collect-until-deadline mode instead of first-reply-wins.
	Broadcast bool
	// RecursionDesired sets the header's RD bit (meaningful for unicast
	// queries to a server that can recurse, e.g. a WINS server).
	RecursionDesired bool
	// Deadline bounds the whole query: for broadcast it is how long
	// replies are collected; for unicast it is the overall retry ceiling.
	Deadline time.Duration
}

// NameQueryResult accumulates the address records observed and the header
// flags of the reply that most recently contributed to it (RS/AA/TC/RD/RA/B
// per RFC 1002 §4.2.1).
type NameQueryResult struct {
	Addresses []message.AddressRecord
	Flags     uint16
}

// NameQuery sends a 0x20 query to dstAddr and collects address records per
// §4.E. A broadcast query keeps collecting replies from distinct hosts
// until opts.Deadline elapses, unless some reply carries a unique
// (non-group) name, which ends collection immediately. A unicast (WINS)
// query settles on the first accepted reply, positive or negative.
func NameQuery(ctx context.Context, engine *transaction.Engine, dstAddr net.Addr, name netbios.Name, opts NameQueryOptions) (NameQueryResult, error) {
	trnID, err := message.NewTransactionID()
	if err != nil {
		return NameQueryResult{}, err
	}
	packet := message.BuildNameQuery(name, message.BuildNameQueryOptions{
		TrnID:            trnID,
		Broadcast:        opts.Broadcast,
		RecursionDesired: opts.RecursionDesired,
	})

	ctx, cancel := context.WithTimeout(ctx, opts.Deadline)
	defer cancel()

	if opts.Broadcast {
		return collectBroadcast(ctx, engine, dstAddr, packet, trnID)
	}
	return queryUnicast(ctx, engine, dstAddr, packet, trnID)
}

func queryUnicast(ctx context.Context, engine *transaction.Engine, dstAddr net.Addr, packet []byte, trnID uint16) (NameQueryResult, error) {
	reply, err := engine.Trans(ctx, dstAddr, false, packet, netbios.QuestionTypeNB, int32(trnID), nameQueryValidator)
	if err != nil {
		return NameQueryResult{}, err
	}
	recs, err := message.ParseAddressRecords(reply.Answers[0].RData)
	if err != nil {
		return NameQueryResult{}, err
	}
	return NameQueryResult{Addresses: dedupeNonZero(recs), Flags: reply.Header.Flags}, nil
}

func collectBroadcast(ctx context.Context, engine *transaction.Engine, dstAddr net.Addr, packet []byte, trnID uint16) (NameQueryResult, error) {
	var result NameQueryResult
	seen := make(map[[4]byte]bool)

	onPacket := func(pkt message.Packet) bool {
		if len(pkt.Answers) == 0 {
			return false
		}
		recs, err := message.ParseAddressRecords(pkt.Answers[0].RData)
		if err != nil {
			return false
		}

		sawUnique := false
		for _, r := range recs {
			if r.IPv4 == ([4]byte{}) || seen[r.IPv4] {
				continue
			}
			seen[r.IPv4] = true
			result.Addresses = append(result.Addresses, r)
			if r.Flags&netbios.NodeFlagGroup == 0 {
				sawUnique = true
			}
		}
		result.Flags = pkt.Header.Flags
		return sawUnique
	}

	err := engine.Collect(ctx, dstAddr, packet, netbios.QuestionTypeNB, int32(trnID), nameQueryValidator, onPacket)
	if err != nil {
		return NameQueryResult{}, err
	}
	return result, nil
}

// nameQueryValidator implements the combined acceptance rule from §4.E: a
// non-broadcast reply with opcode 0 and a non-zero rcode is a terminal
// negative result; any reply with a non-zero opcode, the broadcast flag
// set, a non-zero rcode in every other case, or no answers is rejected;
// everything else is a positive accept.
func nameQueryValidator(pkt message.Packet) transaction.Outcome {
	opcodeOK := netbios.Opcode(pkt.Header.Flags) == netbios.OpcodeQuery
	broadcastSet := pkt.Header.Flags&netbios.FlagBroadcast != 0
	rcode := netbios.RCode(pkt.Header.Flags)

	if opcodeOK && !broadcastSet && rcode != netbios.RCodeOK {
		return transaction.AcceptNegative
	}
	if !opcodeOK || broadcastSet || rcode != netbios.RCodeOK || len(pkt.Answers) == 0 {
		return transaction.Reject
	}
	return transaction.Accept
}

func dedupeNonZero(recs []message.AddressRecord) []message.AddressRecord {
	out := make([]message.AddressRecord, 0, len(recs))
	seen := make(map[[4]byte]bool)
	for _, r := range recs {
		if r.IPv4 == ([4]byte{}) || seen[r.IPv4] {
			continue
		}
		seen[r.IPv4] = true
		out = append(out, r)
	}
	return out
}
