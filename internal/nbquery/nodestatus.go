// Package nbquery builds the two NBT wire queries above the transaction
// engine — node-status (0x21) and name query (0x20) — and applies the
// protocol's own acceptance rules to replies, per RFC 1002 §4.2.12,
// §4.2.18.
package nbquery

import (
	"context"
	"net"
	"time"

	"github.com/netbios-go/nbtresolve/internal/message"
	"github.com/netbios-go/nbtresolve/internal/netbios"
	"github.com/netbios-go/nbtresolve/internal/transaction"
)

// NodeStatusDeadline is the fixed ceiling for a node-status query.
const NodeStatusDeadline = 10 * time.Second

// NodeStatusResult is the decoded reply to a 0x21 query: the remote node's
// name table and, when present, its MAC address.
type NodeStatusResult struct {
	Entries []message.NodeStatusEntry
	MAC     [6]byte
}

// NodeStatusQuery sends a single unicast 0x21 query to dstAddr and decodes
// its name table. Node status has no broadcast form: it always targets one
// specific node directly, never recursively.
func NodeStatusQuery(ctx context.Context, engine *transaction.Engine, dstAddr net.Addr, name netbios.Name) (NodeStatusResult, error) {
	trnID, err := message.NewTransactionID()
	if err != nil {
		return NodeStatusResult{}, err
	}
	packet := message.BuildNodeStatusQuery(name, message.BuildNodeStatusQueryOptions{TrnID: trnID})

	ctx, cancel := context.WithTimeout(ctx, NodeStatusDeadline)
	defer cancel()

	reply, err := engine.Trans(ctx, dstAddr, false, packet, netbios.QuestionTypeNBSTAT, int32(trnID), nodeStatusValidator)
	if err != nil {
		return NodeStatusResult{}, err
	}

	entries, mac, err := message.ParseNodeStatusEntries(reply.Answers[0].RData)
	if err != nil {
		return NodeStatusResult{}, err
	}
	return NodeStatusResult{Entries: entries, MAC: mac}, nil
}

// nodeStatusValidator accepts iff the reply has opcode 0, rcode 0, at
// least one answer, that answer's rr_type is 0x21, and the broadcast flag
// is clear.
func nodeStatusValidator(pkt message.Packet) transaction.Outcome {
	if netbios.Opcode(pkt.Header.Flags) != netbios.OpcodeQuery {
		return transaction.Reject
	}
	if netbios.RCode(pkt.Header.Flags) != netbios.RCodeOK {
		return transaction.Reject
	}
	if pkt.Header.Flags&netbios.FlagBroadcast != 0 {
		return transaction.Reject
	}
	if len(pkt.Answers) == 0 {
		return transaction.Reject
	}
	if pkt.Answers[0].Type != netbios.QuestionTypeNBSTAT {
		return transaction.Reject
	}
	return transaction.Accept
}
