package nbquery_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbios-go/nbtresolve/internal/message"
	"github.com/netbios-go/nbtresolve/internal/nbquery"
	"github.com/netbios-go/nbtresolve/internal/netbios"
	"github.com/netbios-go/nbtresolve/internal/transaction"
	"github.com/netbios-go/nbtresolve/internal/transport"
)

func TestNodeStatusQuery_ParsesEntriesAndMAC(t *testing.T) {
	mock := transport.NewMockTransport()
	engine := transaction.NewEngine(nil, func() (transport.Transport, error) { return mock, nil })

	peer := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 9), Port: netbios.Port}
	target := netbios.Name{Label: "FILESERVER", Suffix: netbios.SuffixServer}

	go func() {
		raw := <-mock.SendCallsCh()
		pkt, err := message.Parse(raw.Packet)
		require.NoError(t, err)

		entries := []message.NodeStatusEntry{
			{Name: netbios.Name{Label: "FILESERVER", Suffix: netbios.SuffixServer}, Flags: 0},
			{Name: netbios.Name{Label: "WORKGROUP", Suffix: netbios.SuffixWorkstation}, Flags: netbios.NodeFlagGroup},
		}
		mac := [6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
		answer := message.BuildNodeStatusAnswer(target, 0, entries, mac)
		reply := message.BuildReply(pkt.Header.TrnID, netbios.FlagResponse, answer)
		mock.QueueReply(reply, peer)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result, err := nbquery.NodeStatusQuery(ctx, engine, peer, target)
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "FILESERVER", result.Entries[0].Name.Label)
	assert.False(t, result.Entries[0].IsGroup())
	assert.True(t, result.Entries[1].IsGroup())
	assert.Equal(t, [6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}, result.MAC)
}

func TestNodeStatusQuery_RejectsBroadcastFlaggedReply(t *testing.T) {
	mock := transport.NewMockTransport()
	engine := transaction.NewEngine(nil, func() (transport.Transport, error) { return mock, nil })

	peer := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 9), Port: netbios.Port}
	target := netbios.Name{Label: "FILESERVER", Suffix: netbios.SuffixServer}

	go func() {
		raw := <-mock.SendCallsCh()
		pkt, err := message.Parse(raw.Packet)
		require.NoError(t, err)

		entries := []message.NodeStatusEntry{{Name: target, Flags: 0}}
		answer := message.BuildNodeStatusAnswer(target, 0, entries, [6]byte{})
		badReply := message.BuildReply(pkt.Header.TrnID, netbios.FlagResponse|netbios.FlagBroadcast, answer)
		mock.QueueReply(badReply, peer)

		time.Sleep(5 * time.Millisecond)
		goodReply := message.BuildReply(pkt.Header.TrnID, netbios.FlagResponse, answer)
		mock.QueueReply(goodReply, peer)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result, err := nbquery.NodeStatusQuery(ctx, engine, peer, target)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
}
