package transport_test

import (
	"context"
	"net"
	"testing"

	"github.com/netbios-go/nbtresolve/internal/transport"
)

func TestMockTransport_ImplementsTransportInterface(_ *testing.T) {
	var _ transport.Transport = (*transport.MockTransport)(nil)
}

func TestMockTransport_Send_RecordsCalls(t *testing.T) {
	mock := transport.NewMockTransport()
	defer func() { _ = mock.Close() }()

	ctx := context.Background()
	packet1 := []byte{0x01, 0x02}
	packet2 := []byte{0x03, 0x04}
	addr1 := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 1), Port: 137}
	addr2 := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 255), Port: 137}

	if err := mock.Send(ctx, packet1, addr1); err != nil {
		t.Fatalf("Send(packet1) failed: %v", err)
	}
	if err := mock.Send(ctx, packet2, addr2); err != nil {
		t.Fatalf("Send(packet2) failed: %v", err)
	}

	calls := mock.SendCalls()
	if len(calls) != 2 {
		t.Fatalf("Expected 2 Send() calls, got %d", len(calls))
	}
	if string(calls[0].Packet) != string(packet1) {
		t.Errorf("First call packet mismatch: got %v, want %v", calls[0].Packet, packet1)
	}
	if calls[0].Dest.String() != addr1.String() {
		t.Errorf("First call addr mismatch: got %v, want %v", calls[0].Dest, addr1)
	}
	if calls[1].Dest.String() != addr2.String() {
		t.Errorf("Second call addr mismatch: got %v, want %v", calls[1].Dest, addr2)
	}
}

func TestMockTransport_Receive_ReturnsQueuedReply(t *testing.T) {
	mock := transport.NewMockTransport()
	defer func() { _ = mock.Close() }()

	addr := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 1), Port: 137}
	mock.QueueReply([]byte{0xAA, 0xBB}, addr)

	packet, from, err := mock.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(packet) != "\xAA\xBB" {
		t.Errorf("packet = %v, want [0xAA 0xBB]", packet)
	}
	if from.String() != addr.String() {
		t.Errorf("from = %v, want %v", from, addr)
	}
}

func TestMockTransport_SendCallsCh_ReceivesEachSend(t *testing.T) {
	mock := transport.NewMockTransport()
	defer func() { _ = mock.Close() }()

	addr := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 1), Port: 137}
	if err := mock.Send(context.Background(), []byte{0x01}, addr); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case call := <-mock.SendCallsCh():
		if call.Dest.String() != addr.String() {
			t.Errorf("call.Dest = %v, want %v", call.Dest, addr)
		}
	default:
		t.Fatal("expected a notification on SendCallsCh")
	}
}

func TestMockTransport_Receive_RespectsContextCancellation(t *testing.T) {
	mock := transport.NewMockTransport()
	defer func() { _ = mock.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := mock.Receive(ctx); err == nil {
		t.Error("Receive() should return error when context is canceled")
	}
}
