package message

import (
	"testing"

	"github.com/netbios-go/nbtresolve/internal/netbios"
)

func TestBuildParse_NameQuery_RoundTrip(t *testing.T) {
	name := netbios.Name{Label: "WORKGROUP", Suffix: netbios.SuffixMasterBrowser}
	query := BuildNameQuery(name, BuildNameQueryOptions{TrnID: 0x1234, Broadcast: true})

	pkt, err := Parse(query)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pkt.Header.TrnID != 0x1234 {
		t.Errorf("TrnID = 0x%04X, want 0x1234", pkt.Header.TrnID)
	}
	if pkt.Header.QDCount != 1 {
		t.Errorf("QDCount = %d, want 1", pkt.Header.QDCount)
	}
	if pkt.Header.Flags&netbios.FlagBroadcast == 0 {
		t.Error("broadcast flag not set")
	}
}

func TestBuildParse_AddressAnswer_RoundTrip(t *testing.T) {
	name := netbios.Name{Label: "WORKGROUP", Suffix: netbios.SuffixMasterBrowser}
	query := BuildNameQuery(name, BuildNameQueryOptions{TrnID: 1})

	answer := BuildAddressAnswer(name, 0, []AddressRecord{
		{Flags: 0, IPv4: [4]byte{192, 168, 1, 10}},
	})

	// Splice a fake response: a response header with ANCount=1 and no
	// question section, followed by the answer bytes.
	resp := make([]byte, 0, len(query)+len(answer))
	header := Header{TrnID: 1, Flags: netbios.FlagResponse, ANCount: 1}
	resp = append(resp, header.marshal()...)
	resp = append(resp, answer...)

	pkt, err := Parse(resp)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pkt.Answers) != 1 {
		t.Fatalf("Answers = %d, want 1", len(pkt.Answers))
	}
	recs, err := ParseAddressRecords(pkt.Answers[0].RData)
	if err != nil {
		t.Fatalf("ParseAddressRecords: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].IPv4 != [4]byte{192, 168, 1, 10} {
		t.Errorf("IPv4 = %v, want 192.168.1.10", recs[0].IPv4)
	}
}

func TestBuildParse_NodeStatusAnswer_RoundTrip(t *testing.T) {
	queryName := netbios.Name{Label: "*", Suffix: 0}
	entries := []NodeStatusEntry{
		{Name: netbios.Name{Label: "MYHOST", Suffix: netbios.SuffixWorkstation}, Flags: 0},
		{Name: netbios.Name{Label: "WORKGROUP", Suffix: netbios.SuffixDomainMaster}, Flags: netbios.NodeFlagGroup},
	}
	mac := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	answer := BuildNodeStatusAnswer(queryName, 0, entries, mac)

	header := Header{TrnID: 7, Flags: netbios.FlagResponse, ANCount: 1}
	resp := append(header.marshal(), answer...)

	pkt, err := Parse(resp)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	gotEntries, gotMAC, err := ParseNodeStatusEntries(pkt.Answers[0].RData)
	if err != nil {
		t.Fatalf("ParseNodeStatusEntries: %v", err)
	}
	if len(gotEntries) != 2 {
		t.Fatalf("entries = %d, want 2", len(gotEntries))
	}
	if gotEntries[0].Name.Label != "MYHOST" {
		t.Errorf("entry[0].Name = %q, want MYHOST", gotEntries[0].Name.Label)
	}
	if !gotEntries[1].IsGroup() {
		t.Error("entry[1] expected IsGroup() true")
	}
	if gotMAC != mac {
		t.Errorf("mac = %v, want %v", gotMAC, mac)
	}
}

func TestParse_RejectsShortBuffer(t *testing.T) {
	if _, err := Parse([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short buffer")
	}
}

func TestParseAddressRecords_RejectsBadLength(t *testing.T) {
	if _, err := ParseAddressRecords([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for non-multiple-of-6 rdata")
	}
}
