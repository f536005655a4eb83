package parse

import "testing"

const cdpDetailOutput = `-------------------------
Device ID: IDF2-SW01.example.net
Entry address(es):
  IP address: 10.0.0.2
Platform: cisco WS-C2960X-48FPD-L,  Capabilities: Switch IGMP
Interface: GigabitEthernet1/0/1,  Port ID (outgoing port): GigabitEthernet1/0/49
Holdtime : 132 sec

-------------------------
Device ID: AP-3F-WEST
Entry address(es):
  IP address: 10.0.40.17
Platform: cisco AIR-AP2802I-B-K9,  Capabilities: Trans-Bridge
Interface: GigabitEthernet1/0/12,  Port ID (outgoing port): GigabitEthernet0

Total cdp entries displayed : 2
`

const cdpBriefOutput = `Capability Codes: R - Router, T - Trans Bridge, B - Source Route Bridge
                  S - Switch, H - Host, I - IGMP, r - Repeater

Device ID        Local Intrfce     Holdtme    Capability  Platform  Port ID
IDF2-SW01.example.net
                 Gig 1/0/1         154             S I   WS-C2960X Gig 1/0/49
AP-3F-WEST
                 Gig 1/0/12        171            T I   AIR-AP280 Gig 0

Total cdp entries displayed : 2
`

func TestCDPDetail(t *testing.T) {
	neighbors := CDPDetail(cdpDetailOutput)
	if len(neighbors) != 2 {
		t.Fatalf("CDPDetail() returned %d neighbors, want 2: %+v", len(neighbors), neighbors)
	}

	sw := neighbors[0]
	if sw.DeviceID != "IDF2-SW01.example.net" {
		t.Errorf("DeviceID = %q", sw.DeviceID)
	}
	if sw.IP != "10.0.0.2" {
		t.Errorf("IP = %q, want 10.0.0.2", sw.IP)
	}
	if sw.LocalInterface != "GigabitEthernet1/0/1" {
		t.Errorf("LocalInterface = %q", sw.LocalInterface)
	}
	if sw.PortID != "GigabitEthernet1/0/49" {
		t.Errorf("PortID = %q", sw.PortID)
	}
	if sw.Platform != "cisco WS-C2960X-48FPD-L" {
		t.Errorf("Platform = %q", sw.Platform)
	}

	ap := neighbors[1]
	if ap.IP != "10.0.40.17" || ap.LocalInterface != "GigabitEthernet1/0/12" {
		t.Errorf("AP neighbor = %+v", ap)
	}
}

func TestCDPDetail_Tolerance(t *testing.T) {
	if got := CDPDetail(""); len(got) != 0 {
		t.Errorf("CDPDetail(empty) = %+v", got)
	}
	if got := CDPDetail("% CDP is not enabled"); len(got) != 0 {
		t.Errorf("CDPDetail(error text) = %+v", got)
	}

	// Truncated block: Device ID line only, no separator or fields.
	got := CDPDetail("Device ID: LONELY-SW\n")
	if len(got) != 1 || got[0].DeviceID != "LONELY-SW" || got[0].IP != "" {
		t.Errorf("CDPDetail(truncated) = %+v", got)
	}
}

func TestCDPDetail_Idempotent(t *testing.T) {
	a := CDPDetail(cdpDetailOutput)
	b := CDPDetail(cdpDetailOutput)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("entry %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestCDPBrief(t *testing.T) {
	neighbors := CDPBrief(cdpBriefOutput)
	if len(neighbors) != 2 {
		t.Fatalf("CDPBrief() returned %d neighbors, want 2: %+v", len(neighbors), neighbors)
	}

	sw := neighbors[0]
	if sw.DeviceID != "IDF2-SW01.example.net" {
		t.Errorf("DeviceID = %q (two-line entry)", sw.DeviceID)
	}
	if sw.LocalInterface != "Gig 1/0/1" {
		t.Errorf("LocalInterface = %q", sw.LocalInterface)
	}
	if sw.PortID != "Gig 1/0/49" {
		t.Errorf("PortID = %q", sw.PortID)
	}

	ap := neighbors[1]
	if ap.DeviceID != "AP-3F-WEST" || ap.LocalInterface != "Gig 1/0/12" {
		t.Errorf("second entry = %+v", ap)
	}
}

func TestFirstNeighborIP(t *testing.T) {
	if got := FirstNeighborIP(cdpDetailOutput); got != "10.0.0.2" {
		t.Errorf("FirstNeighborIP() = %q, want 10.0.0.2", got)
	}
	if got := FirstNeighborIP("Total cdp entries displayed : 0"); got != "" {
		t.Errorf("FirstNeighborIP(no neighbor) = %q, want empty", got)
	}
}
