package parse

import "testing"

const macTableOutput = `          Mac Address Table
-------------------------------------------

Vlan    Mac Address       Type        Ports
----    -----------       --------    -----
  50    aabb.ccdd.eeff    DYNAMIC     Gi1/0/5
 100    1122.3344.5566    DYNAMIC     Po1
`

const macTableStarOutput = `Legend: * - primary entry
  vlan   mac address     type    learn     age              ports
------+----------------+--------+-----+----------+--------------------------
*   50  aabb.ccdd.eeff   dynamic  Yes          5   Gi2/0/11
`

func TestMACTable(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		mac      string
		wantVLAN string
		wantPort string
	}{
		{"plain row", macTableOutput, "aabb.ccdd.eeff", "50", "Gi1/0/5"},
		{"port-channel row", macTableOutput, "1122.3344.5566", "100", "Po1"},
		{"leading star marker", macTableStarOutput, "aabb.ccdd.eeff", "50", "Gi2/0/11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := MACTable(tt.text, tt.mac)
			if !ok {
				t.Fatalf("MACTable() found nothing")
			}
			if entry.VLAN != tt.wantVLAN || entry.Port != tt.wantPort {
				t.Errorf("MACTable() = %+v, want vlan %s port %s", entry, tt.wantVLAN, tt.wantPort)
			}
		})
	}
}

func TestMACTable_IgnoresCommandEcho(t *testing.T) {
	// A session that failed to strip the echo leaves the command itself in
	// the output; it contains the MAC but is not a table row.
	out := "show mac address-table | include aabb.ccdd.eeff\n" + macTableOutput
	entry, ok := MACTable(out, "aabb.ccdd.eeff")
	if !ok {
		t.Fatal("MACTable() found nothing")
	}
	if entry.VLAN != "50" || entry.Port != "Gi1/0/5" {
		t.Errorf("MACTable() = %+v, want the data row, not the echo", entry)
	}

	if _, ok := MACTable("show mac address-table | include aabb.ccdd.eeff\n", "aabb.ccdd.eeff"); ok {
		t.Error("MACTable() matched a bare command echo")
	}
}

func TestMACTable_Absent(t *testing.T) {
	if _, ok := MACTable(macTableOutput, "dead.beef.0000"); ok {
		t.Error("MACTable() should not match an absent MAC")
	}
	if _, ok := MACTable("", "aabb.ccdd.eeff"); ok {
		t.Error("MACTable() on empty text should not match")
	}
}

func TestMACTable_Idempotent(t *testing.T) {
	first, ok1 := MACTable(macTableOutput, "aabb.ccdd.eeff")
	second, ok2 := MACTable(macTableOutput, "aabb.ccdd.eeff")
	if ok1 != ok2 || first != second {
		t.Errorf("MACTable() not idempotent: %+v vs %+v", first, second)
	}
}

func TestInvalidCommand(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"% Invalid input detected at '^' marker.", true},
		{"Invalid input detected", true},
		{"Unknown command or computer name", true},
		{"  50    aabb.ccdd.eeff    DYNAMIC     Gi1/0/5", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := InvalidCommand(tt.text); got != tt.want {
			t.Errorf("InvalidCommand(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
