package parse

import "testing"

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"aa:bb:cc:dd:ee:ff", "aabb.ccdd.eeff"},
		{"AA-BB-CC-DD-EE-FF", "aabb.ccdd.eeff"},
		{"aabb.ccdd.eeff", "aabb.ccdd.eeff"},
		{"AABBCCDDEEFF", "aabb.ccdd.eeff"},
		{"0011.22AB.cdEF", "0011.22ab.cdef"},
	}
	for _, tt := range tests {
		got, err := NormalizeMAC(tt.input)
		if err != nil {
			t.Errorf("NormalizeMAC(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeMAC(%q) = %q, want %q", tt.input, got, tt.want)
		}
		// Normalization is a fixed point.
		again, err := NormalizeMAC(got)
		if err != nil || again != got {
			t.Errorf("NormalizeMAC(%q) round-trip = %q, %v", got, again, err)
		}
	}
}

func TestNormalizeMAC_Invalid(t *testing.T) {
	for _, input := range []string{"", "aabb.ccdd", "aabb.ccdd.eeff.0011", "hello world", "gg:bb:cc:dd:ee:ff1"} {
		if got, err := NormalizeMAC(input); err == nil {
			t.Errorf("NormalizeMAC(%q) = %q, want error", input, got)
		}
	}
}

func TestARPMAC(t *testing.T) {
	out := `Protocol  Address          Age (min)  Hardware Addr   Type   Interface
Internet  10.20.30.40            12   AABB.CCDD.EEFF  ARPA   Vlan100
`
	if got := ARPMAC(out); got != "aabb.ccdd.eeff" {
		t.Errorf("ARPMAC() = %q, want aabb.ccdd.eeff", got)
	}
	if got := ARPMAC("Internet  10.20.30.40  0  Incomplete  ARPA"); got != "" {
		t.Errorf("ARPMAC(incomplete) = %q, want empty", got)
	}
}
