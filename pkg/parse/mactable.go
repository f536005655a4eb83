package parse

import (
	"strconv"
	"strings"
)

// MACEntry is one row of `show mac address-table`.
type MACEntry struct {
	VLAN string
	MAC  string
	Port string
}

// MACTable locates the first data row whose MAC field matches the normalized
// target (lower-case dotted form). Header, divider, and command-echo rows are
// skipped (a data row starts with a numeric VLAN), and a leading "*" marker
// column is tolerated. Returns false when the MAC is absent.
func MACTable(text, mac string) (MACEntry, bool) {
	mac = strings.ToLower(mac)
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(strings.ToLower(line), mac) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "*" {
			fields = fields[1:]
		}
		if len(fields) < 3 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		return MACEntry{VLAN: fields[0], MAC: mac, Port: fields[len(fields)-1]}, true
	}
	return MACEntry{}, false
}

// InvalidCommand reports whether the output indicates the device rejected the
// command (unsupported syntax on this platform or IOS version).
func InvalidCommand(text string) bool {
	return strings.Contains(text, "% Invalid") ||
		strings.Contains(text, "Invalid input") ||
		strings.Contains(text, "Unknown command")
}
