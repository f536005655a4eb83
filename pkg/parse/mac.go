// Package parse turns raw Cisco CLI output into typed records. Every parser
// is a pure function and total: malformed or truncated input yields an empty
// or absent result, never an error or panic. Output formats drift across
// platforms and IOS versions, so matching is deliberately loose.
package parse

import (
	"fmt"
	"regexp"
	"strings"
)

var dottedMACRe = regexp.MustCompile(`(?i)((?:[0-9a-f]{4}\.){2}[0-9a-f]{4})`)

// NormalizeMAC converts a MAC address in any common separator style
// (aa:bb:cc:dd:ee:ff, AA-BB-CC-DD-EE-FF, aabb.ccdd.eeff, bare hex) to the
// Cisco dotted form xxxx.xxxx.xxxx in lower case. It is the only parser that
// returns an error, since a bad MAC is operator input, not device output.
func NormalizeMAC(raw string) (string, error) {
	var hex strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') {
			hex.WriteRune(r)
		}
	}
	h := hex.String()
	if len(h) != 12 {
		return "", fmt.Errorf("MAC %q is not 12 hex digits", raw)
	}
	return h[:4] + "." + h[4:8] + "." + h[8:], nil
}

// ARPMAC extracts the first dotted MAC address from `show ip arp <ip>` output.
// Returns "" when the ARP table has no entry for the address.
func ARPMAC(text string) string {
	return strings.ToLower(dottedMACRe.FindString(text))
}
