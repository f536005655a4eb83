package parse

import (
	"regexp"
	"strings"
)

// CDPNeighbor is one neighbor from `show cdp neighbors [detail]`.
// LocalInterface and IP must both be present for the entry to be usable for
// traversal; the rest is advisory.
type CDPNeighbor struct {
	DeviceID       string
	IP             string
	Platform       string
	LocalInterface string
	PortID         string
}

var (
	cdpDeviceIDRe  = regexp.MustCompile(`(?i)Device ID:\s*(.+)`)
	cdpIPRe        = regexp.MustCompile(`(?i)IP address:\s*([0-9.]+)`)
	cdpPlatformRe  = regexp.MustCompile(`(?i)Platform:\s*([^,\n]+)`)
	cdpInterfaceRe = regexp.MustCompile(`(?i)Interface:\s*([^,\n]+)`)
	cdpPortIDRe    = regexp.MustCompile(`(?i)Port ID\s*\(outgoing port\):\s*(.+)`)

	// Abbreviated local-interface tokens that may be split across two fields
	// in the brief table ("Gig 1/0/1").
	cdpSplitIntf = map[string]bool{
		"Gig": true, "Gi": true, "Fa": true, "Ten": true, "Te": true, "Twe": true, "Eth": true,
	}
	cdpIntfLineRe = regexp.MustCompile(`^\s*(Gig|Gi|Fa|Ten|Te|Twe|Eth|Ethernet)`)
	holdtimeRe    = regexp.MustCompile(`^\d+$`)
)

func firstGroup(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// FirstNeighborIP returns the management IP of the first neighbor in
// `show cdp neighbors <intf> detail` output, or "" when none is advertised.
func FirstNeighborIP(text string) string {
	return firstGroup(cdpIPRe, text)
}

// CDPDetail parses `show cdp neighbors detail` output. The parser is
// block-oriented: a "Device ID:" line or a dashed separator begins/ends a
// block, and fields are captured opportunistically so wrapped or reordered
// lines still contribute. Duplicate neighbors are dropped.
func CDPDetail(text string) []CDPNeighbor {
	var neighbors []CDPNeighbor
	var current CDPNeighbor
	var block []string
	inBlock := false

	flush := func() {
		if !inBlock && len(block) == 0 {
			return
		}
		blockText := strings.Join(block, "\n")
		if current.DeviceID == "" {
			current.DeviceID = firstGroup(cdpDeviceIDRe, blockText)
		}
		if current.IP == "" {
			current.IP = firstGroup(cdpIPRe, blockText)
		}
		if current.Platform == "" {
			current.Platform = firstGroup(cdpPlatformRe, blockText)
		}
		if current.LocalInterface == "" {
			current.LocalInterface = firstGroup(cdpInterfaceRe, blockText)
		}
		if current.PortID == "" {
			current.PortID = firstGroup(cdpPortIDRe, blockText)
		}
		if current != (CDPNeighbor{}) {
			neighbors = append(neighbors, current)
		}
		current = CDPNeighbor{}
		block = nil
		inBlock = false
	}

	for _, line := range strings.Split(text, "\n") {
		strip := strings.TrimSpace(line)
		if strings.HasPrefix(strip, "Device ID:") {
			flush()
			inBlock = true
			block = append(block, line)
			current.DeviceID = firstGroup(cdpDeviceIDRe, line)
			continue
		}
		if strip != "" {
			block = append(block, line)
		}
		if current.IP == "" {
			if v := firstGroup(cdpIPRe, line); v != "" {
				current.IP = v
			}
		}
		if current.Platform == "" {
			if v := firstGroup(cdpPlatformRe, line); v != "" {
				current.Platform = v
			}
		}
		if strings.Contains(line, "Interface:") {
			if v := firstGroup(cdpInterfaceRe, line); v != "" {
				current.LocalInterface = v
			}
			if v := firstGroup(cdpPortIDRe, line); v != "" {
				current.PortID = v
			}
		}
		if strings.HasPrefix(strip, "-------------------------") {
			flush()
		}
	}
	flush()

	return dedupeNeighbors(neighbors)
}

// CDPBrief parses the terse `show cdp neighbors` table, where each neighbor
// typically spans two lines: the device ID alone, then a details line of
// local interface, holdtime, capabilities, platform, and port ID. Only the
// fields recoverable from the table are populated (no IP address).
func CDPBrief(text string) []CDPNeighbor {
	var neighbors []CDPNeighbor
	var currentDevice string

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		low := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(low, "capability codes") || strings.HasPrefix(low, "device id") ||
			(strings.Contains(low, "port id") && strings.Contains(low, "platform")) {
			continue
		}
		if strings.HasPrefix(low, "total cdp entries") {
			break
		}
		if !cdpIntfLineRe.MatchString(line) {
			currentDevice = strings.TrimSpace(line)
			continue
		}

		tokens := strings.Fields(line)
		if len(tokens) < 3 {
			continue
		}

		var localIntf string
		idx := 1
		if cdpSplitIntf[tokens[0]] && len(tokens) >= 3 {
			localIntf = tokens[0] + " " + tokens[1]
			idx = 2
		} else {
			localIntf = tokens[0]
		}
		if idx < len(tokens) && holdtimeRe.MatchString(tokens[idx]) {
			idx++
		}

		// Remainder is capabilities, platform, port ID; platform and port ID
		// are the trailing tokens when present.
		rest := tokens[idx:]
		n := CDPNeighbor{DeviceID: currentDevice, LocalInterface: localIntf}
		if len(rest) >= 2 {
			n.PortID = strings.Join(rest[len(rest)-2:], " ")
		}
		if len(rest) >= 3 {
			n.Platform = rest[len(rest)-3]
		}
		neighbors = append(neighbors, n)
	}

	return dedupeNeighbors(neighbors)
}

func dedupeNeighbors(in []CDPNeighbor) []CDPNeighbor {
	seen := make(map[CDPNeighbor]bool, len(in))
	out := in[:0]
	for _, n := range in {
		key := n
		key.Platform = strings.ToLower(key.Platform)
		key.LocalInterface = strings.ToLower(key.LocalInterface)
		key.PortID = strings.ToLower(key.PortID)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
