package parse

import (
	"regexp"
	"strings"
)

var (
	// Interface abbreviations with 1-3 slash-separated numeric segments,
	// e.g. Gi1/0/1, Te1/1, Hu1/0/1/1, Eth101/1/2.
	memberRe = regexp.MustCompile(`(?i)^(Twe|Ten|Te|Fo|Hu|Gi|Fa|Eth|Et)\d+(?:/\d+){1,3}$`)

	// State annotations such as (P), (D), (Hot-sby) appended to members in
	// etherchannel summary output.
	stateAnnotationRe = regexp.MustCompile(`\(.*?\)`)
)

// PortChannelMembers extracts the physical member interfaces of one
// port-channel from `show etherchannel summary` or
// `show interface <po> etherchannel` output. channel may be "Po12", "po12",
// or a bare "12". The returned list is deduplicated and preserves first-seen
// order, which downstream code relies on when probing members for a CDP
// neighbor.
func PortChannelMembers(text, channel string) []string {
	id := strings.TrimPrefix(strings.TrimPrefix(channel, "Po"), "po")
	if id == "" {
		return nil
	}
	markerRe := regexp.MustCompile(`(?i)^Po` + regexp.QuoteMeta(id) + `(?:\(|$)`)

	var members []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		strip := strings.TrimSpace(line)
		if strip == "" || strings.Contains(line, "Protocol") ||
			strings.Contains(line, "Flags:") || strings.Contains(line, "----") {
			continue
		}

		tokens := strings.Fields(strip)
		target := false
		if tokens[0] == id || tokens[0] == channel {
			target = true
		} else {
			for _, tok := range tokens {
				if markerRe.MatchString(stateAnnotationRe.ReplaceAllString(tok, "")) {
					target = true
					break
				}
			}
		}
		if !target {
			continue
		}

		for _, tok := range tokens {
			intf := stateAnnotationRe.ReplaceAllString(tok, "")
			if memberRe.MatchString(intf) && !seen[intf] {
				seen[intf] = true
				members = append(members, intf)
			}
		}
	}

	return members
}
