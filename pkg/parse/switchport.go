package parse

import "strings"

// IsTrunk reports whether `show interface <intf> switchport` output describes
// a trunk port, by either the operational or the administrative mode marker.
func IsTrunk(text string) bool {
	return strings.Contains(text, "Mode: trunk") ||
		strings.Contains(text, "Administrative Mode: trunk")
}

// CleanConfigLines strips prompts, banner lines, and separators from a
// running-config read-back, leaving only configuration statements.
func CleanConfigLines(text string) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || line == "!" {
			continue
		}
		if strings.HasSuffix(line, "#") || strings.HasSuffix(line, "(config)#") ||
			strings.HasSuffix(line, "(config-if)#") {
			continue
		}
		if strings.Contains(line, "Building configuration") ||
			strings.Contains(line, "Current configuration") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// fieldAfter returns the first whitespace-separated token following marker,
// dropping trailing annotations like "(USERS)".
func fieldAfter(line, marker string) string {
	_, rest, ok := strings.Cut(line, marker)
	if !ok {
		return ""
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SwitchportToConfigLines rewrites `show interface <intf> switchport`
// operational output into running-config phrasing so the same verification
// predicates apply to either read-back source. The default access VLAN (1)
// and an unset voice VLAN ("none") produce no line, matching what a
// running-config read would show.
func SwitchportToConfigLines(text string) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.Contains(line, "Administrative Mode:"):
			// IOS phrases access mode as "static access"; older output says
			// just "access".
			if strings.Contains(line, "access") {
				out = append(out, "switchport mode access")
			}
		case strings.Contains(line, "Access Mode VLAN:"):
			if vlan := fieldAfter(line, "Access Mode VLAN:"); vlan != "" && vlan != "1" {
				out = append(out, "switchport access vlan "+vlan)
			}
		case strings.Contains(line, "Voice VLAN:"):
			if vlan := fieldAfter(line, "Voice VLAN:"); vlan != "" && vlan != "none" {
				out = append(out, "switchport voice vlan "+vlan)
			}
		}
	}
	return out
}
