package lmstudio

import (
	"encoding/json"
	"strings"
)

// ParseLoadedModels extracts model identifiers from `lms ps` output. It
// understands the --json array, "Identifier:" blocks and the older table
// layout (header row, identifier in the second column). Anything else
// yields no models.
func ParseLoadedModels(out string) []string {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}
	if strings.HasPrefix(out, "[") {
		return parseJSON(out)
	}

	lower := strings.ToLower(out)
	if strings.Contains(lower, "no models") {
		return nil
	}

	var ids []string
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if v, ok := cutPrefixFold(trimmed, "identifier:"); ok {
			if v = strings.TrimSpace(v); v != "" {
				ids = append(ids, v)
			}
		}
	}
	if len(ids) > 0 {
		return dedupe(ids)
	}

	lines := strings.Split(out, "\n")
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.HasPrefix(fields[0], "-") {
			continue
		}
		ids = append(ids, fields[1])
	}
	return dedupe(ids)
}

type psEntry struct {
	Identifier string `json:"identifier"`
	ModelKey   string `json:"modelKey"`
	Path       string `json:"path"`
}

func parseJSON(out string) []string {
	var entries []psEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		return nil
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.Identifier != "":
			ids = append(ids, e.Identifier)
		case e.ModelKey != "":
			ids = append(ids, e.ModelKey)
		case e.Path != "":
			ids = append(ids, e.Path)
		}
	}
	return dedupe(ids)
}

// IsPackageInstalled interprets dpkg-query / dpkg -l output.
func IsPackageInstalled(out string) bool {
	if strings.Contains(out, "install ok installed") {
		return true
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "ii" && strings.HasPrefix(fields[1], DesktopPackage) {
			return true
		}
	}
	return false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
