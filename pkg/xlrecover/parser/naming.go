package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSheetNameLength is the longest sheet name Excel accepts.
const MaxSheetNameLength = 31

var sheetNameCleaner = strings.NewReplacer(
	"[", "", "]", "", ":", "", "*", "", "?", "", "/", "", `\`, "",
)

// SheetNamesFromSources turns the cached external sheet names into valid,
// unique sheet names. Empty or unusable entries fall back to
// DefaultSheetName of their position.
func SheetNamesFromSources(sources []string) []string {
	out := make([]string, len(sources))
	seen := make(map[string]bool, len(sources))

	for i, src := range sources {
		name := cleanSheetName(src)
		if name == "" {
			name = DefaultSheetName(i + 1)
		}
		base := name
		for n := 2; seen[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncateRunes(base, MaxSheetNameLength-len(suffix)) + suffix
		}
		seen[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

func cleanSheetName(s string) string {
	s = sheetNameCleaner.Replace(s)
	s = strings.Trim(strings.TrimSpace(s), "'")
	if strings.EqualFold(s, "History") {
		return ""
	}
	return truncateRunes(s, MaxSheetNameLength)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
