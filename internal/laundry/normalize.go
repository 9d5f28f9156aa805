package laundry

import (
	"regexp"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// CleanText trims s and collapses internal whitespace to single spaces.
// Case is preserved since the values are shown to the user as-is.
func CleanText(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// CleanList cleans every entry and drops the empty ones.
// Order is preserved. A nil input stays nil so "absent" survives cleaning.
func CleanList(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = CleanText(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DedupeSymbols drops symbols with an empty or repeated code, keeping the first.
func DedupeSymbols(symbols []Symbol) []Symbol {
	if symbols == nil {
		return nil
	}
	seen := make(map[string]bool, len(symbols))
	out := make([]Symbol, 0, len(symbols))
	for _, s := range symbols {
		code := strings.TrimSpace(s.Code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, Symbol{Code: code, Description: CleanText(s.Description)})
	}
	return out
}

// Normalize cleans the free-text fields of g in place.
func (g *Garment) Normalize() {
	g.Type = CleanText(g.Type)
	g.Color = CleanText(g.Color)
	g.Materials = CleanList(g.Materials)
	g.AdditionalInfo = CleanList(g.AdditionalInfo)
	g.LaundrySymbols = DedupeSymbols(g.LaundrySymbols)
}
