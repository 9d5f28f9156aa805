package ops

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

// Search limits
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	MaxQueryLength     = 200
	MaxSnippetChars    = 300
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query  string // required
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// SearchResultItem wraps a Summary with a match snippet.
type SearchResultItem struct {
	Summary
	// Snippet is HTML-safe: user-controlled content is escaped; only <b>...</b>
	// highlight tags are present.
	Snippet string `json:"snippet"`
	Score   int    `json:"score"`
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items      []SearchResultItem `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"` // "relevance"
}

// searchField is one searchable piece of text on a record.
type searchField struct {
	text   string
	weight int
}

// Search finds basket records whose text fields contain every query term.
// Type and symbol matches rank above color, material and note matches.
func Search(ctx context.Context, database *sql.DB, input SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength))
	}
	terms := strings.Fields(strings.ToLower(query))

	limit := clampLimit(input.Limit, DefaultSearchLimit, MaxSearchLimit)
	offset := max(input.Offset, 0)

	all, err := db.GetAll(ctx, database)
	if err != nil {
		return nil, err
	}

	var matches []SearchResultItem
	for i := range all {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, snippetSource := scoreRecord(&all[i], terms)
		if score == 0 {
			continue
		}
		snippet := escapeSnippetHTML(markTerms(snippetSource, terms))
		matches = append(matches, SearchResultItem{
			Summary: Summarize(&all[i]),
			Snippet: truncateSnippet(snippet, MaxSnippetChars),
			Score:   score,
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].ID > matches[b].ID
	})

	total := len(matches)
	items := paginate(matches, limit, offset)
	if items == nil {
		items = []SearchResultItem{}
	}

	return &SearchOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "relevance",
	}, nil
}

func searchFields(l *laundry.Laundry) []searchField {
	fields := []searchField{
		{text: l.Type, weight: 5},
		{text: l.Color, weight: 2},
		{text: strings.Join(l.Materials, ", "), weight: 2},
	}
	for _, s := range l.LaundrySymbols {
		fields = append(fields, searchField{text: s.Code + ": " + s.Description, weight: 3})
	}
	for _, info := range l.AdditionalInfo {
		fields = append(fields, searchField{text: info, weight: 1})
	}
	return fields
}

// scoreRecord returns 0 unless every term occurs in some field. The snippet
// source is the highest-weighted field that matched.
func scoreRecord(l *laundry.Laundry, terms []string) (int, string) {
	fields := searchFields(l)
	score := 0
	best, bestWeight := "", 0
	for _, term := range terms {
		hit := false
		for _, f := range fields {
			if !strings.Contains(strings.ToLower(f.text), term) {
				continue
			}
			hit = true
			score += f.weight
			if f.weight > bestWeight {
				best, bestWeight = f.text, f.weight
			}
		}
		if !hit {
			return 0, ""
		}
	}
	return score, best
}

const (
	openMarker  = "[[[B]]]"
	closeMarker = "[[[/B]]]"
)

// markTerms wraps case-insensitive occurrences of terms in highlight markers.
// Text whose lowercase form changes byte length is returned unmarked.
func markTerms(text string, terms []string) string {
	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		return text
	}

	mask := make([]bool, len(text))
	for _, term := range terms {
		for start := 0; ; {
			i := strings.Index(lower[start:], term)
			if i < 0 {
				break
			}
			for j := start + i; j < start+i+len(term); j++ {
				mask[j] = true
			}
			start += i + len(term)
		}
	}

	var b strings.Builder
	in := false
	for i := 0; i < len(text); i++ {
		if mask[i] && !in {
			b.WriteString(openMarker)
			in = true
		} else if !mask[i] && in {
			b.WriteString(closeMarker)
			in = false
		}
		b.WriteByte(text[i])
	}
	if in {
		b.WriteString(closeMarker)
	}
	return b.String()
}

// truncateSnippet truncates a snippet to approximately maxChars while:
// 1. Preserving valid UTF-8 (never splits multi-byte runes)
// 2. Preserving markup integrity (closes any open <b> tags)
// 3. Preferring word boundaries when possible
func truncateSnippet(s string, maxChars int) string {
	if maxChars <= 0 {
		return "..."
	}

	if len(s) <= maxChars {
		return s
	}

	// Find a safe truncation point that doesn't split UTF-8 runes
	truncateAt := maxChars
	for truncateAt > 0 && !utf8.RuneStart(s[truncateAt]) {
		truncateAt--
	}
	if truncateAt == 0 {
		return "..."
	}

	truncated := s[:truncateAt]

	// Trim any partial tag or entity suffix.
	if lastLT := strings.LastIndex(truncated, "<"); lastLT != -1 && !strings.Contains(truncated[lastLT:], ">") {
		truncated = truncated[:lastLT]
	}
	if lastAmp := strings.LastIndex(truncated, "&"); lastAmp != -1 && !strings.Contains(truncated[lastAmp:], ";") {
		truncated = truncated[:lastAmp]
	}

	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > truncateAt/2 {
		truncated = truncated[:lastSpace]
	}

	unclosed := strings.Count(truncated, "<b>") - strings.Count(truncated, "</b>")
	for range unclosed {
		truncated += "</b>"
	}

	return truncated + "..."
}

// escapeSnippetHTML escapes user content in a snippet while preserving the
// highlight markers as <b> tags.
func escapeSnippetHTML(s string) string {
	const (
		openPlaceholder  = "\x00HAMPER_B_OPEN\x00"
		closePlaceholder = "\x00HAMPER_B_CLOSE\x00"
	)

	s = strings.ReplaceAll(s, openMarker, openPlaceholder)
	s = strings.ReplaceAll(s, closeMarker, closePlaceholder)

	s = html.EscapeString(s)

	s = strings.ReplaceAll(s, openPlaceholder, "<b>")
	s = strings.ReplaceAll(s, closePlaceholder, "</b>")

	return s
}
