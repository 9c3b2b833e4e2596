package crawler

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/titanous/json5"
)

// reArrayAssignment finds the start of `NAME = [` in inline scripts
var reArrayAssignment = regexp.MustCompile(`[A-Za-z_$][\w$.]*\s*=\s*\[`)

var stripMarkup = bluemonday.StrictPolicy()

// StructuredExtractor reads campaign records from an inline array literal
type StructuredExtractor struct{}

// NewStructuredExtractor creates a new structured data extractor
func NewStructuredExtractor() *StructuredExtractor {
	return &StructuredExtractor{}
}

// Extract implements Extractor
func (e *StructuredExtractor) Extract(in Input) Extraction {
	if phrase, ok := challengePhrase(in.HTML); ok {
		return Extraction{
			Cards:  []string{},
			Status: ParseChallenge,
			Reason: fmt.Sprintf("javascript challenge page (%s)", phrase),
		}
	}

	literals := arrayLiterals(in.HTML)
	if len(literals) == 0 {
		return Extraction{Cards: []string{}, Status: ParseEmpty, Reason: "no array assignment found"}
	}

	parsed := 0
	for _, literal := range literals {
		var values []interface{}
		if err := json5.Unmarshal([]byte(literal), &values); err != nil {
			continue
		}
		parsed++

		// arrays of scalars are not campaign lists
		var records []map[string]interface{}
		for _, v := range values {
			if record, ok := v.(map[string]interface{}); ok {
				records = append(records, record)
			}
		}
		if len(records) == 0 {
			continue
		}

		cards := []string{}
		for _, record := range records {
			if line := composeRecord(record); line != "" {
				cards = append(cards, line)
			}
		}
		return cardsResult(cards)
	}

	if parsed > 0 {
		return Extraction{Cards: []string{}, Status: ParseEmpty, Reason: "no campaign records found"}
	}

	return Extraction{
		Cards:  []string{},
		Status: ParseMalformed,
		Reason: fmt.Sprintf("none of %d array literals could be parsed", len(literals)),
	}
}

// arrayLiterals returns every `NAME = [ ... ];` literal, bracket-balanced and skipping
// brackets inside string literals. Arrays followed by anything but `;` are ignored.
func arrayLiterals(markup string) []string {
	var literals []string
	for _, loc := range reArrayAssignment.FindAllStringIndex(markup, -1) {
		open := loc[1] - 1
		end := matchingBracket(markup, open)
		if end < 0 {
			continue
		}
		if !strings.HasPrefix(strings.TrimLeft(markup[end+1:], " \t\r\n"), ";") {
			continue
		}
		literals = append(literals, markup[open:end+1])
	}
	return literals
}

// matchingBracket returns the index of the ']' closing the '[' at open, or -1
func matchingBracket(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// composeRecord renders "name description start–end", omitting missing parts
func composeRecord(record map[string]interface{}) string {
	var parts []string
	if name := recordField(record, "name"); name != "" {
		parts = append(parts, name)
	}
	if desc := recordField(record, "description"); desc != "" {
		parts = append(parts, desc)
	}

	start := recordField(record, "start_date")
	end := recordField(record, "end_date")
	if start != "" || end != "" {
		parts = append(parts, start+"–"+end)
	}

	return strings.Join(parts, " ")
}

func recordField(record map[string]interface{}, key string) string {
	var raw string
	switch v := record[key].(type) {
	case nil:
		return ""
	case string:
		raw = v
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		raw = fmt.Sprint(v)
	}
	return NormalizeText(html.UnescapeString(stripMarkup.Sanitize(raw)))
}
