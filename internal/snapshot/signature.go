package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	fingerprintCards    = 8
	fingerprintErrRunes = 120
)

// field order is part of the fingerprint
type fingerprintRecord struct {
	Cards  []string `json:"cards"`
	Error  string   `json:"error"`
	Status int      `json:"status"`
	Title  string   `json:"title"`
}

// Fingerprint derives a deterministic string from the first cards, the error prefix,
// the HTTP status and the page title. Equal inputs always give equal fingerprints.
func Fingerprint(status int, title string, cards []string, errText string) string {
	head := cards
	if len(head) > fingerprintCards {
		head = head[:fingerprintCards]
	}
	if head == nil {
		head = []string{}
	}

	if r := []rune(errText); len(r) > fingerprintErrRunes {
		errText = string(r[:fingerprintErrRunes])
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fingerprintRecord{Cards: head, Error: errText, Status: status, Title: title}); err != nil {
		return fmt.Sprintf("%d|%s|%q|%s", status, title, head, errText)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// DetectChanges lists, in entry order, the platforms whose fingerprint differs from the
// prior run. Nothing is reported when the prior run used another parser version or had
// no fingerprint for the platform.
func DetectChanges(prior PriorState, entries []Entry, version int) []string {
	changed := []string{}
	if prior.Version != version {
		return changed
	}

	for _, e := range entries {
		old, ok := prior.Signatures[e.Platform]
		if !ok || old == "" {
			continue
		}
		if old != e.Signature {
			changed = append(changed, e.Platform)
		}
	}
	return changed
}
