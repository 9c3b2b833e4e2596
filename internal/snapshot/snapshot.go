package snapshot

import (
	"time"
)

// ParserVersion identifies the extraction logic. Bump it whenever an extractor changes
// so the next run does not report every platform as changed.
const ParserVersion = 3

// TimestampLayout is the updated_at format, minute precision
const TimestampLayout = "2006-01-02 15:04"

// Entry is the per-platform record of one run
type Entry struct {
	Platform      string   `json:"platform"`
	URL           string   `json:"url"`
	Note          string   `json:"note"`
	PageTitle     string   `json:"page_title"`
	CardTitles    []string `json:"card_titles"`
	HTTPStatus    int      `json:"http_status"`
	Error         string   `json:"error"`
	Signature     string   `json:"signature"`
	Blocked       bool     `json:"blocked"`
	BlockedReason string   `json:"blocked_reason"`
}

// Snapshot is the persisted result of one run
type Snapshot struct {
	ParserVersion    int      `json:"parser_version"`
	UpdatedAt        string   `json:"updated_at"`
	HasNewChanges    bool     `json:"has_new_changes"`
	ChangedPlatforms []string `json:"changed_platforms"`
	Items            []Entry  `json:"items"`
}

var taipei = loadTaipei()

func loadTaipei() *time.Location {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		return time.FixedZone("UTC+8", 8*60*60)
	}
	return loc
}

// FormatTaipei renders t as Taiwan local time with minute precision
func FormatTaipei(t time.Time) string {
	return t.In(taipei).Format(TimestampLayout)
}

// New assembles a snapshot from the run's entries and the platforms that changed
func New(entries []Entry, changed []string, now time.Time) *Snapshot {
	if changed == nil {
		changed = []string{}
	}
	items := make([]Entry, len(entries))
	for i, e := range entries {
		if e.CardTitles == nil {
			e.CardTitles = []string{}
		}
		items[i] = e
	}

	return &Snapshot{
		ParserVersion:    ParserVersion,
		UpdatedAt:        FormatTaipei(now),
		HasNewChanges:    len(changed) > 0,
		ChangedPlatforms: changed,
		Items:            items,
	}
}

// FailedEntry records a platform that produced no usable result
func FailedEntry(platform, url, note string, err error) Entry {
	errText := err.Error()
	return Entry{
		Platform:   platform,
		URL:        url,
		Note:       note,
		CardTitles: []string{},
		Error:      errText,
		Signature:  Fingerprint(0, "", nil, errText),
	}
}

// Signatures returns the platform to fingerprint map
func (s *Snapshot) Signatures() map[string]string {
	sigs := make(map[string]string, len(s.Items))
	for _, item := range s.Items {
		sigs[item.Platform] = item.Signature
	}
	return sigs
}
