package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/ebookdealworker/pkg/errors"
)

func sampleEntries() []Entry {
	cards := []string{"全館電子書 79折｜2025/01/01 - 2025/01/31", "輕小說書展 滿499折50"}
	return []Entry{
		{
			Platform:   "BookWalker",
			URL:        "https://www.bookwalker.com.tw/event",
			Note:       "主題&活動列表",
			PageTitle:  "活動列表",
			CardTitles: cards,
			HTTPStatus: 200,
			Signature:  Fingerprint(200, "活動列表", cards, ""),
		},
		{
			Platform:   "Kobo",
			URL:        "https://www.kobo.com/tw/zh",
			CardTitles: []string{},
			HTTPStatus: 200,
			Signature:  Fingerprint(200, "Kobo", nil, ""),
			Blocked:    true,
		},
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	cards := []string{"a<b>", "c&d"}
	first := Fingerprint(200, "標題", cards, "")
	second := Fingerprint(200, "標題", []string{"a<b>", "c&d"}, "")

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
	assert.Equal(t, `{"cards":["a<b>","c&d"],"error":"","status":200,"title":"標題"}`, first)
}

func TestFingerprintBounds(t *testing.T) {
	cards := make([]string, 12)
	for i := range cards {
		cards[i] = strings.Repeat("x", i+1)
	}
	longErr := strings.Repeat("錯", 200)

	base := Fingerprint(500, "", cards, longErr)

	// Only the first eight cards and 120 runes of the error count
	changedTail := append([]string{}, cards...)
	changedTail[10] = "different"
	assert.Equal(t, base, Fingerprint(500, "", changedTail, longErr+"more"))

	changedHead := append([]string{}, cards...)
	changedHead[0] = "different"
	assert.NotEqual(t, base, Fingerprint(500, "", changedHead, longErr))

	assert.Equal(t, Fingerprint(0, "", nil, ""), Fingerprint(0, "", []string{}, ""))
}

func TestDetectChanges(t *testing.T) {
	entries := sampleEntries()
	prior := PriorFromSnapshot(New(entries, nil, time.Now()))

	t.Run("identical run reports nothing", func(t *testing.T) {
		assert.Empty(t, DetectChanges(prior, entries, ParserVersion))
	})

	t.Run("one changed card flags only that platform", func(t *testing.T) {
		next := sampleEntries()
		cards := []string{"全館電子書 75折｜2025/01/01 - 2025/01/31", "輕小說書展 滿499折50"}
		next[0].CardTitles = cards
		next[0].Signature = Fingerprint(200, "活動列表", cards, "")

		assert.Equal(t, []string{"BookWalker"}, DetectChanges(prior, next, ParserVersion))
	})

	t.Run("version mismatch reports nothing", func(t *testing.T) {
		next := sampleEntries()
		next[0].Signature = "changed"
		changed := DetectChanges(prior, next, ParserVersion+1)
		assert.NotNil(t, changed)
		assert.Empty(t, changed)
	})

	t.Run("platform without prior fingerprint is not new", func(t *testing.T) {
		next := append(sampleEntries(), Entry{Platform: "Pubu", Signature: "x"})
		assert.Empty(t, DetectChanges(prior, next, ParserVersion))
	})

	t.Run("missing prior reports nothing", func(t *testing.T) {
		assert.Empty(t, DetectChanges(EmptyPrior(PriorMissing), entries, ParserVersion))
	})
}

func TestNewSnapshot(t *testing.T) {
	now := time.Date(2025, 1, 15, 4, 30, 0, 0, time.UTC)
	entries := []Entry{{Platform: "Pubu", Signature: "s"}}

	s := New(entries, nil, now)

	assert.Equal(t, ParserVersion, s.ParserVersion)
	assert.Equal(t, "2025-01-15 12:30", s.UpdatedAt)
	assert.False(t, s.HasNewChanges)
	assert.NotNil(t, s.ChangedPlatforms)
	assert.NotNil(t, s.Items[0].CardTitles)

	s = New(entries, []string{"Pubu"}, now)
	assert.True(t, s.HasNewChanges)

	data, err := Encode(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"card_titles": []`)
	assert.Contains(t, string(data), `"changed_platforms": [`)
}

func TestFailedEntry(t *testing.T) {
	e := FailedEntry("HyRead", "https://ebook.hyread.com.tw", "熱門活動", assert.AnError)
	assert.Equal(t, assert.AnError.Error(), e.Error)
	assert.NotEmpty(t, e.Signature)
	assert.NotNil(t, e.CardTitles)
	assert.False(t, e.Blocked)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "data", "deals.json"))
	original := New(sampleEntries(), []string{"BookWalker"}, time.Now())

	require.NoError(t, store.Save(original))

	data, err := os.ReadFile(store.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "全館電子書 79折")
	assert.Contains(t, string(data), "主題&活動列表")

	loaded, err := store.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(original, loaded); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPrior(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		prior, err := LoadPrior(NewFileStore(filepath.Join(dir, "none.json")))
		assert.NoError(t, err)
		assert.Equal(t, PriorMissing, prior.Status)
		assert.Empty(t, prior.Signatures)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(dir, "corrupt.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		prior, err := LoadPrior(NewFileStore(path))
		assert.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypePriorState))
		assert.Equal(t, PriorCorrupt, prior.Status)
		assert.Equal(t, 0, prior.Version)
		assert.NotNil(t, prior.Cards)
	})

	t.Run("reload reproduces signatures", func(t *testing.T) {
		store := NewFileStore(filepath.Join(dir, "deals.json"))
		s := New(sampleEntries(), nil, time.Now())
		require.NoError(t, store.Save(s))

		prior, err := LoadPrior(store)
		require.NoError(t, err)
		assert.Equal(t, PriorLoaded, prior.Status)
		assert.Equal(t, ParserVersion, prior.Version)
		assert.Equal(t, s.Signatures(), prior.Signatures)
		assert.Equal(t, s.Items[0].CardTitles, prior.CardsFor("BookWalker"))
		assert.Nil(t, prior.CardsFor("Pubu"))
	})
}

func TestDecodeNullArrays(t *testing.T) {
	s, err := Decode([]byte(`{"parser_version":3,"changed_platforms":null,"items":[{"platform":"Pubu","card_titles":null}]}`))
	require.NoError(t, err)
	assert.NotNil(t, s.ChangedPlatforms)
	assert.NotNil(t, s.Items[0].CardTitles)
}
