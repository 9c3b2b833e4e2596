package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/ebookdealworker/internal/snapshot"
)

func TestRecorderFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textfile", "ebookdeal.prom")
	r := NewRecorder(path)

	s := snapshot.New([]snapshot.Entry{
		{Platform: "Pubu", CardTitles: []string{"a", "b"}, HTTPStatus: 200},
		{Platform: "Kobo", HTTPStatus: 200, Blocked: true},
		{Platform: "HyRead", Error: "timeout"},
	}, []string{"Pubu"}, time.Now())

	r.Observe(s, 3*time.Second)
	require.NoError(t, r.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "ebookdeal_runs_total 1")
	assert.Contains(t, out, `ebookdeal_cards{platform="Pubu"} 2`)
	assert.Contains(t, out, `ebookdeal_blocked{platform="Kobo"} 1`)
	assert.Contains(t, out, `ebookdeal_failed{platform="HyRead"} 1`)
	assert.Contains(t, out, `ebookdeal_http_status{platform="HyRead"} 0`)
	assert.Contains(t, out, "ebookdeal_changed_platforms 1")
	assert.Contains(t, out, "ebookdeal_last_run_duration_seconds 3")

	families, err := r.Gatherer().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRecorderWithoutPath(t *testing.T) {
	r := NewRecorder("")
	r.Observe(snapshot.New(nil, nil, time.Now()), time.Second)
	assert.NoError(t, r.Flush())
}
