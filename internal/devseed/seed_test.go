package devseed_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/couch_sdk_go/internal/devseed"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `[{"name":"orders","docs":[{"_id":"o-1","total":12},{"_id":"o-2"}]},{"name":"empty"}]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	entries, err := devseed.Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "orders", entries[0].Name)
	require.Len(t, entries[0].Docs, 2)
	assert.JSONEq(t, `{"_id":"o-1","total":12}`, string(entries[0].Docs[0]))
	assert.Empty(t, entries[1].Docs)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := devseed.Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestParseRejectsBadEntries(t *testing.T) {
	tests := map[string]string{
		"not json":     `{`,
		"missing name": `[{"docs":[]}]`,
		"missing id":   `[{"name":"db","docs":[{"x":1}]}]`,
		"doc not obj":  `[{"name":"db","docs":[42]}]`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := devseed.Parse([]byte(body))
			assert.Error(t, err)
		})
	}

	entries, err := devseed.Parse([]byte("  "))
	require.NoError(t, err)
	assert.Nil(t, entries)
}
