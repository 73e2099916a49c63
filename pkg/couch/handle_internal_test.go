package couch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleURLComputesOnFirstRead(t *testing.T) {
	h := &Handle{host: "127.0.0.1", port: 5984, name: "orders"}
	assert.Empty(t, h.cachedURL)

	assert.Equal(t, "http://127.0.0.1:5984/orders", h.URL())
	assert.Equal(t, "http://127.0.0.1:5984/orders", h.cachedURL)

	h.SetName("invoices")
	assert.Equal(t, "http://127.0.0.1:5984/invoices", h.cachedURL, "setters refresh the cache eagerly")
}

func TestOutcomeTableIsOneToOne(t *testing.T) {
	seen := make(map[Outcome]int, len(outcomes))
	for code, o := range outcomes {
		if prev, dup := seen[o]; dup {
			t.Fatalf("outcome %q mapped from both %d and %d", o, prev, code)
		}
		seen[o] = code
	}
	assert.Len(t, outcomes, 7)
}
