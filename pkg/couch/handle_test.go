package couch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ratio1/couch_sdk_go/pkg/couch"
)

func TestDeriveURL(t *testing.T) {
	tests := []struct {
		host string
		port int
		name string
		want string
	}{
		{"127.0.0.1", 5984, "orders", "http://127.0.0.1:5984/orders"},
		{"couch.internal", 80, "a_b", "http://couch.internal:80/a_b"},
		{"localhost", 15984, "", "http://localhost:15984/"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, couch.DeriveURL(tc.host, tc.port, tc.name))
	}
}

func TestHandleSettersRecomputeURL(t *testing.T) {
	h := couch.NewHandle("orders", "127.0.0.1", 5984)
	assert.Equal(t, "http://127.0.0.1:5984/orders", h.URL())

	h.SetHost("db.local")
	assert.Equal(t, couch.DeriveURL("db.local", 5984, "orders"), h.URL())

	h.SetPort(6984)
	assert.Equal(t, couch.DeriveURL("db.local", 6984, "orders"), h.URL())

	h.SetName("invoices")
	assert.Equal(t, couch.DeriveURL("db.local", 6984, "invoices"), h.URL())

	assert.Equal(t, "db.local", h.Host())
	assert.Equal(t, 6984, h.Port())
	assert.Equal(t, "invoices", h.Name())
	assert.Equal(t, h.URL(), h.String())
}
