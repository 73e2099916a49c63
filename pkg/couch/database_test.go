package couch_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/couch_sdk_go/pkg/couch"
)

func TestCreateDatabaseTwice(t *testing.T) {
	client, _, _ := newMockClient(t)
	ctx := context.Background()

	h, err := client.CreateDatabase(ctx, "orders", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "orders", h.Name())
	assert.Equal(t, "http://127.0.0.1:5984/orders", h.URL())

	_, err = client.CreateDatabase(ctx, "orders", "", 0)
	var exists *couch.DbAlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "http://127.0.0.1:5984/orders", exists.URI)
	assert.ErrorIs(t, err, couch.ErrDatabase)
}

func TestEnsureDatabase(t *testing.T) {
	client, _, _ := newMockClient(t)
	ctx := context.Background()

	h, created, err := client.EnsureDatabase(ctx, "orders", couch.DefaultHost, couch.DefaultPort)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "orders", h.Name())

	h, created, err = client.EnsureDatabase(ctx, "orders", couch.DefaultHost, couch.DefaultPort)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "http://127.0.0.1:5984/orders", h.URL())
}

func TestEnsureDatabasePropagatesOtherErrors(t *testing.T) {
	client, _, _ := newMockClient(t)

	_, _, err := client.EnsureDatabase(context.Background(), "Bad-Name", "", 0)
	var illegal *couch.IllegalDatabaseNameError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "Bad-Name", illegal.Name)
}

func TestConnect(t *testing.T) {
	client, _, _ := newMockClient(t)
	ctx := context.Background()

	_, err := client.Connect(ctx, "orders", "", 0)
	var missing *couch.DbNotFoundError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "http://127.0.0.1:5984/orders", missing.URI)

	_, err = client.CreateDatabase(ctx, "orders", "", 0)
	require.NoError(t, err)

	h, err := client.Connect(ctx, "orders", "", 0)
	require.NoError(t, err)
	assert.Equal(t, couch.DefaultHost, h.Host())
	assert.Equal(t, couch.DefaultPort, h.Port())
}

func TestFetchDatabaseInfo(t *testing.T) {
	client, _, rec := newMockClient(t)
	ctx := context.Background()

	h, err := client.CreateDatabase(ctx, "orders", "", 0)
	require.NoError(t, err)

	info, err := client.FetchDatabaseInfo(ctx, h)
	require.NoError(t, err)
	assert.Contains(t, string(info), `"db_name":"orders"`)
	assert.Equal(t, http.MethodGet, rec.last(t).Method)

	_, err = client.FetchDatabaseInfo(ctx, couch.NewHandle("Nope", couch.DefaultHost, couch.DefaultPort))
	var illegal *couch.IllegalDatabaseNameError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "http://127.0.0.1:5984/Nope", illegal.URI)
}

func TestDeleteDatabase(t *testing.T) {
	client, _, rec := newMockClient(t)
	ctx := context.Background()

	h, err := client.CreateDatabase(ctx, "orders", "", 0)
	require.NoError(t, err)

	body, err := client.DeleteDatabase(ctx, h)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, http.MethodDelete, rec.last(t).Method)

	_, err = client.DeleteDatabase(ctx, h)
	var missing *couch.DbNotFoundError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, h.URL(), missing.URI)
}

func TestCompactDatabase(t *testing.T) {
	client, srv, rec := newMockClient(t)
	ctx := context.Background()

	h, err := client.CreateDatabase(ctx, "orders", "", 0)
	require.NoError(t, err)

	_, err = client.CompactDatabase(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Compactions("orders"))

	got := rec.last(t)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "http://127.0.0.1:5984/orders/_compact", got.URL)

	// compaction declares only "accepted"; a missing database is not a typed failure here
	_, err = client.CompactDatabase(ctx, couch.NewHandle("ghost", couch.DefaultHost, couch.DefaultPort))
	var unexpected *couch.UnexpectedResponseError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, http.StatusNotFound, unexpected.StatusCode)
	assert.False(t, errors.Is(err, couch.ErrDatabase))
}

func TestCreateDatabaseOnCustomTarget(t *testing.T) {
	rec := &recorder{next: cannedTransport(http.StatusCreated, `{"ok":true}`)}
	client := newClient(t, rec, couch.WithDefaults("couch.svc", 15984))

	h, err := client.CreateDatabase(context.Background(), "orders", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://couch.svc:15984/orders", h.URL())

	h, err = client.CreateDatabase(context.Background(), "orders", "other", 1234)
	require.NoError(t, err)
	assert.Equal(t, "http://other:1234/orders", rec.last(t).URL)
	assert.Equal(t, http.MethodPut, rec.last(t).Method)
	assert.Equal(t, "other", h.Host())
}
