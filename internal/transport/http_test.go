package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/logship/internal/queue"
)

func TestSendConcatenatesBatchInOrder(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Options{EndpointURL: srv.URL})
	res := c.Send(context.Background(), []queue.Entry{
		{ID: 1, Message: "first\n"},
		{ID: 2, Message: "second\n"},
		{ID: 3, Message: "third\n"},
	})

	require.NoError(t, res.Err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "first\nsecond\nthird\n", gotBody)
	assert.Equal(t, "text/plain", gotContentType)
}

func TestSendReturnsEndpointStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("malformed payload"))
	}))
	defer srv.Close()

	c := New(Options{EndpointURL: srv.URL})
	res := c.Send(context.Background(), []queue.Entry{{ID: 1, Message: "x"}})

	require.NoError(t, res.Err)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "malformed payload", res.Body)
}

func TestSendExcludesOversizedMessages(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	atCap := strings.Repeat("x", MaxMessageBytes)
	underCap := strings.Repeat("y", MaxMessageBytes-1)

	c := New(Options{EndpointURL: srv.URL})
	res := c.Send(context.Background(), []queue.Entry{
		{ID: 1, Message: "small\n"},
		{ID: 2, Message: atCap},
		{ID: 3, Message: underCap},
	})

	require.NoError(t, res.Err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "small\n"+underCap, gotBody, "a message at the cap must be excluded, one under it kept")
}

func TestSendNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(Options{EndpointURL: srv.URL})
	res := c.Send(context.Background(), []queue.Entry{{ID: 1, Message: "x"}})

	require.Error(t, res.Err)
	assert.Zero(t, res.Status)
}
