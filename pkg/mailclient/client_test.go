package mailclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldcrest/invest_accrual/pkg/mailclient"
)

func TestSend(t *testing.T) {
	var captured struct {
		From    string   `json:"from"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		HTML    string   `json:"html"`
	}
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/emails", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := mailclient.NewClient(server.URL, "test-key", "YieldCrest <noreply@yieldcrest.io>")
	err := client.Send(context.Background(), "ada@example.com", "Daily return credited", "<p>hi</p>")

	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", authHeader)
	assert.Equal(t, "YieldCrest <noreply@yieldcrest.io>", captured.From)
	assert.Equal(t, []string{"ada@example.com"}, captured.To)
	assert.Equal(t, "Daily return credited", captured.Subject)
	assert.Equal(t, "<p>hi</p>", captured.HTML)
}

func TestSend_APIErrorSurfacesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid recipient"}`))
	}))
	defer server.Close()

	client := mailclient.NewClient(server.URL, "test-key", "noreply@yieldcrest.io")
	err := client.Send(context.Background(), "not-an-email", "subject", "<p>hi</p>")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestSend_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := mailclient.NewClient(server.URL, "test-key", "noreply@yieldcrest.io")
	err := client.Send(context.Background(), "ada@example.com", "subject", "<p>hi</p>")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
