package subgraph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"data":{"mainnet_originTransfers":[]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	body, err := client.GetTransfers(context.Background(), "mainnet", 50)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mainnet_originTransfers")

	var req map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &req))
	query, _ := req["query"].(string)
	assert.Contains(t, query, "mainnet_originTransfers")
	assert.Contains(t, query, "mainnet_destinationTransfers")

	variables, _ := req["variables"].(map[string]any)
	assert.Equal(t, float64(50), variables["limit"])
}

func TestQuery_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetTransfers(context.Background(), "mainnet", 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestQuery_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.GetTransfers(context.Background(), "mainnet", 50)
	require.Error(t, err)
}
