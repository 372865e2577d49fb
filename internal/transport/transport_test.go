package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, "getBalance", req.Method)

		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]string{"balance": "12345"},
		})
	}))
	defer srv.Close()

	rpc := NewRPC(srv.URL, time.Second)
	raw, err := rpc.Invoke(context.Background(), "getBalance", map[string]string{"address": "mn_addr1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance":"12345"}`, string(raw))
}

func TestRPCErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]any{"code": -32601, "message": "method not found"},
		})
	}))
	defer srv.Close()

	rpc := NewRPC(srv.URL, time.Second)
	_, err := rpc.Invoke(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
}

func TestRPCNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rpc := NewRPC(srv.URL, time.Second)
	_, err := rpc.Invoke(context.Background(), "getBalance", nil)
	assert.Error(t, err)
}

func TestRPCTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	rpc := NewRPC(srv.URL, 20*time.Millisecond)
	_, err := rpc.Invoke(context.Background(), "getBalance", nil)
	assert.Error(t, err, "slow upstream must fail within the configured timeout")
}

func TestIndexerInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req indexerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "transactions", req.Operation)

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"hash": "0xabc", "attestations": 4}},
		})
	}))
	defer srv.Close()

	idx := NewIndexer(srv.URL, time.Second)
	raw, err := idx.Invoke(context.Background(), "transactions", map[string]int{"limit": 10})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"hash":"0xabc","attestations":4}]`, string(raw))
}

func TestIndexerErrorList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"message": "rate limited"}},
		})
	}))
	defer srv.Close()

	idx := NewIndexer(srv.URL, time.Second)
	_, err := idx.Invoke(context.Background(), "transactions", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestNames(t *testing.T) {
	assert.Equal(t, "rpc", NewRPC("http://x", 0).Name())
	assert.Equal(t, "indexer", NewIndexer("http://x", 0).Name())
}
