// Package transport ships reference implementations of source.Capability
// over HTTP: a JSON-RPC client for the low-latency node endpoint and a
// query client for the enriched indexer endpoint. The analysis core never
// depends on this package; any capability implementation can replace it.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// RPC speaks JSON-RPC 2.0 to the node endpoint.
type RPC struct {
	baseURL string
	client  *http.Client
	nextID  uint64
}

// NewRPC builds a node RPC capability. timeout bounds each request.
func NewRPC(baseURL string, timeout time.Duration) *RPC {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RPC{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *RPC) Name() string { return "rpc" }

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Invoke performs one JSON-RPC call and returns the raw result payload.
func (r *RPC) Invoke(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      atomic.AddUint64(&r.nextID, 1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rpc request %s: %w", method, err)
	}

	raw, err := post(ctx, r.client, r.baseURL, body)
	if err != nil {
		return nil, err
	}

	var resp rpcResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("malformed rpc response for %s: %w", method, err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// Indexer speaks the enriched indexer's query protocol: a POST of
// {"operation", "variables"} answered by {"data", "errors"}.
type Indexer struct {
	baseURL string
	client  *http.Client
}

// NewIndexer builds an indexer capability. timeout bounds each request.
func NewIndexer(baseURL string, timeout time.Duration) *Indexer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Indexer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (i *Indexer) Name() string { return "indexer" }

type indexerRequest struct {
	Operation string `json:"operation"`
	Variables any    `json:"variables,omitempty"`
}

type indexerResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Invoke performs one indexer query and returns the raw data payload.
func (i *Indexer) Invoke(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(indexerRequest{Operation: method, Variables: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode indexer query %s: %w", method, err)
	}

	raw, err := post(ctx, i.client, i.baseURL, body)
	if err != nil {
		return nil, err
	}

	var resp indexerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("malformed indexer response for %s: %w", method, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("indexer error for %s: %s", method, resp.Errors[0].Message)
	}
	return resp.Data, nil
}

func post(ctx context.Context, client *http.Client, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return raw, nil
}
