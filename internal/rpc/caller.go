package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	gethRpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/supereum/explorer-indexer/internal/common"
)

// caller performs one JSON-RPC request and returns the raw result.
// A null result is reported as common.ErrNotFound.
type caller interface {
	Call(ctx context.Context, method string, params Params) (json.RawMessage, error)
	Close()
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// namedCaller posts requests whose params are a JSON object. The go-ethereum
// client only encodes params as arrays, so this dialect is spoken directly.
type namedCaller struct {
	url    string
	client *http.Client
	nextID atomic.Uint64
}

func newNamedCaller(url string, client *http.Client) *namedCaller {
	return &namedCaller{url: url, client: client}
}

func (c *namedCaller) Call(ctx context.Context, method string, params Params) (json.RawMessage, error) {
	req := rpcRequest{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method}
	if params.Named != nil {
		req.Params = params.Named
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", method, err, common.ErrTransport)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", method, err, common.ErrTransport)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %v: %w", method, err, common.ErrTransport)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: http status %d: %w", method, resp.StatusCode, common.ErrTransport)
	}

	var decoded rpcResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%s: decode response: %v: %w", method, err, common.ErrTransport)
	}
	if decoded.Error != nil {
		return nil, classifyRPCError(method, decoded.Error)
	}
	return checkResult(method, decoded.Result)
}

func (c *namedCaller) Close() {
	c.client.CloseIdleConnections()
}

// positionalCaller sends array params through the go-ethereum rpc client.
type positionalCaller struct {
	client *gethRpc.Client
}

func newPositionalCaller(ctx context.Context, url string) (*positionalCaller, error) {
	client, err := gethRpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %v: %w", url, err, common.ErrTransport)
	}
	return &positionalCaller{client: client}, nil
}

func (c *positionalCaller) Call(ctx context.Context, method string, params Params) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.client.CallContext(ctx, &result, method, params.Positional...)
	if err != nil {
		var rpcErr gethRpc.Error
		if errors.As(err, &rpcErr) {
			return nil, classifyRPCError(method, &rpcError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()})
		}
		return nil, fmt.Errorf("%s: %v: %w", method, err, common.ErrTransport)
	}
	return checkResult(method, result)
}

func (c *positionalCaller) Close() {
	c.client.Close()
}

func classifyRPCError(method string, e *rpcError) error {
	if strings.Contains(strings.ToLower(e.Message), "not found") {
		return fmt.Errorf("%s: %s: %w", method, e.Message, common.ErrNotFound)
	}
	return fmt.Errorf("%s: %v: %w", method, e, common.ErrTransport)
}

func checkResult(method string, result json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(result)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%s returned null: %w", method, common.ErrNotFound)
	}
	return trimmed, nil
}
