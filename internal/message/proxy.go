package message

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProxyPayload describes an HTTP request executed on behalf of a page
// that cannot reach the target origin itself. Method defaults to GET.
type ProxyPayload struct {
	URL       string            `json:"url"`
	Method    string            `json:"method,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      string            `json:"body,omitempty"`
	TimeoutMs int               `json:"timeout_ms,omitempty"`
}

// ProxyResult carries the forwarded response. A JSON body lands in the
// JSON field, anything else in Text. Success reflects a 2xx status.
type ProxyResult struct {
	Success    bool            `json:"success"`
	Status     int             `json:"status"`
	StatusText string          `json:"status_text"`
	JSON       json.RawMessage `json:"json,omitempty"`
	Text       string          `json:"text,omitempty"`
}

// maxProxyBody caps forwarded response bodies at 4 MiB.
const maxProxyBody = 4 << 20

// ProxyHandler returns the proxy-request handler. A nil client selects
// http.DefaultClient.
func ProxyHandler(client *http.Client) Handler {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, req Request) (any, error) {
		var payload ProxyPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decoding proxy payload: %w", err)
		}
		return forward(ctx, client, payload)
	}
}

func forward(ctx context.Context, client *http.Client, payload ProxyPayload) (*ProxyResult, error) {
	if payload.URL == "" {
		return nil, fmt.Errorf("proxy request needs a URL")
	}

	method := payload.Method
	if method == "" {
		method = http.MethodGet
	}
	if payload.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(payload.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	var body io.Reader
	if payload.Body != "" {
		body = strings.NewReader(payload.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, payload.URL, body)
	if err != nil {
		return nil, fmt.Errorf("building proxy request: %w", err)
	}
	for k, v := range payload.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forwarding request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBody))
	if err != nil {
		return nil, fmt.Errorf("reading proxied response: %w", err)
	}

	result := &ProxyResult{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
	}
	if len(data) > 0 && json.Valid(data) {
		result.JSON = json.RawMessage(data)
	} else {
		result.Text = string(data)
	}
	return result, nil
}
