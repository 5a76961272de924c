//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBytes bounds how much of a provider reply is read.
const maxResponseBytes = 32 << 20

// ErrorParser turns a non-200 provider reply into an error. Implementations
// usually decode the provider's error envelope and call NewStatusError.
type ErrorParser func(statusCode int, body []byte) error

// Transport posts JSON to a provider API and decodes the JSON reply.
type Transport struct {
	Provider   string
	BaseURL    string
	Headers    map[string]string
	HTTPClient *http.Client
	ParseError ErrorParser
}

// PostJSON sends in to BaseURL+path and decodes a 200 reply into out.
// Transport failures become retryable network errors unless ctx ended
// first, in which case ctx.Err() is returned.
func (t *Transport) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+path,
		bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	client := t.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return NewNetworkError(t.Provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return NewNetworkError(t.Provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		if t.ParseError != nil {
			return t.ParseError(resp.StatusCode, body)
		}
		return NewStatusError(t.Provider, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", t.Provider, err)
	}
	return nil
}
