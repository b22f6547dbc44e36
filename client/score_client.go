// Package client talks to the arcade HTTP API: the catalog for game
// definitions and the ledger for join and play reports.
//
// Every request carries a bearer credential taken from a TokenProvider handed
// to the client at construction.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"minigame-arcade/models"
)

// TokenProvider supplies the current bearer credential.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed credential.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrUnauthenticated
	}
	return string(t), nil
}

// Config holds what both clients need.
type Config struct {
	// BaseURL of the arcade API, e.g. "http://localhost:5200".
	BaseURL string
	Tokens  TokenProvider
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

type base struct {
	baseURL string
	tokens  TokenProvider
	http    *http.Client
}

func newBase(cfg Config) base {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return base{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  cfg.Tokens,
		http:    httpClient,
	}
}

// do sends one request and decodes a 2xx JSON body into out.
func (b base) do(ctx context.Context, method, path string, body, out any) error {
	if b.tokens == nil {
		return ErrUnauthenticated
	}
	token, err := b.tokens.Token(ctx)
	if err != nil || token == "" {
		return ErrUnauthenticated
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("arcade: marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("arcade: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &TransportError{Op: "read " + path, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	case resp.StatusCode == http.StatusUnprocessableEntity:
		verr := &ValidationError{}
		if err := json.Unmarshal(respBody, verr); err != nil || len(verr.Fields) == 0 {
			return &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}
		return verr
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("arcade: decode response: %w", err)
	}
	return nil
}

// ScoreClient sends join requests and play reports to the ledger.
type ScoreClient struct {
	base
}

func NewScoreClient(cfg Config) *ScoreClient {
	return &ScoreClient{base: newBase(cfg)}
}

// Submit posts a play report and returns the updated ledger entry. It is not
// retried: a report that may have been applied must not be applied twice.
func (c *ScoreClient) Submit(ctx context.Context, gameID string, report models.PlayReport) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := c.do(ctx, http.MethodPost, "/games/"+url.PathEscape(gameID)+"/play", report, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Join registers the caller on a game. Points is set on a repeat join.
func (c *ScoreClient) Join(ctx context.Context, gameID string) (*models.JoinResponse, error) {
	var resp models.JoinResponse
	if err := c.do(ctx, http.MethodPost, "/games/"+url.PathEscape(gameID)+"/join", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
