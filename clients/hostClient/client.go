// Package hostClient implements the pull-model transport: the host backend's
// conversation/message/event endpoints, each a JSON POST whose response wraps
// the payload in a `{"result": ...}` envelope.
package hostClient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	a2aSchema "github.com/a2aview/a2aview/a2a/schema"
	"github.com/a2aview/a2aview/transcript"
	"go.uber.org/zap"
	backoff "gopkg.in/cenkalti/backoff.v1"
)

// Conversation is one backend-side conversation summary.
type Conversation struct {
	ConversationID string `json:"conversation_id"`
	Name           string `json:"name,omitempty"`
	IsActive       bool   `json:"is_active,omitempty"`
}

// Client talks to the host backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption defines options for configuring the host client.
type ClientOption func(*Client)

// WithLogger sets a custom logger for the client.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.Named("hostClient").With(zap.String("baseURL", c.baseURL))
		}
	}
}

// WithHTTPClient sets a custom HTTP client for the client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New creates a new host backend client.
func New(baseURL string, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	client := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// WaitReady blocks until the backend answers, retrying with exponential
// backoff, or until the context is canceled.
func (c *Client) WaitReady(ctx context.Context) error {
	expBackoff := backoff.NewExponentialBackOff()
	operation := func() error {
		_, err := c.ListConversations(ctx)
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(expBackoff, ctx))
}

// CreateConversation asks the backend for a new conversation and returns its ID.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	var result Conversation
	if err := c.post(ctx, "/conversation/create", struct{}{}, &result); err != nil {
		return "", err
	}
	if result.ConversationID == "" {
		return "", fmt.Errorf("backend returned no conversation_id")
	}
	return result.ConversationID, nil
}

// ListConversations returns the backend's conversations.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var result []Conversation
	if err := c.post(ctx, "/conversation/list", struct{}{}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SendMessage dispatches a user message and returns the server-confirmed
// message ID. Implements transcript.Host.
func (c *Client) SendMessage(ctx context.Context, msg a2aSchema.Message) (string, error) {
	body := map[string]interface{}{"params": msg}
	var result struct {
		MessageID string `json:"message_id"`
	}
	if err := c.post(ctx, "/message/send", body, &result); err != nil {
		return "", err
	}
	if result.MessageID == "" {
		return "", fmt.Errorf("backend returned no message_id")
	}
	return result.MessageID, nil
}

// ListMessages returns the stored messages of a conversation, oldest first.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]a2aSchema.Message, error) {
	body := map[string]interface{}{"params": conversationID}
	var result []a2aSchema.Message
	if err := c.post(ctx, "/message/list", body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// PendingMessages returns the identities the backend still reports as in
// progress. Implements transcript.Backend.
func (c *Client) PendingMessages(ctx context.Context) ([]string, error) {
	var raw []json.RawMessage
	if err := c.post(ctx, "/message/pending", struct{}{}, &raw); err != nil {
		return nil, err
	}
	// Entries are strings or small string tuples depending on backend
	// version; flatten both into identity strings.
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			out = append(out, s)
			continue
		}
		var tuple []string
		if err := json.Unmarshal(entry, &tuple); err == nil {
			out = append(out, strings.Join(tuple, "/"))
		}
	}
	return out, nil
}

// Events returns the backend's full current event batch. Implements
// transcript.Backend.
func (c *Client) Events(ctx context.Context) ([]transcript.RawEvent, error) {
	var result []transcript.RawEvent
	if err := c.post(ctx, "/events/get", struct{}{}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// post performs one envelope-wrapped POST. A missing envelope falls back to
// decoding the body directly.
func (c *Client) post(ctx context.Context, path string, body interface{}, target interface{}) error {
	logger := c.logger.With(zap.String("path", path))

	reqBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request for %s: %w", path, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(reqBytes))
	if err != nil {
		return fmt.Errorf("create HTTP request for %s: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request for %s failed: %w", path, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(httpResp.Body)
		return fmt.Errorf("HTTP error %d for %s: %s", httpResp.StatusCode, path, string(bodyBytes))
	}
	if target == nil {
		return nil
	}

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response for %s: %w", path, err)
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(bodyBytes, &envelope); err == nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, target); err != nil {
			return fmt.Errorf("unmarshal result for %s: %w", path, err)
		}
		return nil
	}
	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("unmarshal response for %s: %w", path, err)
	}
	logger.Debug("Response had no result envelope, decoded body directly")
	return nil
}
