// Package a2aClient implements the push-model transport: JSON-RPC over HTTP
// POST for task operations, plus SSE streaming for `tasks/sendSubscribe`.
package a2aClient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	a2aSchema "github.com/a2aview/a2aview/a2a/schema"
	"github.com/a2aview/a2aview/shared"
	"go.uber.org/zap"
)

// Client provides methods to interact with an A2A agent endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	headers    map[string]string
}

// New creates a new A2A client instance.
func New(baseURL string, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	client := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		headers:    make(map[string]string),
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// SendTask sends a task for synchronous processing.
func (c *Client) SendTask(ctx context.Context, params a2aSchema.TaskSendParams) (*a2aSchema.Task, error) {
	var task a2aSchema.Task
	if err := c.doRequest(ctx, "tasks/send", params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask retrieves the current state of a task. Also the salvage path when a
// stream closed without a terminal event.
func (c *Client) GetTask(ctx context.Context, params a2aSchema.TaskQueryParams) (*a2aSchema.Task, error) {
	var task a2aSchema.Task
	if err := c.doRequest(ctx, "tasks/get", params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CancelTask requests cancellation of a running task.
func (c *Client) CancelTask(ctx context.Context, params a2aSchema.TaskIdParams) (*a2aSchema.Task, error) {
	var task a2aSchema.Task
	if err := c.doRequest(ctx, "tasks/cancel", params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SendTaskSubscribe sends a task and subscribes to streaming updates via SSE.
// The returned channel is closed when the stream ends; a final status event
// is delivered before closure when the server terminated the task cleanly.
func (c *Client) SendTaskSubscribe(ctx context.Context, params a2aSchema.TaskSendParams) (<-chan shared.A2AStreamEvent, error) {
	return c.openStream(ctx, "tasks/sendSubscribe", params)
}

// doRequest performs a synchronous JSON-RPC POST request.
func (c *Client) doRequest(ctx context.Context, method string, params interface{}, target interface{}) error {
	logger := c.logger.With(zap.String("method", method))
	reqID := shared.RandomID()

	reqBytes, err := marshalRequest(method, reqID, params)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return fmt.Errorf("create HTTP request for %s: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	logger.Debug("Sending synchronous A2A request", zap.String("reqID", reqID))
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request for %s failed: %w", method, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(httpResp.Body)
		return fmt.Errorf("HTTP error %d for %s: %s", httpResp.StatusCode, method, string(bodyBytes))
	}

	var rpcResponse a2aSchema.JSONRPCResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&rpcResponse); err != nil {
		return fmt.Errorf("decode JSON-RPC response for %s: %w", method, err)
	}
	if rpcResponse.JSONRPC != a2aSchema.JSONRPCVersion {
		return fmt.Errorf("invalid JSON-RPC version: %s", rpcResponse.JSONRPC)
	}
	if rpcResponse.ID != "" && rpcResponse.ID != reqID {
		logger.Warn("JSON-RPC response ID mismatch",
			zap.String("expected", reqID), zap.String("received", rpcResponse.ID))
	}
	if rpcResponse.Error != nil {
		return rpcResponse.Error
	}
	if target != nil {
		if rpcResponse.Result == nil {
			return fmt.Errorf("JSON-RPC response missing expected result for %s", method)
		}
		if err := json.Unmarshal(*rpcResponse.Result, target); err != nil {
			return fmt.Errorf("unmarshal result for %s: %w", method, err)
		}
	}
	return nil
}

// openStream initiates a streaming request and returns its event channel.
func (c *Client) openStream(ctx context.Context, method string, params interface{}) (<-chan shared.A2AStreamEvent, error) {
	logger := c.logger.With(zap.String("method", method))
	reqID := shared.RandomID()

	reqBytes, err := marshalRequest(method, reqID, params)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("create HTTP streaming request for %s: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	logger.Debug("Sending streaming A2A request", zap.String("reqID", reqID))
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP streaming request for %s failed: %w", method, err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		return nil, fmt.Errorf("HTTP streaming error %d for %s: %s", httpResp.StatusCode, method, string(bodyBytes))
	}
	contentType := httpResp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "text/event-stream") {
		httpResp.Body.Close()
		return nil, fmt.Errorf("expected Content-Type 'text/event-stream', got '%s'", contentType)
	}

	eventChan := make(chan shared.A2AStreamEvent, 10)
	go c.readStream(ctx, httpResp, eventChan)
	logger.Debug("SSE stream initiated", zap.String("reqID", reqID))
	return eventChan, nil
}

// readStream parses SSE frames off the response body and forwards them as
// typed stream events. The channel is closed on stream end, final event or
// context cancellation.
func (c *Client) readStream(ctx context.Context, resp *http.Response, eventChan chan<- shared.A2AStreamEvent) {
	logger := c.logger.Named("sse")
	defer close(eventChan)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	var dataBuffer bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			if strings.HasPrefix(line, "data:") {
				dataBuffer.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			}
			// Other SSE fields (event:, id:, retry:) are ignored.
			continue
		}
		if dataBuffer.Len() == 0 {
			continue
		}

		event, final, err := parseFrame(dataBuffer.Bytes())
		dataBuffer.Reset()
		if err != nil {
			logger.Warn("Failed to parse SSE frame", zap.Error(err))
			select {
			case eventChan <- shared.A2AStreamEvent{Error: err}:
			case <-ctx.Done():
				return
			}
			continue
		}
		if event == nil {
			// Heartbeat or unrecognized frame shape. Dropped.
			continue
		}
		select {
		case eventChan <- *event:
		case <-ctx.Done():
			return
		}
		if final {
			logger.Debug("Final event received, closing SSE stream")
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("Error reading SSE stream", zap.Error(err))
		select {
		case eventChan <- shared.A2AStreamEvent{Error: fmt.Errorf("SSE read error: %w", err)}:
		case <-ctx.Done():
		default:
		}
		return
	}
	logger.Debug("SSE stream closed (EOF)")
}

// parseFrame decodes one SSE data payload: a JSON-RPC envelope whose result
// is either a status update or an artifact update.
func parseFrame(data []byte) (*shared.A2AStreamEvent, bool, error) {
	var rpcResponse struct {
		Result *json.RawMessage        `json:"result"`
		Error  *a2aSchema.JSONRPCError `json:"error"`
	}
	if err := json.Unmarshal(data, &rpcResponse); err != nil {
		return nil, false, fmt.Errorf("parse SSE data: %w", err)
	}
	if rpcResponse.Error != nil {
		return &shared.A2AStreamEvent{Error: rpcResponse.Error, Final: true}, true, nil
	}
	if rpcResponse.Result == nil {
		return nil, false, nil
	}
	raw := *rpcResponse.Result

	var statusEvent a2aSchema.TaskStatusUpdateEvent
	if err := json.Unmarshal(raw, &statusEvent); err == nil && statusEvent.Status.State != "" {
		return &shared.A2AStreamEvent{
			Type:   "status",
			Status: &statusEvent,
			Final:  statusEvent.Final,
		}, statusEvent.Final || statusEvent.Status.State.IsTerminal(), nil
	}
	var artifactEvent a2aSchema.TaskArtifactUpdateEvent
	if err := json.Unmarshal(raw, &artifactEvent); err == nil && len(artifactEvent.Artifact.Parts) > 0 {
		return &shared.A2AStreamEvent{Type: "artifact", Artifact: &artifactEvent}, false, nil
	}
	return nil, false, nil
}

func marshalRequest(method, reqID string, params interface{}) ([]byte, error) {
	var paramsRaw *json.RawMessage
	if params != nil {
		paramsBytes, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params for %s: %w", method, err)
		}
		raw := json.RawMessage(paramsBytes)
		paramsRaw = &raw
	}
	reqBytes, err := json.Marshal(a2aSchema.JSONRPCRequest{
		JSONRPC: a2aSchema.JSONRPCVersion,
		Method:  method,
		Params:  paramsRaw,
		ID:      reqID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal JSON-RPC request for %s: %w", method, err)
	}
	return reqBytes, nil
}
