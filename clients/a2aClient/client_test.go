package a2aClient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	a2aSchema "github.com/a2aview/a2aview/a2a/schema"
	"github.com/a2aview/a2aview/clients/a2aClient"
	"github.com/a2aview/a2aview/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRPCResult(t *testing.T, w http.ResponseWriter, reqID string, result interface{}) {
	t.Helper()
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)
	raw := json.RawMessage(resultBytes)
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(a2aSchema.JSONRPCResponse{
		JSONRPC: a2aSchema.JSONRPCVersion,
		Result:  &raw,
		ID:      reqID,
	}))
}

func decodeRPCRequest(t *testing.T, r *http.Request) a2aSchema.JSONRPCRequest {
	t.Helper()
	var req a2aSchema.JSONRPCRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	assert.Equal(t, a2aSchema.JSONRPCVersion, req.JSONRPC)
	assert.NotEmpty(t, req.ID)
	return req
}

func TestSendTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		assert.Equal(t, "tasks/send", req.Method)

		var params a2aSchema.TaskSendParams
		require.NoError(t, json.Unmarshal(*req.Params, &params))
		assert.Equal(t, "task-1", params.ID)

		writeRPCResult(t, w, req.ID, a2aSchema.Task{
			ID:     params.ID,
			Status: a2aSchema.TaskStatus{State: a2aSchema.TaskStateCompleted},
		})
	}))
	defer server.Close()

	client, err := a2aClient.New(server.URL)
	require.NoError(t, err)

	task, err := client.SendTask(context.Background(), a2aSchema.TaskSendParams{
		ID: "task-1",
		Message: a2aSchema.Message{
			Role:  "user",
			Parts: []a2aSchema.Part{a2aSchema.TextPart("hello")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, a2aSchema.TaskStateCompleted, task.Status.State)
}

func TestGetTaskReturnsRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(a2aSchema.JSONRPCResponse{
			JSONRPC: a2aSchema.JSONRPCVersion,
			Error:   a2aSchema.NewTaskNotFoundError("task-missing"),
			ID:      req.ID,
		}))
	}))
	defer server.Close()

	client, err := a2aClient.New(server.URL)
	require.NoError(t, err)

	_, err = client.GetTask(context.Background(), a2aSchema.TaskQueryParams{ID: "task-missing"})
	require.Error(t, err)
	var rpcErr *a2aSchema.JSONRPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, a2aSchema.ErrorCodeTaskNotFound, rpcErr.Code)
}

func TestCancelTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		assert.Equal(t, "tasks/cancel", req.Method)

		var params a2aSchema.TaskIdParams
		require.NoError(t, json.Unmarshal(*req.Params, &params))
		writeRPCResult(t, w, req.ID, a2aSchema.Task{
			ID:     params.ID,
			Status: a2aSchema.TaskStatus{State: a2aSchema.TaskStateCanceled},
		})
	}))
	defer server.Close()

	client, err := a2aClient.New(server.URL)
	require.NoError(t, err)

	task, err := client.CancelTask(context.Background(), a2aSchema.TaskIdParams{ID: "task-1"})
	require.NoError(t, err)
	assert.Equal(t, a2aSchema.TaskStateCanceled, task.Status.State)
}

func TestSendTaskHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := a2aClient.New(server.URL)
	require.NoError(t, err)

	_, err = client.SendTask(context.Background(), a2aSchema.TaskSendParams{ID: "task-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSendTaskSubscribe(t *testing.T) {
	frames := []interface{}{
		a2aSchema.TaskStatusUpdateEvent{
			ID:     "task-1",
			Status: a2aSchema.TaskStatus{
				State: a2aSchema.TaskStateWorking,
				Message: &a2aSchema.Message{
					Role:  "agent",
					Parts: []a2aSchema.Part{a2aSchema.TextPart("thinking about it")},
				},
			},
		},
		a2aSchema.TaskArtifactUpdateEvent{
			ID: "task-1",
			Artifact: a2aSchema.Artifact{
				Parts:     []a2aSchema.Part{a2aSchema.TextPart("result text")},
				LastChunk: shared.PointerTo(true),
			},
		},
		a2aSchema.TaskStatusUpdateEvent{
			ID:     "task-1",
			Status: a2aSchema.TaskStatus{State: a2aSchema.TaskStateCompleted},
			Final:  true,
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPCRequest(t, r)
		assert.Equal(t, "tasks/sendSubscribe", req.Method)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, frame := range frames {
			resultBytes, err := json.Marshal(frame)
			require.NoError(t, err)
			raw := json.RawMessage(resultBytes)
			payload, err := json.Marshal(a2aSchema.JSONRPCResponse{
				JSONRPC: a2aSchema.JSONRPCVersion,
				Result:  &raw,
				ID:      req.ID,
			})
			require.NoError(t, err)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}))
	defer server.Close()

	client, err := a2aClient.New(server.URL)
	require.NoError(t, err)

	events, err := client.SendTaskSubscribe(context.Background(), a2aSchema.TaskSendParams{
		ID: "task-1",
		Message: a2aSchema.Message{
			Role:  "user",
			Parts: []a2aSchema.Part{a2aSchema.TextPart("go")},
		},
	})
	require.NoError(t, err)

	var received []shared.A2AStreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				goto done
			}
			received = append(received, ev)
		case <-timeout:
			t.Fatal("stream did not close in time")
		}
	}
done:
	require.Len(t, received, 3)
	assert.Equal(t, "status", received[0].Type)
	assert.Equal(t, a2aSchema.TaskStateWorking, received[0].Status.Status.State)
	assert.Equal(t, "artifact", received[1].Type)
	require.Len(t, received[1].Artifact.Artifact.Parts, 1)
	assert.Equal(t, "status", received[2].Type)
	assert.True(t, received[2].Final)
	assert.Equal(t, a2aSchema.TaskStateCompleted, received[2].Status.Status.State)
}

func TestSendTaskSubscribeRejectsNonSSEResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "{}")
	}))
	defer server.Close()

	client, err := a2aClient.New(server.URL)
	require.NoError(t, err)

	_, err = client.SendTaskSubscribe(context.Background(), a2aSchema.TaskSendParams{ID: "task-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text/event-stream")
}

func TestClientSendsConfiguredHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		req := decodeRPCRequest(t, r)
		writeRPCResult(t, w, req.ID, a2aSchema.Task{ID: "task-1"})
	}))
	defer server.Close()

	client, err := a2aClient.New(server.URL, a2aClient.WithHeader("Authorization", "Bearer token-1"))
	require.NoError(t, err)

	_, err = client.GetTask(context.Background(), a2aSchema.TaskQueryParams{ID: "task-1"})
	require.NoError(t, err)
}

func TestFetchAgentCard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/agent.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"name": "Weather Agent",
			"url": "/a2a",
			"version": "1.0.0",
			"capabilities": {"streaming": true}
		}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	card, err := a2aClient.FetchAgentCard(context.Background(), server.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Weather Agent", card.Name)
	assert.True(t, card.Capabilities.Streaming)
	// Relative endpoint URLs resolve against the host.
	assert.Equal(t, server.URL+"/a2a", card.URL)
	// Missing mode lists default to text.
	assert.Equal(t, []string{"text"}, card.DefaultInputModes)
	assert.Equal(t, []string{"text"}, card.DefaultOutputModes)
}

func TestFetchAgentCardRejectsIncompleteCard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/agent.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name": "No URL Agent"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := a2aClient.FetchAgentCard(context.Background(), server.URL, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required fields")
}
