package a2aClient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	a2aSchema "github.com/a2aview/a2aview/a2a/schema"
	"go.uber.org/zap"
)

// FetchAgentCard retrieves the AgentCard JSON from the standard /.well-known
// path of the agent's host. The card's URL field names the actual A2A
// endpoint; relative card URLs are resolved against the base URL.
func FetchAgentCard(ctx context.Context, baseURL string, httpClient *http.Client, logger *zap.Logger) (*a2aSchema.AgentCard, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	wellKnownURL := fmt.Sprintf("%s://%s/.well-known/agent.json", parsedURL.Scheme, parsedURL.Host)

	logger.Debug("Fetching AgentCard", zap.String("url", wellKnownURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnownURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create AgentCard request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch AgentCard from %s: %w", wellKnownURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch AgentCard from %s: status code %d", wellKnownURL, resp.StatusCode)
	}

	var agentCard a2aSchema.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&agentCard); err != nil {
		return nil, fmt.Errorf("parse AgentCard JSON from %s: %w", wellKnownURL, err)
	}
	if agentCard.Name == "" || agentCard.URL == "" || agentCard.Version == "" {
		return nil, fmt.Errorf("invalid AgentCard received: missing required fields (name, url, version)")
	}

	cardURLParsed, err := url.Parse(agentCard.URL)
	if err != nil {
		logger.Warn("AgentCard URL is invalid, using provided base URL",
			zap.String("cardURL", agentCard.URL), zap.String("baseURL", baseURL))
		agentCard.URL = baseURL
	} else if !cardURLParsed.IsAbs() {
		agentCard.URL = parsedURL.ResolveReference(cardURLParsed).String()
	}

	if len(agentCard.DefaultInputModes) == 0 {
		agentCard.DefaultInputModes = []string{"text"}
	}
	if len(agentCard.DefaultOutputModes) == 0 {
		agentCard.DefaultOutputModes = []string{"text"}
	}

	logger.Info("Fetched AgentCard",
		zap.String("agentName", agentCard.Name), zap.String("agentVersion", agentCard.Version))
	return &agentCard, nil
}
