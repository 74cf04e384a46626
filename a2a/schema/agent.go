package schema

// AgentCapabilities lists the optional capabilities supported by the agent.
type AgentCapabilities struct {
	// Indicates if the agent supports Server-Sent Events (SSE) for streaming updates via `tasks/sendSubscribe`.
	Streaming bool `json:"streaming,omitempty"`
	// Indicates if the agent supports receiving push notification configurations.
	PushNotifications bool `json:"pushNotifications,omitempty"`
	// Indicates if the agent supports returning task history via the `historyLength` parameter.
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty"`
}

// AgentProvider contains information about the organization providing the agent.
type AgentProvider struct {
	// Name of the organization.
	Organization string `json:"organization"`
	// URL of the organization's website.
	URL *string `json:"url,omitempty"`
}

// AgentCard provides metadata about an AI agent, enabling discovery and capability understanding.
// Typically served at `/.well-known/agent.json`.
type AgentCard struct {
	// Human-readable name of the agent. (Required)
	Name string `json:"name"`
	// Detailed description of the agent.
	Description *string `json:"description,omitempty"`
	// The endpoint URL where the agent accepts A2A requests. (Required)
	URL string `json:"url"`
	// Information about the agent provider.
	Provider *AgentProvider `json:"provider,omitempty"`
	// Version of the agent. (Required)
	Version string `json:"version"`
	// Optional capabilities supported by the agent.
	Capabilities AgentCapabilities `json:"capabilities"`
	// Default input content types accepted by the agent.
	DefaultInputModes []string `json:"defaultInputModes,omitempty"`
	// Default output content types produced by the agent.
	DefaultOutputModes []string `json:"defaultOutputModes,omitempty"`
}
