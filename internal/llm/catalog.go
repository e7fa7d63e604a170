package llm

import "strings"

// Provider names accepted by ASPEN_AI_PROVIDER. All of them speak the
// OpenAI-compatible chat completions wire format; they differ in base URL
// defaults and capability flags.
const (
	ProviderOpenAI           = "openai"
	ProviderOpenRouter       = "openrouter"
	ProviderOllama           = "ollama"
	ProviderOpenAICompatible = "openai-compatible"
)

type providerSpec struct {
	baseURL  string
	features Features
}

var providers = map[string]providerSpec{
	ProviderOpenAI: {
		baseURL:  "https://api.openai.com/v1",
		features: Features{SupportsJSON: true, SupportsImages: true},
	},
	ProviderOpenRouter: {
		baseURL:  "https://openrouter.ai/api/v1",
		features: Features{SupportsJSON: true, SupportsImages: true},
	},
	ProviderOllama: {
		baseURL:  "http://localhost:11434/v1",
		features: Features{SupportsJSON: true, SupportsImages: false},
	},
	// Unknown gateways get no capability assumptions; strategies fall back
	// to free-text JSON prompting.
	ProviderOpenAICompatible: {
		features: Features{},
	},
}

// KnownProvider reports whether name is a supported provider.
func KnownProvider(name string) bool {
	_, ok := providers[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// ProviderNames lists the supported providers for error messages.
func ProviderNames() []string {
	return []string{ProviderOpenAI, ProviderOpenRouter, ProviderOllama, ProviderOpenAICompatible}
}

// DefaultBaseURL returns the provider's default API root; empty when the
// provider requires an explicit base URL.
func DefaultBaseURL(name string) string {
	return providers[strings.ToLower(strings.TrimSpace(name))].baseURL
}

// ProviderFeatures returns the capability flags for a provider.
func ProviderFeatures(name string) Features {
	return providers[strings.ToLower(strings.TrimSpace(name))].features
}
