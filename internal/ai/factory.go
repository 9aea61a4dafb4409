// factory.go - Invoker factory for creating provider instances

package ai

import (
	"fmt"
	"log"
)

// NewInvoker creates a model invoker based on configuration.
func NewInvoker(cfg InvokerConfig) (Invoker, error) {
	switch cfg.Provider {
	case "openai":
		log.Printf("🔵 Creating OpenAI-compatible invoker (endpoint: %s)", cfg.BaseURL)
		return NewOpenAIProvider(cfg), nil

	case "gemini":
		log.Printf("🔷 Creating Gemini invoker")
		return NewGeminiProvider(cfg), nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s (supported: openai, gemini)", cfg.Provider)
	}
}
