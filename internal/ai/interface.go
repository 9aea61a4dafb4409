// interface.go - Invoker interface for supporting multiple AI providers

package ai

import (
	"context"
	"time"

	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/common"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/ratelimit"
)

// Invoker defines the interface all model providers implement. One call sends
// an instruction prompt plus a receipt image to an external multimodal model
// and returns the raw text of its single response choice.
type Invoker interface {
	// AnalyzeReceipt sends the image and prompt to the provider.
	// imageData: decoded image bytes
	// mimeType: the image's MIME type (image/jpeg, image/png, image/webp)
	// Returns raw model text, token usage, and error.
	AnalyzeReceipt(ctx context.Context, imageData []byte, mimeType, prompt string, reqCtx *common.RequestContext) (string, *common.TokenUsage, error)

	// ProviderName returns the name of the provider (e.g., "openai", "gemini")
	ProviderName() string
}

// InvokerConfig is passed explicitly at construction; providers never read the
// environment themselves.
type InvokerConfig struct {
	// Provider name: "openai" or "gemini"
	Provider string

	APIKey          string // required; checked per call so a misconfigured service still boots
	BaseURL         string // OpenAI-compatible endpoint base, ignored by gemini
	Model           string
	MaxOutputTokens int
	Timeout         time.Duration // bound on every outbound call

	// Pricing (per 1M tokens in USD) for cost accounting
	InputPricePerMillion  float64
	OutputPricePerMillion float64
	USDToVND              float64

	// Limiter throttles outbound calls; nil disables throttling (tests)
	Limiter *ratelimit.RateLimiter
}
