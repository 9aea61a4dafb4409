// gemini.go - Gemini client for receipt analysis

package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/common"
)

// GeminiProvider implements Invoker using the Gemini SDK.
type GeminiProvider struct {
	cfg InvokerConfig
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(cfg InvokerConfig) *GeminiProvider {
	return &GeminiProvider{cfg: cfg}
}

// ProviderName returns "gemini"
func (p *GeminiProvider) ProviderName() string {
	return "gemini"
}

// AnalyzeReceipt sends the prompt and image to Gemini in a single call.
func (p *GeminiProvider) AnalyzeReceipt(ctx context.Context, imageData []byte, mimeType, prompt string, reqCtx *common.RequestContext) (string, *common.TokenUsage, error) {
	if p.cfg.APIKey == "" {
		return "", nil, ErrCredentialMissing
	}

	if p.cfg.Limiter != nil {
		p.cfg.Limiter.Wait()
	}

	reqCtx.LogInfo("🔷 Using Gemini provider (model: %s)", p.cfg.Model)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.cfg.APIKey))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.cfg.Model)
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: ptr(int32(p.cfg.MaxOutputTokens)),
	}

	resp, err := model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{
			MIMEType: mimeType,
			Data:     imageData,
		},
	)
	if err != nil {
		if IsTimeout(err) {
			return "", nil, err
		}
		return "", nil, &UpstreamError{StatusCode: 0, Body: err.Error()}
	}

	content, err := textFromCandidates(resp)
	if err != nil {
		return "", nil, err
	}

	reqCtx.LogInfo("📦 Received model response: %d chars", len(content))

	var tokenUsage *common.TokenUsage
	if resp.UsageMetadata != nil {
		tokens := common.CalculateTokenCost(
			int(resp.UsageMetadata.PromptTokenCount),
			int(resp.UsageMetadata.CandidatesTokenCount),
			p.cfg.InputPricePerMillion,
			p.cfg.OutputPricePerMillion,
			p.cfg.USDToVND,
		)
		tokenUsage = &tokens
	}

	return content, tokenUsage, nil
}

// textFromCandidates pulls the first text part out of a Gemini response.
// Content is nil when generation stops on a safety or recitation finish
// reason, so it must be checked before Parts.
func textFromCandidates(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &UpstreamError{StatusCode: 0, Body: "no response from Gemini"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", &UpstreamError{
			StatusCode: 0,
			Body:       fmt.Sprintf("Gemini returned no content (finish reason: %s)", candidate.FinishReason),
		}
	}

	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok && text != "" {
			return string(text), nil
		}
	}

	return "", &UpstreamError{StatusCode: 0, Body: "empty response from Gemini"}
}

func ptr[T any](v T) *T {
	return &v
}
