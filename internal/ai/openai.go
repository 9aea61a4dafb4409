// openai.go - OpenAI-compatible chat-completions client for receipt analysis

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/common"
)

// OpenAIProvider implements Invoker against any OpenAI-compatible
// chat-completions endpoint.
type OpenAIProvider struct {
	cfg    InvokerConfig
	client *http.Client
}

// NewOpenAIProvider creates a provider for an OpenAI-compatible endpoint.
func NewOpenAIProvider(cfg InvokerConfig) *OpenAIProvider {
	return &OpenAIProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ProviderName returns "openai"
func (p *OpenAIProvider) ProviderName() string {
	return "openai"
}

// Chat-completions request/response structures
type chatContentPart struct {
	Type     string        `json:"type"` // "text" or "image_url"
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// AnalyzeReceipt sends one chat-completion request with the prompt and the
// image inlined as a base64 data URI. No retry is performed; the caller must
// re-submit on failure.
func (p *OpenAIProvider) AnalyzeReceipt(ctx context.Context, imageData []byte, mimeType, prompt string, reqCtx *common.RequestContext) (string, *common.TokenUsage, error) {
	if p.cfg.APIKey == "" {
		return "", nil, ErrCredentialMissing
	}

	if p.cfg.Limiter != nil {
		p.cfg.Limiter.Wait()
	}

	reqCtx.LogInfo("🔵 Using OpenAI-compatible provider (model: %s)", p.cfg.Model)
	reqCtx.LogInfo("📊 Image size: %.2f KB, MIME type: %s", float64(len(imageData))/1024.0, mimeType)

	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))

	request := chatRequest{
		Model:     p.cfg.Model,
		MaxTokens: p.cfg.MaxOutputTokens,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &chatImageURL{URL: dataURI}},
				},
			},
		},
	}

	response, err := p.callChatCompletions(ctx, request)
	if err != nil {
		return "", nil, err
	}

	if len(response.Choices) == 0 {
		return "", nil, &UpstreamError{StatusCode: http.StatusOK, Body: "no choices in response"}
	}

	content := response.Choices[0].Message.Content
	reqCtx.LogInfo("📦 Received model response: %d chars", len(content))

	tokens := common.CalculateTokenCost(
		response.Usage.PromptTokens,
		response.Usage.CompletionTokens,
		p.cfg.InputPricePerMillion,
		p.cfg.OutputPricePerMillion,
		p.cfg.USDToVND,
	)

	return content, &tokens, nil
}

// callChatCompletions makes the HTTP request to the chat-completions endpoint
func (p *OpenAIProvider) callChatCompletions(ctx context.Context, request chatRequest) (*chatResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse chat response: %w", err)
	}

	return &response, nil
}
