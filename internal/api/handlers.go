// handlers.go - HTTP handlers for the receipt analysis pipeline

package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartbiz-vn/receipt_ai_analyzer/configs"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/ai"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/common"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/extract"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/processor"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/storage"
)

// Handler wires the pipeline stages together. Each request runs them strictly
// in order: normalize image → invoke model → tolerant parse → normalize
// fields → match project → assemble response.
type Handler struct {
	cfg       *configs.Config
	invoker   ai.Invoker
	directory processor.ProjectDirectory
}

// NewHandler creates the analysis handler.
func NewHandler(cfg *configs.Config, invoker ai.Invoker, directory processor.ProjectDirectory) *Handler {
	return &Handler{
		cfg:       cfg,
		invoker:   invoker,
		directory: directory,
	}
}

// imageRequest is the JSON submission path: raw base64 or a data URI.
type imageRequest struct {
	Image string `json:"image"`
}

// AnalyzeReceipt handles POST /api/v1/analyze-receipt.
// Full pipeline including project detection and directory matching.
func (h *Handler) AnalyzeReceipt(c *gin.Context) {
	h.analyze(c, ai.ExpenseWithProjectPrompt, true)
}

// AnalyzeReceiptSimple handles POST /api/v1/analyze-receipt/simple.
// Single-expense prompt, no project matching.
func (h *Handler) AnalyzeReceiptSimple(c *gin.Context) {
	h.analyze(c, ai.SimpleExpensePrompt, false)
}

func (h *Handler) analyze(c *gin.Context, prompt string, matchProjects bool) {
	reqCtx := common.NewRequestContext()

	// Step 1: Normalize the uploaded image. Client faults stop here - no
	// outbound call is made for a missing or undecodable image.
	reqCtx.StartStep("normalize_image")
	img, err := h.readImage(c)
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid image input",
			"details":    err.Error(),
			"expected":   "multipart form field 'image' or JSON body { \"image\": \"<base64 or data URI>\" }",
			"request_id": reqCtx.RequestID,
		})
		return
	}
	reqCtx.EndStep("success", nil, nil)

	// Step 2: Optional enhancement for model accuracy. Failures fall back to
	// the original bytes - enhancement is never a reason to reject a request.
	imageData, mimeType := img.Data, img.MIMEType
	if h.cfg.EnableImagePreprocessing {
		reqCtx.StartStep("enhance_image")
		if enhanced, enhancedMIME, enhErr := processor.EnhanceForOCR(img.Data, h.cfg.MaxImageDimension); enhErr == nil {
			imageData, mimeType = enhanced, enhancedMIME
			reqCtx.EndStep("success", nil, nil)
		} else {
			reqCtx.LogWarning("Image enhancement failed, using original: %v", enhErr)
			reqCtx.EndStep("skipped", nil, nil)
		}
	}

	// Step 3: One model call, bounded by the configured timeout. No retry;
	// the caller re-submits on failure.
	reqCtx.StartStep("invoke_model")
	rawText, tokens, err := h.invoker.AnalyzeReceipt(c.Request.Context(), imageData, mimeType, prompt, reqCtx)
	if err != nil {
		reqCtx.EndStep("failed", tokens, err)
		h.respondUpstreamError(c, reqCtx, err)
		return
	}
	reqCtx.EndStep("success", tokens, nil)

	// Steps 4-5: Tolerant parse + field normalization. Data-quality faults
	// never fail the request; the user always gets an editable record.
	reqCtx.StartStep("extract_fields")
	result := extract.ParseModelOutput(rawText)
	analysis := extract.Normalize(result, time.Now())
	if _, parsed := result.Value(); !parsed {
		reqCtx.LogWarning("Model output was not parseable JSON, returning fallback analysis")
	}
	reqCtx.EndStep("success", nil, nil)

	// Step 6: Best-effort project matching.
	var matched *storage.Project
	if matchProjects {
		reqCtx.StartStep("match_project")
		matched = processor.MatchProject(c.Request.Context(), h.directory, analysis, reqCtx)
		reqCtx.EndStep("success", nil, nil)
	}

	summary := reqCtx.GetSummary()

	response := gin.H{
		"success":  true,
		"analysis": analysis,
		"metadata": gin.H{
			"request_id":   reqCtx.RequestID,
			"processed_at": time.Now().Format(time.RFC3339),
			"duration_sec": summary["total_duration_sec"],
			"provider":     h.invoker.ProviderName(),
			"token_usage":  summary["token_usage"],
		},
	}
	if matchProjects {
		response["matchedProject"] = matched
	}

	c.JSON(http.StatusOK, response)
}

// readImage accepts either submission path: multipart form field "image", or
// a JSON body with an "image" string field.
func (h *Handler) readImage(c *gin.Context) (*processor.NormalizedImage, error) {
	fileHeader, err := c.FormFile("image")
	if err == nil {
		file, openErr := fileHeader.Open()
		if openErr != nil {
			return nil, processor.ErrInvalidImage
		}
		defer file.Close()

		data, readErr := io.ReadAll(file)
		if readErr != nil {
			return nil, processor.ErrInvalidImage
		}
		return processor.NormalizeFileUpload(data, fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
	}

	var req imageRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil || req.Image == "" {
		return nil, processor.ErrMissingImage
	}
	return processor.NormalizeBase64Payload(req.Image)
}

// respondUpstreamError maps invoker errors to the HTTP contract: credential
// and availability faults are 500 with diagnostics attached.
func (h *Handler) respondUpstreamError(c *gin.Context, reqCtx *common.RequestContext, err error) {
	reqCtx.LogError("Gọi AI thất bại: %v", err)

	switch {
	case errors.Is(err, ai.ErrCredentialMissing):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "AI provider is not configured",
			"details":    "PROVIDER_API_KEY is not set",
			"request_id": reqCtx.RequestID,
		})

	case ai.IsTimeout(err):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "AI analysis timed out",
			"details":    err.Error(),
			"request_id": reqCtx.RequestID,
		})

	default:
		var upstream *ai.UpstreamError
		details := err.Error()
		if errors.As(err, &upstream) {
			details = upstream.Body
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "AI analysis failed",
			"details":    details,
			"request_id": reqCtx.RequestID,
		})
	}
}
