package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartbiz-vn/receipt_ai_analyzer/configs"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/ai"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/common"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/extract"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/storage"
)

// fakeInvoker returns a canned model response and counts calls, so tests can
// assert that client faults never reach the provider.
type fakeInvoker struct {
	response string
	err      error
	calls    int
}

func (f *fakeInvoker) AnalyzeReceipt(ctx context.Context, imageData []byte, mimeType, prompt string, reqCtx *common.RequestContext) (string, *common.TokenUsage, error) {
	f.calls++
	if f.err != nil {
		return "", nil, f.err
	}
	tokens := common.CalculateTokenCost(1000, 50, 0.15, 0.60, 25400)
	return f.response, &tokens, nil
}

func (f *fakeInvoker) ProviderName() string { return "fake" }

type stubDirectory struct {
	byCode map[string]*storage.Project
	byName []storage.Project
}

func (s *stubDirectory) FindByCode(ctx context.Context, code string) (*storage.Project, error) {
	return s.byCode[code], nil
}

func (s *stubDirectory) FindByNameSubstring(ctx context.Context, text string, limit int64) ([]storage.Project, error) {
	return s.byName, nil
}

func newTestRouter(invoker ai.Invoker, dir *stubDirectory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if dir == nil {
		dir = &stubDirectory{}
	}

	cfg := &configs.Config{
		AIProvider:     "openai",
		RequestTimeout: 5 * time.Second,
	}
	handler := NewHandler(cfg, invoker, dir)

	router := gin.New()
	router.POST("/api/v1/analyze-receipt", handler.AnalyzeReceipt)
	router.POST("/api/v1/analyze-receipt/simple", handler.AnalyzeReceiptSimple)
	return router
}

func postJSONImage(t *testing.T, router *gin.Engine, path string, imageField interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]interface{}{"image": imageField})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validBase64Image() string {
	return base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0})
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
	return body
}

func TestAnalyzeReceiptMissingImage(t *testing.T) {
	invoker := &fakeInvoker{response: "{}"}
	router := newTestRouter(invoker, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze-receipt", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if invoker.calls != 0 {
		t.Errorf("model invoked %d times for a missing image, want 0", invoker.calls)
	}
}

func TestAnalyzeReceiptInvalidBase64(t *testing.T) {
	invoker := &fakeInvoker{response: "{}"}
	router := newTestRouter(invoker, nil)

	w := postJSONImage(t, router, "/api/v1/analyze-receipt", "!!!not-base64!!!")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if invoker.calls != 0 {
		t.Errorf("model invoked for undecodable image")
	}
}

func TestAnalyzeReceiptTaxiEndToEnd(t *testing.T) {
	invoker := &fakeInvoker{response: "```json\n" + `{
		"amount": 350000,
		"vendor": "Taxi Mai Linh",
		"date": "2026-03-10",
		"description": "Taxi từ sân bay về văn phòng",
		"category": "transportation",
		"confidence": 92,
		"project_mention": true,
		"project_name": "Dự án Delta",
		"project_code": "DA-102"
	}` + "\n```"}
	dir := &stubDirectory{
		byCode: map[string]*storage.Project{
			"DA-102": {ID: "p1", Name: "Dự án Delta", ProjectCode: "DA-102"},
		},
	}
	router := newTestRouter(invoker, dir)

	w := postJSONImage(t, router, "/api/v1/analyze-receipt", validBase64Image())

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", w.Code, w.Body.String())
	}

	body := decodeResponse(t, w)
	if body["success"] != true {
		t.Error("success = false")
	}

	analysis := body["analysis"].(map[string]interface{})
	if analysis["amount"].(float64) != 350000 {
		t.Errorf("amount = %v", analysis["amount"])
	}
	if analysis["vendor"] != "Taxi Mai Linh" {
		t.Errorf("vendor = %v", analysis["vendor"])
	}
	if analysis["category"] != "transportation" {
		t.Errorf("category = %v", analysis["category"])
	}
	if analysis["confidence"].(float64) != 92 {
		t.Errorf("confidence = %v", analysis["confidence"])
	}

	matched, ok := body["matchedProject"].(map[string]interface{})
	if !ok {
		t.Fatalf("matchedProject = %v, want object", body["matchedProject"])
	}
	if matched["project_code"] != "DA-102" {
		t.Errorf("matchedProject.project_code = %v", matched["project_code"])
	}

	metadata := body["metadata"].(map[string]interface{})
	if metadata["request_id"] == "" {
		t.Error("metadata.request_id is empty")
	}
	if metadata["provider"] != "fake" {
		t.Errorf("metadata.provider = %v", metadata["provider"])
	}
}

func TestAnalyzeReceiptUnparseableOutput(t *testing.T) {
	invoker := &fakeInvoker{response: "Xin lỗi, tôi không thể đọc hóa đơn này."}
	router := newTestRouter(invoker, nil)

	w := postJSONImage(t, router, "/api/v1/analyze-receipt", validBase64Image())

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with fallback record", w.Code)
	}

	body := decodeResponse(t, w)
	analysis := body["analysis"].(map[string]interface{})
	if analysis["vendor"] != extract.DefaultVendor {
		t.Errorf("vendor = %v, want fallback vendor", analysis["vendor"])
	}
	if analysis["description"] != extract.FallbackDescription {
		t.Errorf("description = %v, want fallback description", analysis["description"])
	}
	if analysis["confidence"].(float64) != 0 {
		t.Errorf("confidence = %v, want 0", analysis["confidence"])
	}
	if body["matchedProject"] != nil {
		t.Errorf("matchedProject = %v, want null", body["matchedProject"])
	}
}

func TestAnalyzeReceiptNoProjectMention(t *testing.T) {
	invoker := &fakeInvoker{response: `{
		"amount": 95000,
		"vendor": "Quán Cơm 123",
		"date": "2026-03-12",
		"description": "Cơm trưa",
		"category": "meals",
		"confidence": 88,
		"project_mention": false,
		"project_name": null,
		"project_code": null
	}`}
	router := newTestRouter(invoker, nil)

	w := postJSONImage(t, router, "/api/v1/analyze-receipt", validBase64Image())

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeResponse(t, w)
	if body["matchedProject"] != nil {
		t.Errorf("matchedProject = %v, want null", body["matchedProject"])
	}
}

func TestAnalyzeReceiptCredentialMissing(t *testing.T) {
	invoker := &fakeInvoker{err: ai.ErrCredentialMissing}
	router := newTestRouter(invoker, nil)

	w := postJSONImage(t, router, "/api/v1/analyze-receipt", validBase64Image())

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	body := decodeResponse(t, w)
	details, _ := body["details"].(string)
	if !strings.Contains(details, "PROVIDER_API_KEY") {
		t.Errorf("details = %q, want operator guidance", details)
	}
}

func TestAnalyzeReceiptUpstreamFailure(t *testing.T) {
	invoker := &fakeInvoker{err: &ai.UpstreamError{StatusCode: 503, Body: "model overloaded"}}
	router := newTestRouter(invoker, nil)

	w := postJSONImage(t, router, "/api/v1/analyze-receipt", validBase64Image())

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	body := decodeResponse(t, w)
	if details, _ := body["details"].(string); !strings.Contains(details, "model overloaded") {
		t.Errorf("details = %q, want upstream body", details)
	}
}

func TestAnalyzeReceiptTimeout(t *testing.T) {
	invoker := &fakeInvoker{err: context.DeadlineExceeded}
	router := newTestRouter(invoker, nil)

	w := postJSONImage(t, router, "/api/v1/analyze-receipt", validBase64Image())

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	body := decodeResponse(t, w)
	if errMsg, _ := body["error"].(string); !strings.Contains(strings.ToLower(errMsg), "timed out") {
		t.Errorf("error = %q, want timeout message", errMsg)
	}
}

func TestAnalyzeReceiptSimpleOmitsProjectMatching(t *testing.T) {
	invoker := &fakeInvoker{response: `{
		"amount": 95000,
		"vendor": "Quán Cơm 123",
		"date": "2026-03-12",
		"description": "Cơm trưa",
		"category": "meals",
		"confidence": 88
	}`}
	router := newTestRouter(invoker, nil)

	w := postJSONImage(t, router, "/api/v1/analyze-receipt/simple", validBase64Image())

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeResponse(t, w)
	if _, present := body["matchedProject"]; present {
		t.Error("simple endpoint must not include matchedProject")
	}
	analysis := body["analysis"].(map[string]interface{})
	if analysis["vendor"] != "Quán Cơm 123" {
		t.Errorf("vendor = %v", analysis["vendor"])
	}
}

func TestAnalyzeReceiptMultipartUpload(t *testing.T) {
	invoker := &fakeInvoker{response: `{
		"amount": 120000,
		"vendor": "Văn phòng phẩm Hồng Hà",
		"date": "2026-03-14",
		"description": "Mua giấy in",
		"category": "supplies",
		"confidence": 90
	}`}
	router := newTestRouter(invoker, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "receipt.jpg")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze-receipt/simple", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", w.Code, w.Body.String())
	}
	if invoker.calls != 1 {
		t.Errorf("model invoked %d times, want 1", invoker.calls)
	}
}

func TestAnalyzeReceiptEnhancementFailureFallsBack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	invoker := &fakeInvoker{response: `{
		"amount": 95000,
		"vendor": "Quán Cơm 123",
		"date": "2026-03-12",
		"description": "Cơm trưa",
		"category": "meals",
		"confidence": 88
	}`}
	cfg := &configs.Config{
		AIProvider:               "openai",
		RequestTimeout:           5 * time.Second,
		EnableImagePreprocessing: true,
		MaxImageDimension:        2000,
	}
	handler := NewHandler(cfg, invoker, &stubDirectory{})
	router := gin.New()
	router.POST("/api/v1/analyze-receipt/simple", handler.AnalyzeReceiptSimple)

	// Valid base64, but the bytes are a truncated JPEG the enhancer cannot
	// decode. The original bytes must still reach the model.
	w := postJSONImage(t, router, "/api/v1/analyze-receipt/simple", validBase64Image())

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", w.Code, w.Body.String())
	}
	if invoker.calls != 1 {
		t.Errorf("model invoked %d times, want 1 with the original bytes", invoker.calls)
	}
	body := decodeResponse(t, w)
	analysis := body["analysis"].(map[string]interface{})
	if analysis["vendor"] != "Quán Cơm 123" {
		t.Errorf("vendor = %v", analysis["vendor"])
	}
}

func TestAnalyzeReceiptUnknownError(t *testing.T) {
	invoker := &fakeInvoker{err: errors.New("connection refused")}
	router := newTestRouter(invoker, nil)

	w := postJSONImage(t, router, "/api/v1/analyze-receipt", validBase64Image())

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
