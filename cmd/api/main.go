// main.go - Receipt AI Analyzer API server

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartbiz-vn/receipt_ai_analyzer/configs"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/ai"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/api"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/ratelimit"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/storage"
)

func main() {
	cfg := configs.Load()

	// MongoDB holds the project directory used for fuzzy matching.
	if err := storage.InitMongoDB(cfg.MongoURI, cfg.MongoDBName); err != nil {
		log.Fatalf("❌ Không thể kết nối MongoDB: %v", err)
	}
	defer storage.CloseMongoDB()

	limiter := ratelimit.NewRateLimiter(10, 500*time.Millisecond)

	invoker, err := ai.NewInvoker(ai.InvokerConfig{
		Provider:              cfg.AIProvider,
		APIKey:                cfg.ProviderAPIKey,
		BaseURL:               cfg.ProviderBaseURL,
		Model:                 cfg.ModelName,
		MaxOutputTokens:       cfg.MaxOutputTokens,
		Timeout:               cfg.RequestTimeout,
		InputPricePerMillion:  cfg.InputPricePerMillion,
		OutputPricePerMillion: cfg.OutputPricePerMillion,
		USDToVND:              cfg.USDToVND,
		Limiter:               limiter,
	})
	if err != nil {
		log.Fatalf("❌ Không thể khởi tạo AI provider: %v", err)
	}

	handler := api.NewHandler(cfg, invoker, storage.NewProjectDirectory())

	router := gin.Default()
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "receipt-ai-analyzer",
			"status":  "running",
			"endpoints": []string{
				"POST /api/v1/analyze-receipt",
				"POST /api/v1/analyze-receipt/simple",
				"GET /health",
			},
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"provider": invoker.ProviderName(),
			"time":     time.Now().Format(time.RFC3339),
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/analyze-receipt", handler.AnalyzeReceipt)
		v1.POST("/analyze-receipt/simple", handler.AnalyzeReceiptSimple)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server đang chạy tại cổng %s (provider: %s, model: %s)", cfg.Port, cfg.AIProvider, cfg.ModelName)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server lỗi: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Đang tắt server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server tắt không sạch: %v", err)
	}
	log.Println("✅ Server đã tắt")
}

// corsMiddleware allows the configured origins. "*" permits any origin.
func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	origins := strings.Split(allowedOrigins, ",")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := allowedOrigins == "*"
		if !allowed {
			for _, o := range origins {
				if strings.TrimSpace(o) == origin {
					allowed = true
					break
				}
			}
		}

		if allowed {
			if allowedOrigins == "*" {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			}
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
