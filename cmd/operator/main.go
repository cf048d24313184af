package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/pkg/logger"
)

// Mock payment provider used in development. It answers the same wire
// format the gateway client speaks, approving or declining requests at
// a configurable rate.

type providerStatus string

const (
	statusCompleted providerStatus = "COMPLETED"
	statusDeclined  providerStatus = "DECLINED"
)

type paymentRequest struct {
	CustomerID int64       `json:"customer_id"`
	Amount     model.Cents `json:"amount"`
	Currency   string      `json:"currency"`
	Method     string      `json:"method"`
	Account    string      `json:"account,omitempty"`
}

type paymentResponse struct {
	Reference   string         `json:"reference"`
	Status      providerStatus `json:"status"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	ProcessedAt time.Time      `json:"processed_at"`
}

type verifyResponse struct {
	Reference string         `json:"reference"`
	Status    providerStatus `json:"status"`
	Amount    model.Cents    `json:"amount"`
	Currency  string         `json:"currency"`
}

// MockProvider simulates the external money provider.
type MockProvider struct {
	approvalRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	providerID   string
	rng          *rand.Rand
}

func NewMockProvider(approvalRate float64, minDelay, maxDelay time.Duration) *MockProvider {
	return &MockProvider{
		approvalRate: approvalRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		providerID:   "MOCK_PROVIDER_" + uuid.New().String()[:8],
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *MockProvider) process(req *paymentRequest, direction string) *paymentResponse {
	time.Sleep(p.randomDelay())

	resp := &paymentResponse{
		Reference:   "PRV-" + strings.ToUpper(uuid.New().String()[:12]),
		ProcessedAt: time.Now(),
	}

	if req.Amount <= 0 {
		resp.Status = statusDeclined
		resp.ErrorCode = "INVALID_AMOUNT"
		resp.ErrorMsg = "amount must be positive"
		return resp
	}

	if p.shouldApprove() {
		resp.Status = statusCompleted
		logger.Info("Provider approved request", "direction", direction, "reference", resp.Reference, "customer_id", req.CustomerID, "amount", req.Amount)
	} else {
		resp.Status = statusDeclined
		resp.ErrorCode = p.randomErrorCode()
		resp.ErrorMsg = p.errorMessage(resp.ErrorCode)
		logger.Warn("Provider declined request", "direction", direction, "reference", resp.Reference, "error_code", resp.ErrorCode)
	}

	return resp
}

func (p *MockProvider) randomDelay() time.Duration {
	delta := p.maxDelay - p.minDelay
	if delta <= 0 {
		return p.minDelay
	}
	return p.minDelay + time.Duration(p.rng.Int63n(int64(delta)))
}

func (p *MockProvider) shouldApprove() bool {
	return p.rng.Float64() < p.approvalRate
}

func (p *MockProvider) randomErrorCode() string {
	errorCodes := []string{
		"INSUFFICIENT_FUNDS",
		"NETWORK_ERROR",
		"TIMEOUT",
		"ACCOUNT_BLOCKED",
		"LIMIT_EXCEEDED",
		"PROVIDER_REJECTED",
	}
	return errorCodes[p.rng.Intn(len(errorCodes))]
}

func (p *MockProvider) errorMessage(code string) string {
	messages := map[string]string{
		"INSUFFICIENT_FUNDS": "The funding account has insufficient funds",
		"NETWORK_ERROR":      "Network connectivity issue with the provider",
		"TIMEOUT":            "The payment request timed out",
		"ACCOUNT_BLOCKED":    "The customer account is blocked",
		"LIMIT_EXCEEDED":     "The transaction exceeds the daily limit",
		"PROVIDER_REJECTED":  "The provider rejected the payment",
	}
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}

type handler struct {
	provider *MockProvider
}

func (h *handler) deposit(ctx *fasthttp.RequestCtx) {
	h.payment(ctx, "deposit")
}

func (h *handler) withdraw(ctx *fasthttp.RequestCtx) {
	h.payment(ctx, "withdrawal")
}

func (h *handler) payment(ctx *fasthttp.RequestCtx, direction string) {
	var req paymentRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString(`{"error":"invalid request body"}`)
		return
	}

	resp := h.provider.process(&req, direction)

	statusCode := fasthttp.StatusOK
	if resp.Status == statusDeclined {
		statusCode = fasthttp.StatusAccepted
	}
	writeJSON(ctx, statusCode, resp)
}

func (h *handler) verify(ctx *fasthttp.RequestCtx) {
	reference, _ := ctx.UserValue("reference").(string)
	if reference == "" {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString(`{"error":"reference is required"}`)
		return
	}

	resp := verifyResponse{Reference: reference, Currency: "TZS"}
	if h.provider.shouldApprove() {
		resp.Status = statusCompleted
	} else {
		resp.Status = statusDeclined
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (h *handler) health(ctx *fasthttp.RequestCtx) {
	// Simulate 5% downtime
	if h.provider.rng.Float64() < 0.05 {
		writeJSON(ctx, fasthttp.StatusServiceUnavailable, map[string]interface{}{
			"status": "unavailable",
		})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"status":        "healthy",
		"provider_id":   h.provider.providerID,
		"approval_rate": h.provider.approvalRate,
		"timestamp":     time.Now(),
	})
}

func writeJSON(ctx *fasthttp.RequestCtx, statusCode int, body interface{}) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(statusCode)
	data, err := json.Marshal(body)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetBody(data)
}

func main() {
	port := getEnv("PORT", "8081")
	approvalRate := getEnvFloat("APPROVAL_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 100*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 2*time.Second)

	logger.Info("Starting mock payment provider",
		"port", port,
		"approval_rate", approvalRate,
		"min_delay", minDelay,
		"max_delay", maxDelay)

	h := &handler{provider: NewMockProvider(approvalRate, minDelay, maxDelay)}

	r := router.New()
	r.POST("/api/v1/payments/deposit", h.deposit)
	r.POST("/api/v1/payments/withdraw", h.withdraw)
	r.GET("/api/v1/payments/verify/{reference}", h.verify)
	r.GET("/health", h.health)

	srv := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(":" + port); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down mock provider...")
	if err := srv.Shutdown(); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
