package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/zigopay/cargo-gateway/internal/model"
	"github.com/zigopay/cargo-gateway/pkg/logger"
)

var (
	// ErrGatewayUnavailable is returned when the provider cannot be
	// reached or the circuit is open. Callers must not touch the ledger
	// when they see it.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayDeclined    = errors.New("payment gateway declined the request")
)

type GatewayStatus string

const (
	GatewayStatusCompleted GatewayStatus = "COMPLETED"
	GatewayStatusDeclined  GatewayStatus = "DECLINED"
	GatewayStatusPending   GatewayStatus = "PENDING"
)

// Request/Response types
type DepositRequest struct {
	CustomerID int64       `json:"customer_id"`
	Amount     model.Cents `json:"amount"`
	Currency   string      `json:"currency"`
	Method     string      `json:"method"`
	Account    string      `json:"account,omitempty"`
}

type DepositResponse struct {
	Reference   string        `json:"reference"`
	Status      GatewayStatus `json:"status"`
	ErrorCode   string        `json:"error_code,omitempty"`
	ErrorMsg    string        `json:"error_message,omitempty"`
	ProcessedAt time.Time     `json:"processed_at"`

	// Raw is the provider payload as received, stored verbatim on the
	// ledger entry.
	Raw []byte `json:"-"`
}

type WithdrawalRequest struct {
	CustomerID int64       `json:"customer_id"`
	Amount     model.Cents `json:"amount"`
	Currency   string      `json:"currency"`
	Account    string      `json:"account,omitempty"`
}

type VerifyResponse struct {
	Reference string        `json:"reference"`
	Status    GatewayStatus `json:"status"`
	Amount    model.Cents   `json:"amount"`
	Currency  string        `json:"currency"`
}

type Config struct {
	URL                     string
	APIKey                  string
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	MaxConns                int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

// Client talks to the external money provider. It is the only component
// allowed to move real funds; everything else records what it reports.
type Client struct {
	config *Config
	client *fasthttp.Client

	totalRequests    atomic.Int64
	failedRequests   atomic.Int64
	consecutiveFails atomic.Int32
	circuitOpenUntil atomic.Int64
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.URL == "" {
		return nil, errors.New("gateway url is required")
	}

	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 100 * time.Millisecond
	}
	if config.CircuitBreakerThreshold <= 0 {
		config.CircuitBreakerThreshold = 5
	}
	if config.CircuitBreakerTimeout <= 0 {
		config.CircuitBreakerTimeout = 30 * time.Second
	}

	client := &Client{
		config: config,
		client: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
	}

	logger.Info("Payment gateway client initialized", "url", config.URL, "timeout", config.Timeout)

	return client, nil
}

// ProcessDeposit collects funds from the customer's external account.
// It retries transient failures but never retries a decline.
func (c *Client) ProcessDeposit(ctx context.Context, req *DepositRequest) (*DepositResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		if !c.available() {
			lastErr = ErrGatewayUnavailable
			continue
		}

		response, err := c.doRequest(ctx, "POST", "/api/v1/payments/deposit", reqBody)
		if err != nil {
			c.recordFailure()
			logger.Warn("Gateway request failed, retrying", "error", err, "attempt", attempt+1)
			lastErr = err
			continue
		}

		c.recordSuccess()

		var resp DepositResponse
		if err := json.Unmarshal(response, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		resp.Raw = response

		if resp.Status == GatewayStatusDeclined {
			return &resp, fmt.Errorf("%w: %s", ErrGatewayDeclined, resp.ErrorMsg)
		}

		logger.Info("Gateway deposit processed", "reference", resp.Reference, "status", string(resp.Status))

		return &resp, nil
	}

	return nil, fmt.Errorf("%w: failed after %d attempts: %v", ErrGatewayUnavailable, c.config.MaxRetries+1, lastErr)
}

// ProcessWithdrawal pushes funds back to the customer's external
// account. Same retry semantics as deposits.
func (c *Client) ProcessWithdrawal(ctx context.Context, req *WithdrawalRequest) (*DepositResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		if !c.available() {
			lastErr = ErrGatewayUnavailable
			continue
		}

		response, err := c.doRequest(ctx, "POST", "/api/v1/payments/withdraw", reqBody)
		if err != nil {
			c.recordFailure()
			logger.Warn("Gateway request failed, retrying", "error", err, "attempt", attempt+1)
			lastErr = err
			continue
		}

		c.recordSuccess()

		var resp DepositResponse
		if err := json.Unmarshal(response, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		resp.Raw = response

		if resp.Status == GatewayStatusDeclined {
			return &resp, fmt.Errorf("%w: %s", ErrGatewayDeclined, resp.ErrorMsg)
		}

		return &resp, nil
	}

	return nil, fmt.Errorf("%w: failed after %d attempts: %v", ErrGatewayUnavailable, c.config.MaxRetries+1, lastErr)
}

// VerifyPayment queries the provider for the state of a reference.
func (c *Client) VerifyPayment(ctx context.Context, reference string) (*VerifyResponse, error) {
	path := fmt.Sprintf("/api/v1/payments/verify/%s", reference)
	response, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	c.recordSuccess()

	var resp VerifyResponse
	if err := json.Unmarshal(response, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &resp, nil
}

// doRequest performs HTTP request with timeout
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.URL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, nil
}

func (c *Client) available() bool {
	openUntil := c.circuitOpenUntil.Load()
	if openUntil == 0 {
		return true
	}
	if time.Now().Unix() > openUntil {
		c.circuitOpenUntil.Store(0)
		c.consecutiveFails.Store(0)
		return true
	}
	return false
}

func (c *Client) recordSuccess() {
	c.totalRequests.Add(1)
	c.consecutiveFails.Store(0)
}

func (c *Client) recordFailure() {
	c.totalRequests.Add(1)
	c.failedRequests.Add(1)
	fails := c.consecutiveFails.Add(1)

	if fails >= int32(c.config.CircuitBreakerThreshold) {
		openUntil := time.Now().Add(c.config.CircuitBreakerTimeout).Unix()
		c.circuitOpenUntil.Store(openUntil)
		logger.Warn("Gateway circuit breaker opened", "consecutive_fails", fails, "timeout", c.config.CircuitBreakerTimeout)
	}
}

// Stats reports request counters for the health endpoint.
func (c *Client) Stats() (total, failed int64) {
	return c.totalRequests.Load(), c.failedRequests.Load()
}
