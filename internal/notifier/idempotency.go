package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zigopay/cargo-gateway/pkg/logger"
	"github.com/zigopay/cargo-gateway/pkg/redis"
)

var (
	ErrAlreadyDispatched  = errors.New("event already dispatched")
	ErrLockAcquireFailed  = errors.New("failed to acquire dispatch lock")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

type IdempotencyConfig struct {
	LockTTL time.Duration

	DispatchedTTL time.Duration

	MaxRetries int

	RetryKeyPrefix string

	LockKeyPrefix string

	DispatchedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:             30 * time.Second,
		DispatchedTTL:       24 * time.Hour,
		MaxRetries:          3,
		RetryKeyPrefix:      "notify:retry:",
		LockKeyPrefix:       "notify:lock:",
		DispatchedKeyPrefix: "notify:dispatched:",
	}
}

// IdempotencyService guards each queued event with a short-term dispatch
// lock and a long-term dispatched marker, so a redelivered event never
// reaches the customer twice.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type DispatchContext struct {
	EventID      string
	RetryCount   int
	IsRetry      bool
	lockAcquired bool
	service      *IdempotencyService
}

func (s *IdempotencyService) AcquireDispatchLock(ctx context.Context, eventID string) (*DispatchContext, error) {
	// Step 1: Check if already dispatched (long-term marker)
	dispatchedKey := s.config.DispatchedKeyPrefix + eventID
	exists, err := s.redis.Exist(dispatchedKey)
	if err != nil {
		logger.Warn("Failed to check dispatched status", "event_id", eventID, "error", err)
		// Continue even if check fails - better to risk duplicate than block dispatch
	} else if exists > 0 {
		logger.Info("Event already dispatched, skipping", "event_id", eventID)
		return nil, ErrAlreadyDispatched
	}

	// Step 2: Get current retry count
	retryKey := s.config.RetryKeyPrefix + eventID
	retryCountBytes, err := s.redis.Get(retryKey)
	retryCount := 0
	if err == nil && len(retryCountBytes) > 0 {
		fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	}

	// Step 3: Check if max retries exceeded
	if retryCount >= s.config.MaxRetries {
		logger.Error("Max retries exceeded for event", "event_id", eventID, "retry_count", retryCount)
		return nil, fmt.Errorf("%w: event_id=%s, retries=%d", ErrMaxRetriesExceeded, eventID, retryCount)
	}

	// Step 4: Acquire short-term dispatch lock (prevents concurrent dispatch)
	lockKey := s.config.LockKeyPrefix + eventID
	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))

	acquired, err := s.redis.SetNX(lockKey, lockValue, s.config.LockTTL)
	if err != nil {
		logger.Error("Failed to acquire lock", "event_id", eventID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}

	if !acquired {
		logger.Info("Lock already held by another consumer", "event_id", eventID)
		return nil, ErrLockAcquireFailed
	}

	logger.Info("Dispatch lock acquired",
		"event_id", eventID,
		"retry_count", retryCount,
		"lock_ttl", s.config.LockTTL)

	return &DispatchContext{
		EventID:      eventID,
		RetryCount:   retryCount,
		IsRetry:      retryCount > 0,
		lockAcquired: true,
		service:      s,
	}, nil
}

func (s *IdempotencyService) MarkSuccess(ctx context.Context, dc *DispatchContext) error {
	eventID := dc.EventID

	// Step 1: Set long-term dispatched marker (24 hours)
	dispatchedKey := s.config.DispatchedKeyPrefix + eventID
	err := s.redis.Set(dispatchedKey, []byte("1"), s.config.DispatchedTTL)
	if err != nil {
		logger.Error("Failed to mark event as dispatched", "event_id", eventID, "error", err)
		return fmt.Errorf("failed to mark as dispatched: %w", err)
	}

	// Step 2: Clean up lock and retry counter
	s.cleanup(ctx, dc)

	logger.Info("Event marked as dispatched",
		"event_id", eventID,
		"retry_count", dc.RetryCount)

	return nil
}

func (s *IdempotencyService) MarkFailure(ctx context.Context, dc *DispatchContext, reason error) error {
	eventID := dc.EventID

	// Step 1: Increment retry counter
	retryKey := s.config.RetryKeyPrefix + eventID
	newRetryCount := dc.RetryCount + 1
	retryValue := []byte(fmt.Sprintf("%d", newRetryCount))

	// Keep retry counter for longer to track across retries
	err := s.redis.Set(retryKey, retryValue, s.config.DispatchedTTL)
	if err != nil {
		logger.Error("Failed to increment retry counter", "event_id", eventID, "error", err)
	}

	// Step 2: Remove lock to allow retry
	lockKey := s.config.LockKeyPrefix + eventID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to remove lock", "event_id", eventID, "error", err)
	}

	logger.Warn("Event dispatch failed, will retry",
		"event_id", eventID,
		"retry_count", newRetryCount,
		"max_retries", s.config.MaxRetries,
		"reason", reason)

	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, dc *DispatchContext) error {
	if dc == nil || !dc.lockAcquired {
		return nil
	}

	lockKey := s.config.LockKeyPrefix + dc.EventID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to release lock", "event_id", dc.EventID, "error", err)
		return err
	}

	dc.lockAcquired = false
	logger.Debug("Dispatch lock released", "event_id", dc.EventID)
	return nil
}

func (s *IdempotencyService) cleanup(ctx context.Context, dc *DispatchContext) {
	eventID := dc.EventID

	// Remove lock
	lockKey := s.config.LockKeyPrefix + eventID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to cleanup lock", "event_id", eventID, "error", err)
	}

	// Remove retry counter (no longer needed)
	retryKey := s.config.RetryKeyPrefix + eventID
	if err := s.redis.Del(retryKey); err != nil {
		logger.Warn("Failed to cleanup retry counter", "event_id", eventID, "error", err)
	}

	dc.lockAcquired = false
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, eventID string) (int, error) {
	retryKey := s.config.RetryKeyPrefix + eventID
	retryCountBytes, err := s.redis.Get(retryKey)
	if err != nil {
		if err == redis.NilError {
			return 0, nil
		}
		return 0, err
	}

	retryCount := 0
	fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	return retryCount, nil
}

func (s *IdempotencyService) IsDispatched(ctx context.Context, eventID string) (bool, error) {
	dispatchedKey := s.config.DispatchedKeyPrefix + eventID
	exists, err := s.redis.Exist(dispatchedKey)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
