package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dailypush/internal/domain/entity"
	"dailypush/internal/domain/service"
	"dailypush/internal/errors"

	"github.com/redis/go-redis/v9"
)

// readReceiptTTL outlives the retry window by a wide margin; receipts only
// matter on the day they were written.
const readReceiptTTL = 48 * time.Hour

func readKey(userID string, date time.Time) string {
	return fmt.Sprintf("dailypush:read:%s:%s", userID, entity.DateKey(date))
}

type redisReadReceipts struct {
	client *redis.Client
	logger *slog.Logger
}

// NewReadReceiptStore builds the read-receipt store. A nil client selects
// the in-memory implementation.
func NewReadReceiptStore(client *redis.Client, logger *slog.Logger) service.ReadReceiptStore {
	if client == nil {
		logger.Warn("using in-memory read receipts, receipts are not shared across processes")

		return &memoryReadReceipts{receipts: make(map[string]struct{})}
	}

	return &redisReadReceipts{client: client, logger: logger}
}

func (s *redisReadReceipts) MarkRead(ctx context.Context, userID string, date time.Time) error {
	if userID == "" {
		return errors.New("user id is empty")
	}

	if err := s.client.Set(ctx, readKey(userID, date), time.Now().UTC().Format(time.RFC3339), readReceiptTTL).Err(); err != nil {
		return errors.Wrap(err, "mark read")
	}

	return nil
}

func (s *redisReadReceipts) IsRead(ctx context.Context, userID string, date time.Time) (bool, error) {
	if userID == "" {
		return false, errors.New("user id is empty")
	}

	exists, err := s.client.Exists(ctx, readKey(userID, date)).Result()
	if err != nil {
		return false, errors.Wrap(err, "read receipt lookup")
	}

	return exists > 0, nil
}

type memoryReadReceipts struct {
	mu       sync.Mutex
	receipts map[string]struct{}
}

func (s *memoryReadReceipts) MarkRead(_ context.Context, userID string, date time.Time) error {
	if userID == "" {
		return errors.New("user id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[readKey(userID, date)] = struct{}{}

	return nil
}

func (s *memoryReadReceipts) IsRead(_ context.Context, userID string, date time.Time) (bool, error) {
	if userID == "" {
		return false, errors.New("user id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.receipts[readKey(userID, date)]

	return ok, nil
}
