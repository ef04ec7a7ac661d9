// Package stats computes chat usage statistics with a cache-aside
// layer over the message store. Cache failures are soft: they are
// logged and fall through to recomputation, never surfaced.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatinsight/insight-bot/internal/core/domain"
	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
	"github.com/chatinsight/insight-bot/internal/platform/observability"
	db "github.com/chatinsight/insight-bot/internal/storage"
)

const topUsersLimit = 10

// Store is the message-store surface the stats service reads from.
type Store interface {
	Aggregate(ctx context.Context, filter db.MessageFilter) (db.AggregateStats, error)
	TopUsers(ctx context.Context, limit int, filter db.MessageFilter) ([]domain.TopUser, error)
	UserByTGID(ctx context.Context, tgUserID int64) (*domain.User, error)
	CountMessagesByUser(ctx context.Context, userID int64, filter db.MessageFilter) (int64, error)
}

// Cache is the key-value surface used for cache-aside reads.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Service serves chat and user statistics.
type Service struct {
	store  Store
	cache  Cache
	ttl    time.Duration
	now    func() time.Time
	logger *zerolog.Logger
}

func New(store Store, cache Cache, ttl time.Duration, logger *zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// ChatStats returns aggregate statistics for a chat and period,
// reading through the cache.
func (s *Service) ChatStats(ctx context.Context, chatID int64, period string) (*domain.ChatStats, error) {
	key := chatStatsKey(chatID, period)

	var cached domain.ChatStats
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.computeChatStats(ctx, chatID, period)
	if err != nil {
		return nil, err
	}

	s.writeCache(ctx, key, result)

	return result, nil
}

// UserStats returns one user's statistics for a chat and period, or
// (nil, nil) when the user is unknown.
func (s *Service) UserStats(ctx context.Context, chatID, tgUserID int64, period string) (*domain.UserStats, error) {
	key := userStatsKey(chatID, tgUserID, period)

	var cached domain.UserStats
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.computeUserStats(ctx, chatID, tgUserID, period)
	if err != nil || result == nil {
		return result, err
	}

	s.writeCache(ctx, key, result)

	return result, nil
}

func (s *Service) computeChatStats(ctx context.Context, chatID int64, period string) (*domain.ChatStats, error) {
	filter, err := s.periodFilter(chatID, period)
	if err != nil {
		return nil, err
	}

	agg, err := s.store.Aggregate(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("compute chat stats: %w", err)
	}

	top, err := s.store.TopUsers(ctx, topUsersLimit, filter)
	if err != nil {
		return nil, fmt.Errorf("compute top users: %w", err)
	}

	return &domain.ChatStats{
		ChatID:        chatID,
		Period:        period,
		TotalMessages: agg.TotalMessages,
		TotalUsers:    agg.TotalUsers,
		TopUsers:      top,
		ComputedAt:    s.now(),
	}, nil
}

func (s *Service) computeUserStats(ctx context.Context, chatID, tgUserID int64, period string) (*domain.UserStats, error) {
	user, err := s.store.UserByTGID(ctx, tgUserID)
	if err != nil {
		if errors.Is(err, coreerrors.ErrUserNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("resolve user: %w", err)
	}

	filter, err := s.periodFilter(chatID, period)
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountMessagesByUser(ctx, user.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("compute user stats: %w", err)
	}

	return &domain.UserStats{
		ChatID:       chatID,
		UserID:       user.ID,
		TGUserID:     user.TGUserID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		Period:       period,
		MessageCount: count,
		ComputedAt:   s.now(),
	}, nil
}

func (s *Service) periodFilter(chatID int64, period string) (db.MessageFilter, error) {
	since, until, err := PeriodRange(period, s.now())
	if err != nil {
		return db.MessageFilter{}, err
	}

	return db.MessageFilter{ChatID: chatID, Since: since, Until: until}, nil
}

// readCache attempts a cache hit into target. Misses and cache-layer
// failures both return false; failures are logged, never propagated.
func (s *Service) readCache(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil {
		observability.StatsCacheReads.WithLabelValues(observability.OutcomeMiss).Inc()
		return false
	}

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, coreerrors.ErrCacheMiss) || errors.Is(err, coreerrors.ErrCacheDisabled) {
			observability.StatsCacheReads.WithLabelValues(observability.OutcomeMiss).Inc()
		} else {
			observability.StatsCacheReads.WithLabelValues(observability.OutcomeError).Inc()
			s.logger.Warn().Err(err).Str("key", key).Msg("stats cache read failed, recomputing")
		}

		return false
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		observability.StatsCacheReads.WithLabelValues(observability.OutcomeError).Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("stats cache entry corrupt, recomputing")

		return false
	}

	observability.StatsCacheReads.WithLabelValues(observability.OutcomeHit).Inc()

	return true
}

// writeCache stores the freshly computed value best-effort.
func (s *Service) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("stats cache encode failed")
		return
	}

	if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("stats cache write failed")
	}
}
