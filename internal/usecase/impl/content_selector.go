// Package impl provides the concrete use case implementations.
package impl

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"dailypush/internal/domain/entity"
	"dailypush/internal/domain/repository"
	"dailypush/internal/errors"
	"dailypush/internal/usecase"
)

type contentSelector struct {
	contentRepo repository.ContentRepository
	count       int
	historyDays int
	logger      *slog.Logger
}

// NewContentSelector creates a new content selector instance
func NewContentSelector(
	contentRepo repository.ContentRepository,
	count int,
	historyDays int,
	logger *slog.Logger,
) usecase.ContentSelector {
	return &contentSelector{
		contentRepo: contentRepo,
		count:       count,
		historyDays: historyDays,
		logger:      logger,
	}
}

// SelectForDate returns the recorded selection for the date, or makes one.
// Every process computes the same candidate list for a date; the recorded
// selection is still authoritative so that concurrent first-callers converge.
func (s *contentSelector) SelectForDate(ctx context.Context, date time.Time) ([]*entity.DailyContent, error) {
	dateKey := entity.DateKey(date)

	ids, err := s.contentRepo.FindSelection(ctx, dateKey)
	switch {
	case err == nil:
		return s.contentRepo.FindContentsByIDs(ctx, ids)
	case !errors.Is(err, repository.ErrSelectionNotFound):
		return nil, errors.Wrap(err, "find selection")
	}

	pool, err := s.contentRepo.FindActiveContents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "find active contents")
	}
	if len(pool) == 0 {
		s.logger.WarnContext(ctx, "content pool is empty, nothing to push",
			slog.String("date", dateKey))

		return []*entity.DailyContent{}, nil
	}

	picked := s.pick(ctx, pool, date)

	winners, err := s.contentRepo.RecordSelection(ctx, dateKey, picked)
	if err != nil {
		return nil, errors.Wrap(err, "record selection")
	}

	return s.contentRepo.FindContentsByIDs(ctx, winners)
}

// pick chooses content IDs for the date: unused-within-history first, full
// pool as fallback, shuffled with a date-seeded generator so every node
// agrees without coordination.
func (s *contentSelector) pick(ctx context.Context, pool []*entity.DailyContent, date time.Time) []string {
	dateKey := entity.DateKey(date)
	from := entity.DateKey(date.AddDate(0, 0, -s.historyDays))
	to := entity.DateKey(date.AddDate(0, 0, -1))

	used := make(map[string]struct{})
	usedIDs, err := s.contentRepo.UsedContentIDs(ctx, from, to)
	if err != nil {
		// History is an exclusion heuristic; selection proceeds without it.
		s.logger.WarnContext(ctx, "content history lookup failed, ignoring history",
			slog.String("date", dateKey),
			slog.Any("error", err))
	}
	for _, id := range usedIDs {
		used[id] = struct{}{}
	}

	fresh := make([]*entity.DailyContent, 0, len(pool))
	for _, content := range pool {
		if _, ok := used[content.ID]; !ok {
			fresh = append(fresh, content)
		}
	}
	if len(fresh) < s.count {
		s.logger.InfoContext(ctx, "not enough unused content, falling back to full pool",
			slog.String("date", dateKey),
			slog.Int("fresh", len(fresh)),
			slog.Int("pool", len(pool)))
		fresh = pool
	}

	candidates := make([]*entity.DailyContent, len(fresh))
	copy(candidates, fresh)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	rng := rand.New(rand.NewSource(dateSeed(dateKey)))
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	count := s.count
	if count > len(candidates) {
		count = len(candidates)
	}

	ids := make([]string, 0, count)
	for _, content := range candidates[:count] {
		ids = append(ids, content.ID)
	}

	return ids
}

func dateSeed(dateKey string) int64 {
	h := fnv.New64a()
	h.Write([]byte(dateKey))

	return int64(h.Sum64())
}
