package impl

import (
	"context"
	"testing"
	"time"

	"dailypush/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeContent(id string) *entity.DailyContent {
	return &entity.DailyContent{
		ID:       id,
		IsActive: true,
		Localized: map[string]entity.LocalizedText{
			"en": {Title: "Title " + id, Body: "Body " + id},
		},
	}
}

func TestSelectForDate_DeterministicForDate(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	pool := []*entity.DailyContent{
		makeContent("c1"), makeContent("c2"), makeContent("c3"),
		makeContent("c4"), makeContent("c5"),
	}

	repoA := newFakeContentRepo(pool...)
	repoB := newFakeContentRepo(pool...)
	selectorA := NewContentSelector(repoA, 2, 7, testLogger())
	selectorB := NewContentSelector(repoB, 2, 7, testLogger())

	first, err := selectorA.SelectForDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// An independent process with the same pool and no recorded selection
	// computes the identical picks.
	second, err := selectorB.SelectForDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)

	// A different date reshuffles.
	other, err := selectorA.SelectForDate(ctx, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, other, 2)
}

func TestSelectForDate_ReturnsRecordedSelection(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	repo := newFakeContentRepo(makeContent("c1"), makeContent("c2"), makeContent("c3"))
	repo.selections["2026-08-31"] = []string{"c3", "c1"}

	selector := NewContentSelector(repo, 2, 7, testLogger())

	contents, err := selector.SelectForDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, contents, 2)
	assert.Equal(t, "c3", contents[0].ID)
	assert.Equal(t, "c1", contents[1].ID)
	assert.Zero(t, repo.recordCalls, "an existing selection is never re-recorded")
}

func TestSelectForDate_ExcludesRecentHistory(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	repo := newFakeContentRepo(makeContent("c1"), makeContent("c2"), makeContent("c3"))
	repo.selections["2026-08-30"] = []string{"c1", "c2"}

	selector := NewContentSelector(repo, 1, 7, testLogger())

	contents, err := selector.SelectForDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "c3", contents[0].ID, "only the unused content is eligible")
}

func TestSelectForDate_HistoryOutsideWindowIsEligible(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	repo := newFakeContentRepo(makeContent("c1"), makeContent("c2"))
	// Used eight days ago with a seven-day window.
	repo.selections["2026-08-23"] = []string{"c1"}

	selector := NewContentSelector(repo, 2, 7, testLogger())

	contents, err := selector.SelectForDate(ctx, date)
	require.NoError(t, err)
	assert.Len(t, contents, 2)
}

func TestSelectForDate_FallsBackToFullPool(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	repo := newFakeContentRepo(makeContent("c1"), makeContent("c2"))
	// Everything was used recently, fewer fresh items than requested.
	repo.selections["2026-08-30"] = []string{"c1", "c2"}

	selector := NewContentSelector(repo, 2, 7, testLogger())

	contents, err := selector.SelectForDate(ctx, date)
	require.NoError(t, err)
	assert.Len(t, contents, 2, "exhausted history falls back to the full pool")
}

func TestSelectForDate_EmptyPool(t *testing.T) {
	ctx := context.Background()
	repo := newFakeContentRepo()
	selector := NewContentSelector(repo, 2, 7, testLogger())

	contents, err := selector.SelectForDate(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, contents)
	assert.Zero(t, repo.recordCalls, "an empty pool records nothing")
}

func TestSelectForDate_ConcurrentRecorderWins(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	repo := newFakeContentRepo(makeContent("c1"), makeContent("c2"), makeContent("c3"))
	// Another process recorded the date between our read and our write.
	repo.raceWinner = []string{"c2"}

	selector := NewContentSelector(repo, 1, 7, testLogger())

	contents, err := selector.SelectForDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "c2", contents[0].ID, "the recorded selection is authoritative")
}

func TestSelectForDate_CountLargerThanPool(t *testing.T) {
	ctx := context.Background()
	repo := newFakeContentRepo(makeContent("c1"), makeContent("c2"))
	selector := NewContentSelector(repo, 5, 7, testLogger())

	contents, err := selector.SelectForDate(ctx, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, contents, 2)
}
