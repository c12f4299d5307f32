package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenchan000517/novel-sub005/internal/story"
)

// newSearchService processes four chapters so the recency tiers hold
// distinct content. The latest chapter is 4.
func newSearchService(t *testing.T) *Service {
	t.Helper()

	svc, _ := newTestService(t,
		story.Character{ID: "char-1", Name: "Aria", Type: story.TypeMain},
		story.Character{ID: "char-2", Name: "Brim", Type: story.TypeSub},
	)

	ctx := context.Background()
	chapters := []ChapterRecord{
		{Number: 1, Text: "Aria found the ledger. Brim burned it.", CharacterIDs: []string{"char-1", "char-2"}},
		{Number: 2, Text: "Brim denied everything.", CharacterIDs: []string{"char-2"}},
		{Number: 3, Text: "Aria confronted Brim about the ledger.", CharacterIDs: []string{"char-1", "char-2"}},
		{Number: 4, Text: "Aria left the city. Aria, always Aria, they whispered.", CharacterIDs: []string{"char-1"}},
	}
	for _, rec := range chapters {
		_, err := svc.ProcessChapter(ctx, rec)
		require.NoError(t, err)
	}
	return svc
}

func TestProcessChapter_Result(t *testing.T) {
	svc, _ := newTestService(t,
		story.Character{ID: "char-1", Name: "Aria", Type: story.TypeMain},
	)

	res, err := svc.ProcessChapter(context.Background(), ChapterRecord{
		Number:       1,
		Text:         "Aria waited. Nobody came.",
		CharacterIDs: []string{"char-1", "char-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"char-1"}, res.CharacterIDs)
	assert.Equal(t, 1, res.Memories)
	assert.Positive(t, res.Duration)
}

func TestUnifiedSearch_AllTiers(t *testing.T) {
	svc := newSearchService(t)

	got, err := svc.UnifiedSearch(context.Background(), "ledger")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Equal scores order newest chapter first, then character ID.
	assert.Equal(t, "char-1", got[0].CharacterID)
	assert.Equal(t, 3, got[0].Chapter)
	assert.Equal(t, "char-2", got[1].CharacterID)
	assert.Equal(t, 3, got[1].Chapter)
	assert.Equal(t, 1, got[2].Chapter)
}

func TestUnifiedSearch_ScoreOrdersFirst(t *testing.T) {
	svc := newSearchService(t)

	got, err := svc.UnifiedSearch(context.Background(), "aria")
	require.NoError(t, err)
	require.NotEmpty(t, got)

	assert.Equal(t, "Aria, always Aria, they whispered.", got[0].Text)
	assert.Equal(t, 2.0, got[0].Score)
	for _, r := range got[1:] {
		assert.Equal(t, 1.0, r.Score)
	}
}

func TestUnifiedSearch_ShortTier(t *testing.T) {
	svc := newSearchService(t)

	got, err := svc.UnifiedSearch(context.Background(), "ledger", LevelShort)
	require.NoError(t, err)
	assert.Empty(t, got, "the ledger is never mentioned in the latest chapter")

	got, err = svc.UnifiedSearch(context.Background(), "aria", LevelShort)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, 4, r.Chapter)
	}
}

func TestUnifiedSearch_MidTier(t *testing.T) {
	svc := newSearchService(t)

	got, err := svc.UnifiedSearch(context.Background(), "ledger", LevelMid)
	require.NoError(t, err)
	require.Len(t, got, 2, "the mid tier starts at chapter 2")
	for _, r := range got {
		assert.Equal(t, 3, r.Chapter)
	}
}

func TestUnifiedSearch_TiersUnion(t *testing.T) {
	svc := newSearchService(t)

	short, err := svc.UnifiedSearch(context.Background(), "ledger", LevelShort, LevelLong)
	require.NoError(t, err)
	all, err := svc.UnifiedSearch(context.Background(), "ledger")
	require.NoError(t, err)
	assert.Equal(t, all, short, "adding the long tier widens the search to everything")
}

func TestUnifiedSearch_UnknownTier(t *testing.T) {
	svc := newSearchService(t)

	got, err := svc.UnifiedSearch(context.Background(), "ledger", Level("bogus"))
	require.NoError(t, err)
	assert.Len(t, got, 3, "unrecognized tiers fall back to everything")
}

func TestUnifiedSearch_EmptyQuery(t *testing.T) {
	svc := newSearchService(t)

	got, err := svc.UnifiedSearch(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnifiedSearch_CancelledContext(t *testing.T) {
	svc := newSearchService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.UnifiedSearch(ctx, "ledger")
	require.ErrorIs(t, err, context.Canceled)
}
