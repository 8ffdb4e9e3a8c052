package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountStats(t *testing.T) {
	db := NewTestDB(t)
	repo := NewPostgresDashboardRepository(db)
	claims := NewPostgresClaimRepository(db)
	ctx := context.Background()

	myLost := seedItem(t, db, models.StatusLost, "alice", "blue backpack")
	myFound := seedItem(t, db, models.StatusFound, "alice", "calculator")
	seedItem(t, db, models.StatusReunited, "alice", "old phone")
	theirFound := seedItem(t, db, models.StatusFound, "bob", "blue backpack")
	theirLost := seedItem(t, db, models.StatusLost, "carol", "calculator")

	// Two pending claims on the same lost item count once.
	_, err := claims.CreatePendingClaim(ctx, myLost.ID, theirFound.ID, "alice@example.com")
	require.NoError(t, err)
	_, err = claims.CreatePendingClaim(ctx, myLost.ID, theirFound.ID, "alice@example.com")
	require.NoError(t, err)
	_, err = claims.CreatePendingClaim(ctx, theirLost.ID, myFound.ID, "carol@example.com")
	require.NoError(t, err)

	stats, err := repo.CountStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ActiveReports)
	assert.Equal(t, int64(2), stats.ItemsWithMatches)
	assert.Equal(t, int64(1), stats.ItemsResolved)
}

func TestItemsByStatusAndRecent(t *testing.T) {
	db := NewTestDB(t)
	repo := NewPostgresDashboardRepository(db)
	ctx := context.Background()

	older := seedItem(t, db, models.StatusLost, "alice", "umbrella")
	newer := seedItem(t, db, models.StatusReunited, "alice", "headphones")
	require.NoError(t, db.Model(newer).Update("item_date", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)).Error)
	seedItem(t, db, models.StatusFound, "alice", "water bottle")
	seedItem(t, db, models.StatusLost, "bob", "not mine")

	lost, err := repo.ItemsByStatus(ctx, "alice", models.StatusLost, models.StatusReunited)
	require.NoError(t, err)
	require.Len(t, lost, 2)
	assert.Equal(t, newer.ID, lost[0].ID)
	assert.Equal(t, older.ID, lost[1].ID)

	recent, err := repo.RecentItems(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
	assert.Equal(t, newer.ID, recent[0].ID)
}
