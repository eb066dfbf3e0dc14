package repositories

import (
	"context"
	"testing"
	"time"

	"policybook/internal/database"
	. "policybook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRepository_ListNewestFirst(t *testing.T) {
	repo := NewHistory(database.NewTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	userID := 1
	entries := []HistoryEntry{
		{ContractID: 7, UserID: &userID, Username: "ada", Action: ActionCreated, CreatedAt: base},
		{ContractID: 7, Username: "ada", Action: ActionArchived, CreatedAt: base.Add(time.Minute)},
		{ContractID: 7, Username: "ada", Action: ActionRestored, CreatedAt: base.Add(time.Minute)},
		{ContractID: 8, Username: "bob", Action: ActionCreated, CreatedAt: base},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	got, err := repo.ListByContractID(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ActionRestored, got[0].Action)
	assert.Equal(t, ActionArchived, got[1].Action)
	assert.Equal(t, ActionCreated, got[2].Action)
	require.NotNil(t, got[2].UserID)
	assert.Equal(t, 1, *got[2].UserID)
	assert.Nil(t, got[0].UserID)

	count, err := repo.CountByContractID(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	none, err := repo.ListByContractID(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}
