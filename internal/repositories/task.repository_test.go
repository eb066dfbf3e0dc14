package repositories

import (
	"context"
	"testing"
	"time"

	"policybook/internal/common"
	"policybook/internal/database"
	. "policybook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestTaskRepository_CRUD(t *testing.T) {
	repo := NewTask(database.NewTestDB(t))
	ctx := context.Background()

	task := &Task{Title: "Call client", Assignee: "ona", Creator: "ada", Status: TaskPending}
	require.NoError(t, repo.Create(ctx, task))
	require.NotZero(t, task.ID)

	task.Comments = append(task.Comments, TaskComment{Author: "ona", Text: "left voicemail", CreatedAt: time.Now().UTC()})
	require.NoError(t, repo.Update(ctx, task))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "left voicemail", got.Comments[0].Text)

	require.NoError(t, repo.Delete(ctx, task.ID))
	_, err = repo.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, task.ID), common.ErrNotFound)
}

func TestTaskRepository_ListOrderAndFilter(t *testing.T) {
	repo := NewTask(database.NewTestDB(t))
	ctx := context.Background()

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tasks := []*Task{
		{Title: "done", Assignee: "ona", Creator: "ada", Status: TaskCompleted, CompletedAt: timePtr(now)},
		{Title: "no due date", Assignee: "ona", Creator: "ada", Status: TaskPending},
		{Title: "due later", Assignee: "ona", Creator: "ada", Status: TaskPending, DueDate: timePtr(now.AddDate(0, 0, 5))},
		{Title: "due soon", Assignee: "ona", Creator: "ada", Status: TaskPending, DueDate: timePtr(now.AddDate(0, 0, 1))},
		{Title: "someone else", Assignee: "bob", Creator: "ada", Status: TaskPending},
	}
	for _, task := range tasks {
		require.NoError(t, repo.Create(ctx, task))
	}

	got, err := repo.List(ctx, "ona")
	require.NoError(t, err)

	var titles []string
	for _, task := range got {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"due soon", "due later", "no due date", "done"}, titles)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestTaskRepository_DeleteCompletedBefore(t *testing.T) {
	repo := NewTask(database.NewTestDB(t))
	ctx := context.Background()

	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	old := &Task{Title: "old", Assignee: "ona", Creator: "ada", Status: TaskCompleted, CompletedAt: timePtr(now.AddDate(0, 0, -8))}
	recent := &Task{Title: "recent", Assignee: "ona", Creator: "ada", Status: TaskCompleted, CompletedAt: timePtr(now.AddDate(0, 0, -2))}
	pending := &Task{Title: "pending", Assignee: "ona", Creator: "ada", Status: TaskPending}
	for _, task := range []*Task{old, recent, pending} {
		require.NoError(t, repo.Create(ctx, task))
	}

	purged, err := repo.DeleteCompletedBefore(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	remaining, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}
