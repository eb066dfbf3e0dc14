package taskController

import (
	"context"
	"testing"
	"time"

	"policybook/internal/common"
	"policybook/internal/database"
	. "policybook/internal/models"
	"policybook/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestController(t *testing.T) (*TaskController, *clock) {
	t.Helper()

	c := &clock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	controller := New(repositories.NewTask(database.NewTestDB(t)), 7*24*time.Hour).WithClock(c.Now)
	return controller, c
}

var (
	ona  = Actor{Login: "ona", Role: RoleViewer}
	bob  = Actor{Login: "bob", Role: RoleViewer}
	boss = Actor{Login: "boss", Role: RoleManager}
)

func TestCreate(t *testing.T) {
	controller, _ := newTestController(t)
	ctx := context.Background()

	task, err := controller.Create(ctx, ona, CreateTaskRequest{Title: " Renew POL-1 ", DueDate: "15.05.2026"})
	require.NoError(t, err)
	assert.Equal(t, "Renew POL-1", task.Title)
	assert.Equal(t, "ona", task.Assignee, "defaults to the creator")
	assert.Equal(t, "ona", task.Creator)
	assert.Equal(t, TaskPending, task.Status)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)))

	tests := []struct {
		name    string
		request CreateTaskRequest
	}{
		{"missing title", CreateTaskRequest{Title: "  "}},
		{"bad due date", CreateTaskRequest{Title: "x", DueDate: "someday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := controller.Create(ctx, ona, tt.request)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}

	_, err = controller.Create(ctx, Actor{Login: "anon"}, CreateTaskRequest{Title: "x"})
	assert.ErrorIs(t, err, common.ErrPermission)
}

func TestCompleteAndComment(t *testing.T) {
	controller, c := newTestController(t)
	ctx := context.Background()

	task, err := controller.Create(ctx, boss, CreateTaskRequest{Title: "Call client", Assignee: "ona"})
	require.NoError(t, err)

	_, err = controller.Complete(ctx, bob, task.ID)
	assert.ErrorIs(t, err, common.ErrPermission)

	commented, err := controller.AddComment(ctx, bob, task.ID, "I can help")
	require.NoError(t, err)
	require.Len(t, commented.Comments, 1)
	assert.Equal(t, "bob", commented.Comments[0].Author)

	done, err := controller.Complete(ctx, ona, task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	firstCompletion := *done.CompletedAt

	c.now = c.now.Add(time.Hour)
	again, err := controller.Complete(ctx, ona, task.ID)
	require.NoError(t, err)
	assert.True(t, again.CompletedAt.Equal(firstCompletion))

	_, err = controller.AddComment(ctx, ona, task.ID, " ")
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = controller.Complete(ctx, ona, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	controller, _ := newTestController(t)
	ctx := context.Background()

	task, err := controller.Create(ctx, ona, CreateTaskRequest{Title: "mine", Assignee: "bob"})
	require.NoError(t, err)

	assert.ErrorIs(t, controller.Delete(ctx, bob, task.ID), common.ErrPermission, "assignee cannot delete")
	require.NoError(t, controller.Delete(ctx, ona, task.ID))
	assert.ErrorIs(t, controller.Delete(ctx, ona, task.ID), common.ErrNotFound)

	other, err := controller.Create(ctx, bob, CreateTaskRequest{Title: "his"})
	require.NoError(t, err)
	assert.NoError(t, controller.Delete(ctx, boss, other.ID))
}

func TestList_PurgesExpiredCompletedTasks(t *testing.T) {
	controller, c := newTestController(t)
	ctx := context.Background()

	old, err := controller.Create(ctx, ona, CreateTaskRequest{Title: "old"})
	require.NoError(t, err)
	_, err = controller.Complete(ctx, ona, old.ID)
	require.NoError(t, err)

	c.now = c.now.AddDate(0, 0, 5)
	recent, err := controller.Create(ctx, ona, CreateTaskRequest{Title: "recent"})
	require.NoError(t, err)
	_, err = controller.Complete(ctx, ona, recent.ID)
	require.NoError(t, err)
	_, err = controller.Create(ctx, ona, CreateTaskRequest{Title: "open"})
	require.NoError(t, err)

	tasks, err := controller.List(ctx, ona, "")
	require.NoError(t, err)
	assert.Len(t, tasks, 3)

	c.now = c.now.AddDate(0, 0, 3)
	tasks, err = controller.List(ctx, ona, "ona")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "open", tasks[0].Title)
	assert.Equal(t, "recent", tasks[1].Title)

	purged, err := controller.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, purged)
}
