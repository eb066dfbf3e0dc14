package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"policybook/internal/database"
	. "policybook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	mu      sync.Mutex
	entries []HistoryEntry
	err     error
	ctxErr  error
}

func (f *fakeHistory) Create(ctx context.Context, entry *HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return f.err
	}
	entry.ID = len(f.entries) + 1
	f.entries = append(f.entries, *entry)
	return nil
}

func TestAuditService_Record(t *testing.T) {
	history := &fakeHistory{}
	fixed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	audit := NewAuditService(history).WithClock(func() time.Time { return fixed })

	userID := 3
	actor := Actor{UserID: &userID, Login: "ada", Role: RoleManager}
	audit.Record(context.Background(), 11, actor, ActionCreated, DetailsFor(ActionCreated))

	require.Len(t, history.entries, 1)
	entry := history.entries[0]
	assert.Equal(t, 11, entry.ContractID)
	assert.Equal(t, &userID, entry.UserID)
	assert.Equal(t, "ada", entry.Username)
	assert.Equal(t, ActionCreated, entry.Action)
	assert.Equal(t, "contract created", entry.Details)
	assert.Equal(t, fixed, entry.CreatedAt)
}

func TestAuditService_FailureIsSwallowed(t *testing.T) {
	history := &fakeHistory{err: errors.New("disk full")}
	audit := NewAuditService(history)

	assert.NotPanics(t, func() {
		audit.Record(context.Background(), 1, SystemActor(), ActionDeleted, DetailsFor(ActionDeleted))
	})
	assert.Empty(t, history.entries)
}

func TestAuditService_SurvivesCancelledRequest(t *testing.T) {
	history := &fakeHistory{}
	audit := NewAuditService(history)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	audit.Record(ctx, 1, SystemActor(), ActionArchived, DetailsFor(ActionArchived))

	require.Len(t, history.entries, 1)
	assert.NoError(t, history.ctxErr)
}

func TestDetailsFor(t *testing.T) {
	assert.Equal(t, "contract archived", DetailsFor(ActionArchived))
	assert.Equal(t, "contract restored", DetailsFor(ActionRestored))
	assert.Equal(t, "contract deleted", DetailsFor(ActionDeleted))
	assert.Empty(t, DetailsFor(ActionUpdated))
	assert.Equal(t, "a; b", JoinChanges([]string{"a", "b"}))
}

func TestTransactionService_CommitAndRollback(t *testing.T) {
	db := database.NewTestDB(t)
	txService := NewTransactionService(db)
	ctx := context.Background()

	insert := func(txCtx context.Context, login string) error {
		tx, ok := GetTransaction(txCtx)
		require.True(t, ok)
		return tx.Create(&User{Login: login, Role: RoleViewer, PasswordHash: "x"}).Error
	}

	err := txService.Execute(ctx, func(txCtx context.Context) error {
		return insert(txCtx, "kept")
	})
	require.NoError(t, err)

	err = txService.Execute(ctx, func(txCtx context.Context) error {
		if err := insert(txCtx, "dropped"); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	var logins []string
	require.NoError(t, db.SQL.Model(&User{}).Order("login").Pluck("login", &logins).Error)
	assert.Equal(t, []string{"kept"}, logins)
}

func TestTransactionService_NestedReusesOuter(t *testing.T) {
	db := database.NewTestDB(t)
	txService := NewTransactionService(db)

	err := txService.Execute(context.Background(), func(outer context.Context) error {
		outerTx, _ := GetTransaction(outer)
		return txService.Execute(outer, func(inner context.Context) error {
			innerTx, ok := GetTransaction(inner)
			assert.True(t, ok)
			assert.Same(t, outerTx, innerTx)
			return nil
		})
	})
	assert.NoError(t, err)

	_, ok := GetTransaction(context.Background())
	assert.False(t, ok)
}

func TestTransactionService_AfterCommit(t *testing.T) {
	db := database.NewTestDB(t)
	txService := NewTransactionService(db)
	ctx := context.Background()

	var events []string
	err := txService.Execute(ctx, func(outer context.Context) error {
		return txService.Execute(outer, func(inner context.Context) error {
			tx, _ := GetTransaction(inner)
			if err := tx.Create(&User{Login: "kept", Role: RoleViewer, PasswordHash: "x"}).Error; err != nil {
				return err
			}
			AfterCommit(inner, func(context.Context) {
				var count int64
				db.SQL.Model(&User{}).Where("login = ?", "kept").Count(&count)
				events = append(events, fmt.Sprintf("hook sees %d", count))
			})
			events = append(events, "body done")
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"body done", "hook sees 1"}, events)

	ran := false
	err = txService.Execute(ctx, func(txCtx context.Context) error {
		AfterCommit(txCtx, func(context.Context) { ran = true })
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.False(t, ran, "hooks are dropped on rollback")

	AfterCommit(ctx, func(context.Context) { ran = true })
	assert.True(t, ran, "outside a transaction the hook runs immediately")
}

func TestSessionService_WithoutCacheNeverFindsSessions(t *testing.T) {
	sessions := NewSessionService(database.DB{}, time.Hour)
	ctx := context.Background()

	session, err := sessions.Create(ctx, User{BaseModel: BaseModel{ID: 2}, Login: "ada", Role: RoleAdmin})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, RoleAdmin, session.Actor().Role)

	_, found, err := sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = sessions.Get(ctx, "")
	require.NoError(t, err)
	assert.False(t, found)
}

type countingPurger struct {
	calls int
	err   error
}

func (c *countingPurger) PurgeExpired(ctx context.Context) (int64, error) {
	c.calls++
	return 2, c.err
}

func TestSchedulerService(t *testing.T) {
	purger := &countingPurger{}
	scheduler := NewSchedulerService(purger)

	assert.Error(t, scheduler.Start("not a schedule"))

	scheduler.purgeTasks()
	purger.err = errors.New("locked")
	scheduler.purgeTasks()
	assert.Equal(t, 2, purger.calls)

	require.NoError(t, scheduler.Start("@every 1h"))
	scheduler.Stop()
}
