package services

import (
	"context"
	"sync"

	"policybook/internal/database"
	"policybook/internal/logger"

	"gorm.io/gorm"
)

type txKey struct{}

type txState struct {
	tx *gorm.DB

	mu          sync.Mutex
	afterCommit []func(ctx context.Context)
}

type TransactionService struct {
	db  database.DB
	log logger.Logger
}

func NewTransactionService(db database.DB) *TransactionService {
	return &TransactionService{
		db:  db,
		log: logger.New("TransactionService"),
	}
}

// Execute runs fn inside one database transaction. Repositories called with
// txCtx join it through GetTransaction. A nested Execute reuses the outer
// transaction. Hooks registered with AfterCommit run once the outermost
// transaction has committed and are dropped on rollback.
func (s *TransactionService) Execute(
	ctx context.Context,
	fn func(txCtx context.Context) error,
) error {
	if _, ok := GetTransaction(ctx); ok {
		return fn(ctx)
	}

	state := &txState{}
	err := s.db.SQLWithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state.tx = tx
		return fn(context.WithValue(ctx, txKey{}, state))
	})
	if err != nil {
		return err
	}

	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range state.hooks() {
		hook(hookCtx)
	}
	return nil
}

func GetTransaction(ctx context.Context) (*gorm.DB, bool) {
	state, ok := ctx.Value(txKey{}).(*txState)
	if !ok || state == nil || state.tx == nil {
		return nil, false
	}
	return state.tx, true
}

// AfterCommit defers fn until the transaction carried by ctx commits. Outside
// a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	state, ok := ctx.Value(txKey{}).(*txState)
	if !ok || state == nil {
		fn(ctx)
		return
	}

	state.mu.Lock()
	state.afterCommit = append(state.afterCommit, fn)
	state.mu.Unlock()
}

func (s *txState) hooks() []func(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.afterCommit
}
