package services

import (
	"context"
	"strings"
	"time"

	"policybook/internal/logger"
	. "policybook/internal/models"
)

// HistoryWriter is the insert-only sink the recorder writes to.
type HistoryWriter interface {
	Create(ctx context.Context, entry *HistoryEntry) error
}

var fixedDetails = map[HistoryAction]string{
	ActionCreated:  "contract created",
	ActionArchived: "contract archived",
	ActionRestored: "contract restored",
	ActionDeleted:  "contract deleted",
}

// DetailsFor returns the fixed phrase recorded for non-update actions.
func DetailsFor(action HistoryAction) string {
	return fixedDetails[action]
}

func JoinChanges(changes []string) string {
	return strings.Join(changes, "; ")
}

// AuditService appends history entries on a best-effort basis. It is called
// after the mutation it documents has committed and never reports failure to
// the caller.
type AuditService struct {
	history HistoryWriter
	now     func() time.Time
	log     logger.Logger
}

func NewAuditService(history HistoryWriter) *AuditService {
	return &AuditService{
		history: history,
		now:     time.Now,
		log:     logger.New("AuditService"),
	}
}

func (s *AuditService) WithClock(now func() time.Time) *AuditService {
	s.now = now
	return s
}

func (s *AuditService) Record(
	ctx context.Context,
	contractID int,
	actor Actor,
	action HistoryAction,
	details string,
) {
	log := s.log.Function("Record")

	entry := &HistoryEntry{
		ContractID: contractID,
		UserID:     actor.UserID,
		Username:   actor.Login,
		Action:     action,
		Details:    details,
		CreatedAt:  s.now().UTC(),
	}

	// The caller may already be gone; the entry should still land.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.history.Create(writeCtx, entry); err != nil {
		log.Er("failed to write audit entry", err,
			"contractID", contractID,
			"action", action,
			"user", actor.Login)
		return
	}

	log.Debug("audit entry written", "contractID", contractID, "action", action, "entryID", entry.ID)
}
