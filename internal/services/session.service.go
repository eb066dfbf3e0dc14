package services

import (
	"context"
	"time"

	"policybook/internal/database"
	"policybook/internal/logger"
	. "policybook/internal/models"

	"github.com/google/uuid"
)

type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"userId"`
	Login     string    `json:"login"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) Actor() Actor {
	id := s.UserID
	return Actor{UserID: &id, Login: s.Login, Role: s.Role}
}

// SessionService keeps sessions in the valkey session database, keyed by an
// opaque v7 UUID handed to the browser as a cookie.
type SessionService struct {
	cache database.CacheClient
	ttl   time.Duration
	log   logger.Logger
}

func NewSessionService(db database.DB, ttl time.Duration) *SessionService {
	return &SessionService{
		cache: db.Cache.Session,
		ttl:   ttl,
		log:   logger.New("SessionService"),
	}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *SessionService) Create(ctx context.Context, user User) (Session, error) {
	log := s.log.Function("Create")

	id, err := uuid.NewV7()
	if err != nil {
		return Session{}, log.Err("failed to generate session id", err)
	}

	session := Session{
		ID:        id.String(),
		UserID:    user.ID,
		Login:     user.Login,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	if err := database.NewCacheBuilder(s.cache, sessionKey(session.ID)).
		WithStruct(session).
		WithTTL(s.ttl).
		WithContext(ctx).
		Set(); err != nil {
		return Session{}, log.Err("failed to store session", err, "userID", user.ID)
	}

	return session, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (Session, bool, error) {
	if id == "" {
		return Session{}, false, nil
	}

	var session Session
	found, err := database.NewCacheBuilder(s.cache, sessionKey(id)).WithContext(ctx).Get(&session)
	if err != nil {
		return Session{}, false, s.log.Function("Get").Err("failed to load session", err)
	}
	if !found || time.Now().After(session.ExpiresAt) {
		return Session{}, false, nil
	}

	return session, true, nil
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := database.NewCacheBuilder(s.cache, sessionKey(id)).WithContext(ctx).Delete(); err != nil {
		return s.log.Function("Delete").Err("failed to delete session", err)
	}
	return nil
}
