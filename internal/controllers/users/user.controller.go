package userController

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"policybook/internal/common"
	"policybook/internal/logger"
	. "policybook/internal/models"
	"policybook/internal/repositories"
	"policybook/internal/services"
)

var ErrInvalidCredentials = fmt.Errorf("invalid login or password: %w", common.ErrUnauthenticated)

type SessionStore interface {
	Create(ctx context.Context, user User) (services.Session, error)
	Delete(ctx context.Context, id string) error
}

type UserController struct {
	userRepo repositories.UserRepository
	sessions SessionStore
	log      logger.Logger
}

func New(userRepo repositories.UserRepository, sessions SessionStore) *UserController {
	return &UserController{
		userRepo: userRepo,
		sessions: sessions,
		log:      logger.New("UserController"),
	}
}

// Login checks the password and opens a session. Unknown logins and wrong
// passwords fail the same way.
func (uc *UserController) Login(ctx context.Context, request LoginRequest) (User, services.Session, error) {
	log := uc.log.Function("Login")

	login := strings.TrimSpace(request.Login)
	if login == "" || request.Password == "" {
		return User{}, services.Session{}, &common.ValidationError{Fields: []string{"login", "password"}}
	}

	user, err := uc.userRepo.GetByLogin(ctx, login)
	if errors.Is(err, common.ErrNotFound) {
		log.Warn("login for unknown user", "login", login)
		return User{}, services.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, services.Session{}, log.Err("failed to load user", err, "login", login)
	}

	if !user.CheckPassword(request.Password) {
		log.Warn("wrong password", "login", login)
		return User{}, services.Session{}, ErrInvalidCredentials
	}

	session, err := uc.sessions.Create(ctx, *user)
	if err != nil {
		return User{}, services.Session{}, log.Err("failed to create session", err, "login", login)
	}

	log.Info("user logged in", "login", login, "role", user.Role)
	return *user, session, nil
}

func (uc *UserController) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return uc.log.Function("Logout").Err("failed to end session", err)
	}
	return nil
}

func (uc *UserController) Me(ctx context.Context, actor Actor) (*User, error) {
	if actor.UserID == nil {
		return nil, common.ErrUnauthenticated
	}

	user, err := uc.userRepo.GetByID(ctx, *actor.UserID)
	if err != nil {
		return nil, uc.log.Function("Me").Err("failed to load user", err, "userID", *actor.UserID)
	}
	return user, nil
}
