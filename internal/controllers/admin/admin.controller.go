package adminController

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"policybook/internal/common"
	"policybook/internal/logger"
	. "policybook/internal/models"
	"policybook/internal/repositories"
)

const minPasswordLength = 8

// AdminController manages user accounts. Every operation requires admin.
type AdminController struct {
	userRepo repositories.UserRepository
	log      logger.Logger
}

func New(userRepo repositories.UserRepository) *AdminController {
	return &AdminController{
		userRepo: userRepo,
		log:      logger.New("AdminController"),
	}
}

func (c *AdminController) ListUsers(ctx context.Context, actor Actor) ([]User, error) {
	log := c.log.Function("ListUsers")

	if err := Authorize(actor.Role, OpUsers); err != nil {
		log.Warn("permission denied", "user", actor.Login, "role", actor.Role)
		return nil, err
	}

	return c.userRepo.List(ctx)
}

func (c *AdminController) CreateUser(
	ctx context.Context,
	actor Actor,
	request CreateUserRequest,
) (*User, error) {
	log := c.log.Function("CreateUser")

	if err := Authorize(actor.Role, OpUsers); err != nil {
		log.Warn("permission denied", "user", actor.Login, "role", actor.Role)
		return nil, err
	}

	if err := validateUserRequest(&request); err != nil {
		return nil, err
	}

	_, err := c.userRepo.GetByLogin(ctx, request.Login)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: login %q is already taken", common.ErrConflict, request.Login)
	case !errors.Is(err, common.ErrNotFound):
		return nil, err
	}

	user := &User{
		Login:       request.Login,
		DisplayName: request.DisplayName,
		Role:        request.Role,
		Password:    request.Password,
	}
	if err := c.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Info("User created", "login", user.Login, "role", user.Role, "by", actor.Login)
	return user, nil
}

func validateUserRequest(request *CreateUserRequest) error {
	request.Login = strings.TrimSpace(request.Login)
	request.DisplayName = strings.TrimSpace(request.DisplayName)
	if request.DisplayName == "" {
		request.DisplayName = request.Login
	}

	var missing []string
	if request.Login == "" {
		missing = append(missing, "login")
	}
	if request.Password == "" {
		missing = append(missing, "password")
	}
	if request.Role == "" {
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		return &common.ValidationError{Fields: missing}
	}

	if !request.Role.Valid() {
		return &common.ValidationError{
			Fields:  []string{"role"},
			Message: fmt.Sprintf("unknown role %q", request.Role),
		}
	}
	if len(request.Password) < minPasswordLength {
		return &common.ValidationError{
			Fields:  []string{"password"},
			Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		}
	}

	return nil
}
