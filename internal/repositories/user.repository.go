package repositories

import (
	"context"
	"errors"

	"policybook/internal/common"
	"policybook/internal/database"
	"policybook/internal/logger"
	. "policybook/internal/models"
	"policybook/internal/services"

	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	Create(ctx context.Context, user *User) error
	List(ctx context.Context) ([]User, error)
}

type userRepository struct {
	db  database.DB
	log logger.Logger
}

func New(db database.DB) UserRepository {
	return &userRepository{
		db:  db,
		log: logger.New("userRepository"),
	}
}

func (r *userRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*User, error) {
	var user User
	err := r.getDB(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("user", id)
	}
	if err != nil {
		return nil, r.log.Function("GetByID").Err("failed to get user", err, "id", id)
	}
	return &user, nil
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*User, error) {
	var user User
	err := r.getDB(ctx).First(&user, "login = ?", login).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("user", login)
	}
	if err != nil {
		return nil, r.log.Function("GetByLogin").Err("failed to get user", err, "login", login)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *User) error {
	if err := r.getDB(ctx).Create(user).Error; err != nil {
		return r.log.Function("Create").Err("failed to create user", err, "login", user.Login)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := r.getDB(ctx).Order("login").Find(&users).Error; err != nil {
		return nil, r.log.Function("List").Err("failed to list users", err)
	}
	return users, nil
}
