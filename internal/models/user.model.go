package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	BaseModel
	Login        string `gorm:"type:text;not null;uniqueIndex" json:"login"`
	DisplayName  string `gorm:"type:text;not null;default:''"  json:"displayName"`
	Role         Role   `gorm:"type:text;not null"             json:"role"`
	PasswordHash string `gorm:"type:text;not null"             json:"-"`
	Password     string `gorm:"-"                              json:"-"`
}

func (User) TableName() string { return "users" }

// BeforeSave hashes a plaintext Password set by the caller and clears it.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	u.PasswordHash = string(hash)
	u.Password = ""
	return nil
}

func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u User) Actor() Actor {
	id := u.ID
	return Actor{UserID: &id, Login: u.Login, Role: u.Role}
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Login       string `json:"login"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
	Role        Role   `json:"role"`
}
