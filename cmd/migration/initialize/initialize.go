package initialize

import (
	"errors"

	"policybook/config"
	"policybook/internal/logger"
	. "policybook/internal/models"

	"gorm.io/gorm"
)

// InitializeTables creates the configured admin account when it does not exist
// yet. Existing accounts are never modified.
func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	var existing User
	err := db.First(&existing, "login = ?", config.AdminLogin).Error
	switch {
	case err == nil:
		log.Info("Admin user already exists", "login", config.AdminLogin)
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return log.Err("failed to look up admin user", err, "login", config.AdminLogin)
	}

	if config.AdminPassword == "" {
		log.Warn("ADMIN_PASSWORD is empty, no admin user created", "login", config.AdminLogin)
		return nil
	}

	admin := User{
		Login:       config.AdminLogin,
		DisplayName: "Administrator",
		Role:        RoleAdmin,
		Password:    config.AdminPassword,
	}
	if err := db.Create(&admin).Error; err != nil {
		return log.Err("failed to create admin user", err, "login", config.AdminLogin)
	}

	log.Info("Table initialization complete", "admin", admin.Login)
	return nil
}
