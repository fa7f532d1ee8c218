package database

import (
	"os"

	"teambot/internal/model"
	"teambot/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin creates the initial admin account from SEED_ADMIN_* env vars if
// no admin exists yet. Without an admin nobody can run receipt validation.
func SeedAdmin(db *gorm.DB) {
	var cnt int64
	db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&cnt)
	if cnt > 0 {
		return
	}

	username := os.Getenv("SEED_ADMIN_USERNAME")
	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if username == "" || email == "" || password == "" {
		logger.Warn("no admin user exists and SEED_ADMIN_* vars are unset, skipping seed")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash seed admin password: " + err.Error())
		return
	}

	admin := model.User{
		Username:  username,
		FirstName: "Admin",
		LastName:  "Admin",
		Email:     email,
		Password:  string(hashed),
		Role:      model.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		logger.Error("failed to seed admin user: " + err.Error())
		return
	}
	logger.Info("seeded initial admin user " + username)
}
