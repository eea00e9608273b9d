package database

import (
	"log"

	"komisi/config"
	"komisi/internal/domain"
	"komisi/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
		// Duplicate-key errors must surface as gorm.ErrDuplicatedKey so the
		// ledger can treat them as idempotent re-posts.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.AffiliateProfile{},
		&models.LegacyAffiliateMap{},
		&models.CommissionEntry{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.UnprocessedCommission{},
		&models.Payout{},
		&models.SystemSetting{},
		&models.AuditLog{},
	)
}

// SeedAdmin creates the initial admin account when ADMIN_PASSWORD is set and
// no user exists for the configured email.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig) {
	if cfg.Password == "" {
		return
	}
	var count int64
	db.Model(&models.User{}).Where("email = ?", cfg.Email).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[seed] admin password hash failed: %v", err)
		return
	}
	admin := &models.User{
		Name:         "Administrator",
		Email:        cfg.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		log.Printf("[seed] admin creation failed: %v", err)
		return
	}
	log.Printf("[seed] admin account created: %s", cfg.Email)
}
