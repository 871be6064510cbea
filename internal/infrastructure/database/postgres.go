package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sangkips/pos-api/internal/config"
	"github.com/sangkips/pos-api/internal/domain/entity"
	applog "github.com/sangkips/pos-api/pkg/logger"
	"github.com/sangkips/pos-api/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(GormLogLevel(logLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	return db, nil
}

// GormLogLevel maps LOG_LEVEL onto gorm's SQL logger. SQL is only echoed
// at debug.
func GormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error", "fatal", "panic":
		return logger.Error
	case "disabled", "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}

// Models lists every table the service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&entity.User{},
		&entity.Customer{},

		// Catalog read models
		&entity.Category{},
		&entity.Brand{},
		&entity.Product{},
		&entity.ProductVariation{},
		&entity.Discount{},
		&entity.PaymentMethod{},

		// Inventory
		&entity.ProductStock{},
		&entity.StockMovement{},

		// Sales
		&entity.PosOrder{},
		&entity.PosOrderItem{},
		&entity.PosPayment{},

		// System entities
		&entity.IdempotencyKey{},
	}
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// DefaultPaymentMethods are created on first boot so the till can take money.
var DefaultPaymentMethods = []string{"Cash", "Card", "Bank Transfer", "Mobile Money"}

// SeedDefaultData creates the default payment methods and, when configured,
// the first cashier account. Existing rows are left alone.
func SeedDefaultData(ctx context.Context, db *gorm.DB, admin config.AdminConfig, log *applog.Logger) error {
	db = db.WithContext(ctx)

	for _, name := range DefaultPaymentMethods {
		var existing entity.PaymentMethod
		err := db.Where("name = ?", name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("look up payment method %s: %w", name, err)
		}
		if err := db.Create(&entity.PaymentMethod{Name: name, IsActive: true}).Error; err != nil {
			return fmt.Errorf("create payment method %s: %w", name, err)
		}
	}

	if admin.Email == "" || admin.Password == "" {
		return nil
	}

	var existing entity.User
	err := db.Where("LOWER(email) = ?", strings.ToLower(admin.Email)).First(&existing).Error
	if err == nil {
		log.Event(ctx, zerolog.DebugLevel).Str("email", admin.Email).Msg("admin user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up admin user: %w", err)
	}

	hashed, err := utils.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	firstName, lastName := splitName(admin.Name)
	user := entity.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     admin.Email,
		Password:  hashed,
		IsActive:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Event(ctx, zerolog.InfoLevel).Str("email", admin.Email).Msg("admin user created")
	return nil
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Admin", ""
	}
	first, last, _ := strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}
