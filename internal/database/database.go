package database

import (
	"sync"
	"time"

	"github.com/princeprakhar/foodiespace-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	once     sync.Once
	instance *gorm.DB
	openErr  error
)

// Connect opens the database once per process and migrates the schema. Later calls, including
// concurrent ones, return the same handle.
func Connect(databaseURL string, production bool) (*gorm.DB, error) {
	once.Do(func() {
		instance, openErr = open(databaseURL, production)
	})
	return instance, openErr
}

func open(databaseURL string, production bool) (*gorm.DB, error) {
	logLevel := logger.Info
	if production {
		logLevel = logger.Warn
	}

	conn, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// Auto migrate schemas
	err = conn.AutoMigrate(
		&models.User{},
		&models.Review{},
	)
	if err != nil {
		return nil, err
	}

	return conn, nil
}
