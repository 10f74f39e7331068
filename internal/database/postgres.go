package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-mastery-api/internal/models"
)

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the tables owned by the mastery engine.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Curriculum{},
		&models.Unit{},
		&models.LearningObjective{},
		&models.Assessment{},
		&models.Question{},
		&models.Response{},
		&models.MasteryAttempt{},
		&models.Progress{},
	)
}
