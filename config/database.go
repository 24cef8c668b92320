package config

import (
	"fmt"

	"github.com/Azzc0/fika-guild.xyz/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(host, port, user, password, dbName string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for every persisted model. Tests run
// it against SQLite, the server against Postgres.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&repository.Raid{},
		&repository.Encounter{},
		&repository.EncounterEntity{},
		&repository.RaidSession{},
		&repository.SessionPart{},
		&repository.EncounterCompletion{},
		&repository.EntityDeath{},
		&repository.Loot{},
	)
}
