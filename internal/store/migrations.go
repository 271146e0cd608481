package store

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "001_entries",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Entry{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("entries")
			},
		},
		{
			ID: "002_preferences",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Preference{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("preferences")
			},
		},
	})
	return m.Migrate()
}
