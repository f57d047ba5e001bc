package database

import (
	"pastpapers-go/internal/model"

	"gorm.io/gorm"
)

// Migrate 自动迁移所有业务表。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Paper{},
		&model.Attachment{},
		&model.Download{},
	)
}
