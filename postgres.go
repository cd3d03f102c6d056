package main

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aninishioka/craft-app/domain"
)

// DB provides the database connection.
type DB struct {
	// Object-relational mapping.
	Gorm *gorm.DB
	// Connection info string containing database name, user, port etc.
	ConnectionInfo string
}

// NewDB returns a new instance of DB.
func NewDB(connectionInfo string) *DB {
	return &DB{
		ConnectionInfo: connectionInfo,
	}
}

// Open opens a new database connection. It also configures logging
// based on whether we're in development or in production.
func Open(db *DB, isProd bool) (err error) {
	if db.ConnectionInfo == "" {
		return fmt.Errorf("connectionInfo required")
	}
	logMode := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if !isProd {
		logMode.Logger = logger.Default.LogMode(logger.Info)
	}
	db.Gorm, err = gorm.Open(postgres.Open(db.ConnectionInfo), logMode)
	if err != nil {
		return fmt.Errorf("err opening gorm postgres connection: %w", err)
	}
	return nil
}

// AutoMigrate runs database migrations for all tables and seeds the
// needle and hook size catalogs.
func AutoMigrate(db *DB) error {
	err := db.Gorm.AutoMigrate(
		domain.User{},
		domain.Follow{},
		domain.FollowRequest{},
		domain.Project{},
		domain.Needle{},
		domain.Hook{},
		domain.Yarn{},
		domain.TimeLog{},
		domain.Conversation{},
		domain.Message{},
	)
	if err != nil {
		return err
	}
	return SeedCatalogs(db.Gorm)
}

// NeedleSizes is the fixed catalog of US knitting needle sizes.
var NeedleSizes = []string{
	"US 0", "US 1", "US 2", "US 3", "US 4", "US 5", "US 6", "US 7",
	"US 8", "US 9", "US 10", "US 10.5", "US 11", "US 13", "US 15",
	"US 17", "US 19", "US 35", "US 50",
}

// HookSizes is the fixed catalog of crochet hook sizes.
var HookSizes = []string{
	"B-1", "C-2", "D-3", "E-4", "F-5", "G-6", "7", "H-8", "I-9",
	"J-10", "K-10.5", "L-11", "M-13", "N-15", "P-16", "Q", "S",
}

// SeedCatalogs inserts any catalog sizes that are not present yet.
// Sizes already in the database are left alone, so re-running it is
// safe.
func SeedCatalogs(db *gorm.DB) error {
	for _, size := range NeedleSizes {
		var count int64
		if err := db.Model(&domain.Needle{}).Where("size = ?", size).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&domain.Needle{Size: size}).Error; err != nil {
				return err
			}
		}
	}
	for _, size := range HookSizes {
		var count int64
		if err := db.Model(&domain.Hook{}).Where("size = ?", size).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&domain.Hook{Size: size}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the database connection.
func Close(db *DB) error {
	sqlDb, _ := db.Gorm.DB()
	return sqlDb.Close()
}
