package crud

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aninishioka/craft-app/domain"
)

// testServices opens an in-memory database, migrates the schema, seeds a
// small size catalog and wires up all the crud services.
func testServices(t *testing.T) *Services {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap database: %v", err)
	}
	// A fresh connection would get a fresh in-memory database.
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&domain.User{},
		&domain.Follow{},
		&domain.FollowRequest{},
		&domain.Project{},
		&domain.Yarn{},
		&domain.Needle{},
		&domain.Hook{},
		&domain.TimeLog{},
		&domain.Conversation{},
		&domain.Message{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, size := range []string{"US 1", "US 2", "US 3"} {
		if err := db.Create(&domain.Needle{Size: size}).Error; err != nil {
			t.Fatalf("seed needle %s: %v", size, err)
		}
	}
	for _, size := range []string{"B-1", "C-2"} {
		if err := db.Create(&domain.Hook{Size: size}).Error; err != nil {
			t.Fatalf("seed hook %s: %v", size, err)
		}
	}

	services, err := NewServices(db,
		WithUser("test-pepper"),
		WithFollow(),
		WithProject(),
		WithTimeLog(),
		WithConversation(),
	)
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	return services
}

// createTestUser stores a user through the service so passwords get
// hashed the same way production signups do.
func createTestUser(t *testing.T, s *Services, username string, private bool) *domain.User {
	t.Helper()
	user := &domain.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password",
		Private:  private,
	}
	if err := s.User.Create(user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
