// Package testutil builds throwaway infrastructure for package tests.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories/postgres"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewDB opens a private in-memory sqlite database with the school schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// One connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := postgres.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// NewFeed returns a change feed over an in-process gochannel.
func NewFeed(t testing.TB) *postgres.ChangeFeed {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })
	return postgres.NewChangeFeed(pubSub, pubSub, "records.", Logger())
}

// NewStores wires every collection on a fresh database and feed.
func NewStores(t testing.TB) *postgres.Stores {
	t.Helper()
	return postgres.NewStores(NewDB(t), NewFeed(t), Logger())
}

func Student(id, first, last string, parentIDs ...string) models.Student {
	s := models.Student{FirstName: first, LastName: last, GradeLevel: models.GradePrimero, ParentIDs: parentIDs}
	s.ID = id
	return s
}

func Parent(id, first, last string) models.Parent {
	p := models.Parent{FirstName: first, LastName: last}
	p.ID = id
	return p
}

func Teacher(id, first, last string, role models.StaffRole) models.Teacher {
	tc := models.Teacher{FirstName: first, LastName: last, Role: role}
	tc.ID = id
	return tc
}

func Course(id, name, teacherID string) models.Course {
	c := models.Course{Name: name, TeacherID: teacherID, GradeLevel: models.GradePrimero}
	c.ID = id
	return c
}
