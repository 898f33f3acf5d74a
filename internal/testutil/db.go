package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/peerhub-dev/peerhub/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var intraIDSeq int64 = 100000

// SetupTestDB opens an in-memory database scoped to the test name so tests
// never share state.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = gdb.AutoMigrate(
		&models.User{},
		&models.Curriculum{},
		&models.Project{},
		&models.Team{},
		&models.TeamMember{},
		&models.DeleteRequest{},
		&models.DeleteApproval{},
		&models.Friendship{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return gdb
}

func CreateUser(t *testing.T, gdb *gorm.DB, login string) *models.User {
	t.Helper()

	user := &models.User{
		IntraID:     int(atomic.AddInt64(&intraIDSeq, 1)),
		Login:       login,
		Email:       login + "@student.42.fr",
		DisplayName: login,
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", login, err)
	}
	return user
}

func CreateProject(t *testing.T, gdb *gorm.DB, slug string, circle, minTeam, maxTeam int) *models.Project {
	t.Helper()

	project := &models.Project{
		Slug:    slug,
		Name:    slug,
		Circle:  circle,
		MinTeam: minTeam,
		MaxTeam: maxTeam,
	}
	if err := gdb.Create(project).Error; err != nil {
		t.Fatalf("failed to create project %s: %v", slug, err)
	}
	return project
}
