package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/activities"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/members"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/profile"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/programs"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m, err := NewPostgresRepositoryManager(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var _ RepositoryManager = m
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{}

	if u := m.Users(db); u == nil {
		t.Fatal("Users() nil")
	}
	if s := m.Sessions(db); s == nil {
		t.Fatal("Sessions() nil")
	}
	if mb := m.Members(db); mb == nil {
		t.Fatal("Members() nil")
	}
	if p := m.Programs(db); p == nil {
		t.Fatal("Programs() nil")
	}
	if a := m.Activities(db); a == nil {
		t.Fatal("Activities() nil")
	}
	if p := m.Profile(db); p == nil {
		t.Fatal("Profile() nil")
	}

	var _ users.Repository = m.Users(db)
	var _ sessions.Repository = m.Sessions(db)
	var _ members.Repository = m.Members(db)
	var _ programs.Repository = m.Programs(db)
	var _ activities.Repository = m.Activities(db)
	var _ profile.Repository = m.Profile(db)
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}
