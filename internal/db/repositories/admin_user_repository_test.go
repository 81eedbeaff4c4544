package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/xteam-pro/audit-platform/internal/db/models"
)

func newAdminUserRepo(t *testing.T) (*AdminUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAdminUserRepository(sqlx.NewDb(db, "sqlmock")), mock
}

var adminUserCols = []string{"id", "username", "password_hash", "created_at"}

func TestGetByUsername_Success(t *testing.T) {
	repo, mock := newAdminUserRepo(t)
	mock.ExpectQuery("SELECT \\* FROM admin_users").
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows(adminUserCols).
			AddRow("user-1", "admin", "$2a$10$hash", time.Now()))

	user, err := repo.GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "admin" {
		t.Errorf("username = %q, want admin", user.Username)
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock := newAdminUserRepo(t)
	mock.ExpectQuery("SELECT \\* FROM admin_users").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(adminUserCols))

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, ErrAdminUserNotFound) {
		t.Errorf("err = %v, want ErrAdminUserNotFound", err)
	}
}

func TestCreateAdminUser(t *testing.T) {
	repo, mock := newAdminUserRepo(t)
	mock.ExpectExec("INSERT INTO admin_users").
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.AdminUser{Username: "admin", PasswordHash: "$2a$10$hash"}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID == "" {
		t.Error("expected generated user ID")
	}
}
