// admin_user_repository.go implements AdminUserRepository for platform
// operator accounts used by the admin dashboard.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/xteam-pro/audit-platform/internal/db/models"
)

// ErrAdminUserNotFound is returned when no admin account matches the lookup.
var ErrAdminUserNotFound = errors.New("admin user not found")

// AdminUserRepository handles admin_users database operations
type AdminUserRepository struct {
	db *sqlx.DB
}

// NewAdminUserRepository creates a new AdminUserRepository
func NewAdminUserRepository(db *sqlx.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

// GetByUsername retrieves an admin account by username
func (r *AdminUserRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var user models.AdminUser
	query := `SELECT * FROM admin_users WHERE username = $1`
	err := r.db.GetContext(ctx, &user, query, username)
	if err == sql.ErrNoRows {
		return nil, ErrAdminUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create stores a new admin account. The password hash must already be
// computed by the caller.
func (r *AdminUserRepository) Create(ctx context.Context, user *models.AdminUser) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now().UTC()

	query := `INSERT INTO admin_users (id, username, password_hash, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	return err
}
