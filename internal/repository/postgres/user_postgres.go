package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Create inserts a new user row. Duplicate usernames surface as
// repository.ErrDuplicateUsername via the unique index on username.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, password_hash, created_at
	`
	row := r.db.QueryRowContext(ctx, q, u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	var out model.User
	if err := row.Scan(&out.ID, &out.Username, &out.PasswordHash, &out.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateUsername
		}
		return nil, err
	}
	return &out, nil
}

// FindByUsername fetches a user by exact username.
func (r *UserPostgres) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`
	row := r.db.QueryRowContext(ctx, q, username)
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
