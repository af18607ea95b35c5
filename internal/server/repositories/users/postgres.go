// Package users provides the PostgreSQL-backed identity store.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cookmate/internal/common"
	"github.com/dmitrijs2005/cookmate/internal/dbx"
	"github.com/dmitrijs2005/cookmate/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const sqlStateUniqueViolation = "23505"

const userColumns = `id, email, password_hash, name, verified, verification_token, verification_token_expiry, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user and fills in its timestamps. A duplicate email
// (compared case-insensitively) yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, password_hash, name, verified, verification_token, verification_token_expiry)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Verified,
		user.VerificationToken, user.VerificationTokenExpiry,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1`
	return r.getOne(ctx, query, token)
}

// MarkVerified sets the verified flag and clears the verification token.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) error {
	query :=
		`UPDATE users SET verified = TRUE, verification_token = NULL, verification_token_expiry = NULL, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) SetVerificationToken(ctx context.Context, id, token string, expires time.Time) error {
	query :=
		`UPDATE users SET verification_token = $2, verification_token_expiry = $3, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, token, expires)
}

// UpdateProfile replaces name and email and returns the stored user.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, name, email string) (*models.User, error) {
	query :=
		`UPDATE users SET name = $2, email = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	u, err := r.getOne(ctx, query, id, name, email)
	if err != nil && isUniqueViolation(err) {
		return nil, common.ErrorAlreadyExists
	}
	return u, err
}

// Touch bumps updated_at of an existing user. It is the identity-store
// existence check used inside recipe transactions.
func (r *PostgresRepository) Touch(ctx context.Context, id string) error {
	query := `UPDATE users SET updated_at = now() WHERE id = $1 RETURNING id`

	var got string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&got)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user := &models.User{}
	var token sql.NullString
	var expiry sql.NullTime

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Verified,
		&token, &expiry, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if token.Valid {
		user.VerificationToken = &token.String
	}
	if expiry.Valid {
		user.VerificationTokenExpiry = &expiry.Time
	}
	return user, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}
