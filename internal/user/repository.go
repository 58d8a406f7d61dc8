package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"zapas-be/internal/db"
	"zapas-be/internal/logger"

	"go.uber.org/zap"
)

const emailUniqueConstraint = "users_email_key"

const userColumns = `id, email, password, first_name, last_name, phone, address, city, country, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, p CreateParams) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

func (r *repository) Create(ctx context.Context, p CreateParams) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
	)

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password, first_name, last_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		p.Email, p.PasswordHash, p.FirstName, p.LastName,
	)

	u, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err, emailUniqueConstraint) {
			return nil, ErrEmailExists
		}
		log.Error("db: failed to insert user", zap.String("email", p.Email), zap.Error(err))
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	return r.find(ctx, row, "FindByEmail")
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	return r.find(ctx, row, "FindByID")
}

func (r *repository) find(ctx context.Context, row *sql.Row, method string) (*User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to load user",
			zap.String("layer", "repository"),
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.Password,
		&u.FirstName, &u.LastName, &u.Phone,
		&u.Address, &u.City, &u.Country,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
