package user

import (
	"context"
	"errors"

	"zapas-be/internal/logger"

	"go.uber.org/zap"
)

// TokenIssuer is implemented by auth.Manager.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	Login(ctx context.Context, in LoginInput) (string, *User, error)
	GetProfile(ctx context.Context, userID string) (*User, error)
}

type service struct {
	repo   Repository
	tokens TokenIssuer
}

func NewService(repo Repository, tokens TokenIssuer) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	if len(in.Password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	email := NormalizeEmail(in.Email)

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		log.Info("register rejected, email taken", zap.String("email", email))
		return nil, ErrEmailExists
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	u, err := s.repo.Create(ctx, CreateParams{
		Email:        email,
		PasswordHash: hashed,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	if err != nil {
		if !errors.Is(err, ErrEmailExists) {
			log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		}
		return nil, err
	}

	log.Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

func (s *service) Login(ctx context.Context, in LoginInput) (string, *User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	u, err := s.repo.FindByEmail(ctx, NormalizeEmail(in.Email))
	if errors.Is(err, ErrUserNotFound) {
		CheckPasswordHash(in.Password, dummyHash())
		log.Info("login failed")
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if !CheckPasswordHash(in.Password, u.Password) {
		log.Info("login failed", zap.String("user_id", u.ID))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		log.Error("failed to issue token", zap.String("user_id", u.ID), zap.Error(err))
		return "", nil, err
	}

	return token, u, nil
}

func (s *service) GetProfile(ctx context.Context, userID string) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}
