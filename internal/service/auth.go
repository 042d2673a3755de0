package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid credentials"

type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
	Role     string
}

// Register creates an account and returns it with a fresh session token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.Auth.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, "", domain.Errorf(domain.ErrInvalidArgument, "Password is too long")
		}
		return nil, "", err
	}

	user := &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hashedPassword),
		Role:         domain.ParseRole(in.Role),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		switch constraintName(err) {
		case "users_email_key", "users_username_key":
			return nil, "", domain.Errorf(domain.ErrConflict, "Email or username already taken")
		default:
			return nil, "", err
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	s.notify(ctx, domain.MailMessage{
		Type: domain.MailTypeWelcome,
		To:   user.Email,
		Data: domain.WelcomeMailData{
			Username: user.Username,
			Role:     user.Role,
			AppURL:   s.cfg.Email.AppURL,
		},
	})

	return user, token, nil
}

// Login accepts either the email or the username as identifier. Every failure
// reads the same so callers cannot tell which accounts exist.
func (s *Service) Login(ctx context.Context, identifier, password string) (*domain.User, string, error) {
	user, err := s.store.GetUserByLogin(ctx, identifier)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, "", domain.Errorf(domain.ErrUnauthorized, invalidCredentials)
		default:
			return nil, "", err
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return nil, "", domain.Errorf(domain.ErrUnauthorized, invalidCredentials)
		default:
			return nil, "", err
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// ResolveIdentity verifies a session token and loads the user it names.
func (s *Service) ResolveIdentity(ctx context.Context, tokenString string) (*domain.User, error) {
	if tokenString == "" {
		return nil, domain.Errorf(domain.ErrUnauthorized, "Missing token")
	}

	claims := &AuthClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, domain.Errorf(domain.ErrUnauthorized, "Unauthorized")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.Errorf(domain.ErrUnauthorized, "Invalid token")
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, domain.Errorf(domain.ErrUnauthorized, "Invalid token")
		default:
			return nil, err
		}
	}

	return user, nil
}

func (s *Service) issueToken(user *domain.User) (string, error) {
	now := time.Now()
	expiration := now.Add(time.Duration(s.cfg.JWT.Expiration) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   user.ID.String(),
		},
	})

	return token.SignedString([]byte(s.cfg.JWT.Secret))
}
