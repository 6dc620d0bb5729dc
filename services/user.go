package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/database"
	"github.com/KunArthit/petterrain-api-sub000/middleware"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
// password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

type UserService struct {
	db       *sql.DB
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewUserService(db *sql.DB, secret string, tokenTTL time.Duration, logger *zap.Logger) *UserService {
	return &UserService{db: db, secret: []byte(secret), tokenTTL: tokenTTL, logger: logger}
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	const op = "user.register"

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, apperr.Internal(op, err)
	}

	var user models.User
	err = s.db.QueryRowContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id, name, email, role, created_at",
		req.Name, strings.ToLower(req.Email), string(hashed), models.RoleCustomer,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt)
	if database.IsUniqueViolation(err) {
		return models.User{}, apperr.Duplicate(op, "email", req.Email, err)
	}
	if err != nil {
		return models.User{}, apperr.Internal(op, err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	const op = "user.login"

	var user models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = $1",
		strings.ToLower(req.Email),
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if database.IsNoRows(err) {
		return models.LoginResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.LoginResponse{}, apperr.Internal(op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return models.LoginResponse{}, ErrInvalidCredentials
	}

	token, err := middleware.IssueToken(s.secret, s.tokenTTL, user.ID, user.Email, user.Role)
	if err != nil {
		return models.LoginResponse{}, apperr.Internal(op, err)
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return models.LoginResponse{Token: token, User: user}, nil
}
