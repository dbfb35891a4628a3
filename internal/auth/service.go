package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"rental-backend/internal/apperr"
	"rental-backend/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAdminExists        = errors.New("an admin account already exists")
)

const minPasswordLength = 8

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error)
}

type Service struct {
	users  UserStore
	secret string
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewService(users UserStore, secret string, ttl time.Duration, log logrus.FieldLogger) *Service {
	return &Service{users: users, secret: secret, ttl: ttl, log: log}
}

// Register creates an account with the given role.
func (s *Service) Register(ctx context.Context, name, email, password string, role models.UserRole) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" {
		return nil, apperr.Validation("name and email are required")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("user registered")
	return user, nil
}

// RegisterAdmin creates the first admin. It fails once any admin exists.
func (s *Service) RegisterAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	count, err := s.users.CountUsersByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAdminExists
	}
	return s.Register(ctx, name, email, password, models.RoleAdmin)
}

// Login checks the credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.secret, s.ttl, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *Service) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetUser(ctx, id)
}
