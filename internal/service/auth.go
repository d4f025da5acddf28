package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ecommerce/internal/events"
	"github.com/Skotchmaster/ecommerce/internal/hash"
	"github.com/Skotchmaster/ecommerce/internal/logging"
	"github.com/Skotchmaster/ecommerce/internal/models"
	"github.com/Skotchmaster/ecommerce/internal/repo"
	"github.com/Skotchmaster/ecommerce/internal/tokens"
	"github.com/Skotchmaster/ecommerce/internal/transport"
)

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	TokenTTL  time.Duration
	Events    events.Publisher

	// Now is overridden in tests.
	Now func() time.Time
}

type LoginResult struct {
	UserID    uint
	Email     string
	Token     string
	ExpiresAt time.Time
	IsAdmin   bool
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", ErrValidation)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Warn("register_error", "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %v: %w", err, ErrValidation)
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: pwHash,
	}
	if err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		return tx.CreateUser(ctx, &user)
	}); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, fmt.Errorf("email %s: %w", req.Email, ErrConflict)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUserEvents, key(user.ID), events.UserEvent{
		Type:   events.UserRegistered,
		UserID: user.ID,
		Email:  user.Email,
	})
	return &user, nil
}

// Login checks the credentials and issues a bearer token. An unknown email
// and a wrong password both yield ErrInvalidCredentials after the same
// amount of bcrypt work.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var user *models.User
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		user, err = tx.GetUserByEmail(ctx, email)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash.BurnCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !hash.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := tokens.Issue(user.ID, s.JWTSecret, s.TokenTTL, s.now())
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUserEvents, key(user.ID), events.UserEvent{
		Type:   events.UserLoggedIn,
		UserID: user.ID,
		Email:  user.Email,
	})

	return &LoginResult{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: exp,
		IsAdmin:   user.IsAdmin,
	}, nil
}

func (s *AuthService) AuthoriseAsAdmin(ctx context.Context, userID uint) (bool, error) {
	var isAdmin bool
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		isAdmin, err = authoriseAsAdmin(ctx, tx, userID)
		return err
	})
	return isAdmin, err
}
