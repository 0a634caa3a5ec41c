package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"autobuy_panel_echo/internal/models"
	"autobuy_panel_echo/internal/store"
)

const (
	minPasswordLength = 6
	bcryptCost        = 10
)

// RegisterInput is a storefront sign-up request
type RegisterInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserService manages storefront accounts
type UserService struct {
	store store.Store
	now   func() time.Time
}

func NewUserService(s store.Store) *UserService {
	return &UserService{store: s, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Username == "" || in.Password == "" {
		return models.User{}, fmt.Errorf("%w: name, username and password are required", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if in.Email == "" {
		in.Email = in.Username + "@panel.com"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	suffix, err := randomString("abcdefghijklmnopqrstuvwxyz0123456789", 9)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to generate user id: %w", err)
	}

	now := s.now()
	user := models.User{
		ID:        fmt.Sprintf("USER_%d_%s", now.UnixMilli(), suffix),
		Name:      in.Name,
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hash),
		Role:      models.UserRoleMember,
		CreatedAt: now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return models.User{}, storeError(err, nil, ErrUserExists)
	}

	log.Printf("New user registered: %s", user.Username)
	return user, nil
}

// Login checks the password of the account matching username or email
func (s *UserService) Login(ctx context.Context, login, password string) (models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	user, err := s.store.FindUserByLogin(ctx, login)
	if err != nil {
		return models.User{}, storeError(err, ErrInvalidCredentials, nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	updated, err := s.store.UpdateUser(ctx, user.ID, func(u *models.User) error {
		u.LastLogin = s.now()
		return nil
	})
	if err != nil {
		log.Printf("Failed to record login for %s: %v", user.Username, err)
		return user, nil
	}
	return updated, nil
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	return user, storeError(err, ErrUserNotFound, nil)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// RecordOrder adds a placed order to the account's statistics
func (s *UserService) RecordOrder(ctx context.Context, userID string, amount int64) error {
	_, err := s.store.UpdateUser(ctx, userID, func(u *models.User) error {
		u.OrderCount++
		u.TotalSpent += amount
		return nil
	})
	return storeError(err, ErrUserNotFound, nil)
}
