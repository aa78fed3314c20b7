// Package services – UserService
//
// This file implements account registration, login, and profile management.
// Passwords are hashed with bcrypt and never leave this file unhashed; the
// login path deliberately returns a single ErrInvalidCredentials for both
// unknown-email and wrong-password so the API cannot be used to probe for
// registered addresses.
package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/afrimart/marketplace-backend/internal/domain"
	"github.com/afrimart/marketplace-backend/internal/repo"
)

// UserRepo defines the repository contract required by UserService.
type UserRepo interface {
	// CreateUser inserts a new user row; ErrDuplicate when the email exists.
	CreateUser(ctx context.Context, db *gorm.DB, name, email, passwordHash, avatar string) (*domain.User, error)

	// GetUser fetches a user by ID.
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)

	// GetUserByEmail fetches a user (with hash) by normalized email.
	GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)

	// UpdateUserAvatar sets the avatar URL of a user.
	UpdateUserAvatar(ctx context.Context, db *gorm.DB, id, avatar string) error
}

// UserService provides account-level operations.
type UserService struct {
	DB     *gorm.DB
	Repo   UserRepo
	Tokens *TokenManager

	// BcryptCost overrides the hashing cost; <= 0 uses bcrypt.DefaultCost.
	BcryptCost int
}

// NewUserService constructs a UserService with default hashing cost.
func NewUserService(db *gorm.DB, r UserRepo, tokens *TokenManager) *UserService {
	return &UserService{DB: db, Repo: r, Tokens: tokens}
}

// ErrInvalidInput is returned for registration payloads that fail basic
// validation (blank name, malformed email, short password).
var ErrInvalidInput = errors.New("invalid registration input")

// Register creates an account. The email is normalized to lowercase; the
// avatar starts as a generated initial-letter placeholder.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || utf8.RuneCountInString(name) > 120 {
		return nil, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidInput
	}
	if len(password) < 8 {
		return nil, ErrInvalidInput
	}

	cost := s.BcryptCost
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, name, email, string(hash), placeholderAvatar(name))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns the user together with a signed
// bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.Repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Profile returns the user behind an authenticated request.
func (s *UserService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateAvatar stores the new avatar URL for the user.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	if err := s.Repo.UpdateUserAvatar(ctx, s.DB, userID, avatarURL); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// avatarPalette gives the generated placeholders some variety while staying
// deterministic per name.
var avatarPalette = []string{"4e79a7", "f28e2b", "e15759", "76b7b2", "59a14f", "edc948", "b07aa1"}

// placeholderAvatar renders a data-URL SVG with the first letter of the
// user's name on a deterministic background color.
func placeholderAvatar(name string) string {
	initial := "?"
	if r := []rune(strings.TrimSpace(name)); len(r) > 0 {
		initial = strings.ToUpper(string(r[0]))
	}
	sum := 0
	for _, r := range name {
		sum += int(r)
	}
	color := avatarPalette[sum%len(avatarPalette)]

	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 256 256"><rect width="256" height="256" fill="#%s"/><text x="50%%" y="50%%" dy=".1em" font-family="Arial" font-size="128" fill="white" text-anchor="middle" dominant-baseline="middle">%s</text></svg>`,
		color, initial,
	)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
