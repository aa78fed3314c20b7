package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/afrimart/marketplace-backend/internal/domain"
	"github.com/afrimart/marketplace-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// userRepo adapts the repo package's free functions to the UserRepo contract.
type userRepo struct{}

func (userRepo) CreateUser(ctx context.Context, db *gorm.DB, name, email, hash, avatar string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, name, email, hash, avatar)
}

func (userRepo) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (userRepo) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

func (userRepo) UpdateUserAvatar(ctx context.Context, db *gorm.DB, id, avatar string) error {
	return repo.UpdateUserAvatar(ctx, db, id, avatar)
}

func newUserService(t *testing.T) *UserService {
	t.Helper()
	svc := NewUserService(newTestDB(t), userRepo{}, NewTokenManager("test-secret", time.Hour))
	// MinCost keeps the hashing fast in tests.
	svc.BcryptCost = 4
	return svc
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Ama Mensah  ", "  AMA@Example.COM ", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Name != "Ama Mensah" {
		t.Fatalf("name = %q, want trimmed", u.Name)
	}
	if u.Email != "ama@example.com" {
		t.Fatalf("email = %q, want lowercased", u.Email)
	}
	if !strings.HasPrefix(u.Avatar, "data:image/svg+xml;base64,") {
		t.Fatalf("avatar = %q, want generated placeholder", u.Avatar)
	}

	got, token, err := svc.Login(ctx, "ama@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != u.ID || token == "" {
		t.Fatalf("login returned user %q, token %q", got.ID, token)
	}

	// The token round-trips through the verifier.
	sub, err := svc.Tokens.Verify(token)
	if err != nil || sub != u.ID {
		t.Fatalf("Verify(token) = %q, %v; want %q", sub, err, u.ID)
	}
}

func TestUserService_RegisterValidation(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"blank name", "   ", "a@b.com", "longenough"},
		{"oversized name", strings.Repeat("n", 121), "a@b.com", "longenough"},
		{"bad email", "Ama", "not-an-email", "longenough"},
		{"short password", "Ama", "a@b.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.userName, tc.email, tc.password); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestUserService_RegisterDuplicateEmail(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ama", "ama@example.com", "password1"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	// Same address in different case still collides.
	if _, err := svc.Register(ctx, "Other", "AMA@example.com", "password2"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestUserService_LoginRejectsWrongCredentials(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ama", "ama@example.com", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "ama@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestUserService_Profile(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ama", "ama@example.com", "password1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := svc.Profile(ctx, u.ID)
	if err != nil || got.Email != "ama@example.com" {
		t.Fatalf("Profile = %+v, %v", got, err)
	}

	if _, err := svc.Profile(ctx, uuid.NewString()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrUserNotFound", err)
	}
}

func TestUserService_UpdateAvatar(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ama", "ama@example.com", "password1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.UpdateAvatar(ctx, u.ID, "/static/uploads/x.png"); err != nil {
		t.Fatalf("UpdateAvatar: %v", err)
	}
	got, _ := svc.Profile(ctx, u.ID)
	if got.Avatar != "/static/uploads/x.png" {
		t.Fatalf("avatar = %q", got.Avatar)
	}

	if err := svc.UpdateAvatar(ctx, uuid.NewString(), "/x.png"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrUserNotFound", err)
	}
}

func TestPlaceholderAvatar_Deterministic(t *testing.T) {
	a := placeholderAvatar("Ama")
	b := placeholderAvatar("Ama")
	if a != b {
		t.Fatal("placeholder differs between calls for the same name")
	}
	if placeholderAvatar("") == "" {
		t.Fatal("empty name produced empty avatar")
	}
}
