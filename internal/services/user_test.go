package services

import (
	"context"
	"errors"
	"testing"

	"github.com/bookrack/apiserver/internal/store"
	"github.com/bookrack/apiserver/types"
)

type memUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int]types.User{}, nextID: 1}
}

func (r *memUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, user := range r.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewUserService(newMemUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, "u1", "u1@x.com", "secretpass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected user ID to be assigned")
	}
	if user.PasswordHash == "secretpass" {
		t.Fatalf("password must not be stored in plaintext")
	}

	got, err := svc.Authenticate(ctx, "u1@x.com", "secretpass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("authenticated wrong user: %d != %d", got.ID, user.ID)
	}

	if _, err := svc.Authenticate(ctx, "u1@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@x.com", "secretpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewUserService(newMemUserRepo())
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		want     error
	}{
		{"missing username", "", "u1@x.com", "p", ErrMissingFields},
		{"missing password", "u1", "u1@x.com", "", ErrMissingFields},
		{"no at sign", "u1", "u1x.com", "p", ErrInvalidEmail},
		{"no domain tld", "u1", "u1@xcom", "p", ErrInvalidEmail},
		{"empty local part", "u1", "@x.com", "p", ErrInvalidEmail},
		{"leading at sign", "u1", "@u1@x.com", "p", ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.username, tt.email, tt.password); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc := NewUserService(newMemUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "u1", "u1@x.com", "p"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	if _, err := svc.Register(ctx, "u1", "other@x.com", "p"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate username, got %v", err)
	}
	if _, err := svc.Register(ctx, "other", "u1@x.com", "p"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate email, got %v", err)
	}
}
