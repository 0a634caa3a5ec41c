package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      RegisterInput
		wantErr error
	}{
		{name: "missing name", in: RegisterInput{Username: "budi", Password: "secret1"}, wantErr: ErrInvalidInput},
		{name: "short password", in: RegisterInput{Name: "Budi", Username: "budi", Password: "12345"}, wantErr: ErrInvalidInput},
		{name: "valid", in: RegisterInput{Name: "Budi", Username: "budi", Password: "secret1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewUserService(newRecordStore(t))
			user, err := svc.Register(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Register() error = %v; want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !strings.HasPrefix(user.ID, "USER_") || user.Email != "budi@panel.com" || user.Role != "member" {
				t.Errorf("user = %+v", user)
			}
			if user.Password == tt.in.Password {
				t.Error("password stored in clear text")
			}
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newRecordStore(t))

	user, err := svc.Register(ctx, RegisterInput{Name: "Budi", Username: "budi", Email: "budi@mail.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Name: "B", Username: "budi", Password: "secret2"}); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate Register() error = %v; want ErrUserExists", err)
	}

	for _, login := range []string{"budi", "budi@mail.com"} {
		got, err := svc.Login(ctx, login, "secret1")
		if err != nil {
			t.Fatalf("Login(%q) error = %v", login, err)
		}
		if got.ID != user.ID || got.LastLogin.IsZero() {
			t.Errorf("Login(%q) = %+v", login, got)
		}
	}
	if _, err := svc.Login(ctx, "budi", "wrong!!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v", err)
	}

	if err := svc.RecordOrder(ctx, user.ID, 2000); err != nil {
		t.Fatalf("RecordOrder() error = %v", err)
	}
	got, _ := svc.Get(ctx, user.ID)
	if got.OrderCount != 1 || got.TotalSpent != 2000 {
		t.Errorf("stats = %d / %d", got.OrderCount, got.TotalSpent)
	}
	if err := svc.RecordOrder(ctx, "USER_missing", 1); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("RecordOrder() on missing user error = %v", err)
	}
}
