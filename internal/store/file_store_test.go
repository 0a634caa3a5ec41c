package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"autobuy_panel_echo/internal/models"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "database")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return s, dir
}

func TestFileStoreMissingFilesAreEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 0 {
		t.Errorf("ListUsers() = %v, %v", users, err)
	}
	promos, err := s.ListPromos(ctx)
	if err != nil || len(promos) != 0 {
		t.Errorf("ListPromos() = %v, %v", promos, err)
	}
	if _, err := s.GetUser(ctx, "USER_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser() error = %v; want ErrNotFound", err)
	}
}

func TestFileStoreUsersRoundTrip(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	user := models.User{ID: "USER_1", Name: "Budi", Username: "budi", Email: "budi@panel.com", Role: models.UserRoleMember}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	tests := []struct {
		name string
		user models.User
	}{
		{name: "same username", user: models.User{ID: "USER_2", Username: "budi"}},
		{name: "same email", user: models.User{ID: "USER_3", Username: "other", Email: "budi@panel.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.CreateUser(ctx, tt.user); !errors.Is(err, ErrConflict) {
				t.Errorf("CreateUser() error = %v; want ErrConflict", err)
			}
		})
	}

	for _, login := range []string{"budi", "budi@panel.com"} {
		got, err := s.FindUserByLogin(ctx, login)
		if err != nil || got.ID != "USER_1" {
			t.Errorf("FindUserByLogin(%q) = %+v, %v", login, got, err)
		}
	}

	updated, err := s.UpdateUser(ctx, "USER_1", func(u *models.User) error {
		u.OrderCount++
		u.TotalSpent += 2000
		return nil
	})
	if err != nil || updated.OrderCount != 1 || updated.TotalSpent != 2000 {
		t.Fatalf("UpdateUser() = %+v, %v", updated, err)
	}

	// A fresh store over the same directory sees the written document.
	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	got, err := reopened.GetUser(ctx, "USER_1")
	if err != nil || got.TotalSpent != 2000 {
		t.Errorf("reopened GetUser() = %+v, %v", got, err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, usersFile))
	if err != nil {
		t.Fatalf("read users file: %v", err)
	}
	if !strings.Contains(string(raw), `"users"`) {
		t.Errorf("users file has no users key: %s", raw)
	}
}

func TestFileStoreUpdateAbort(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if err := s.CreatePromo(ctx, models.Promo{Code: "HEMAT", MaxUses: 1}); err != nil {
		t.Fatalf("CreatePromo() error = %v", err)
	}

	abort := errors.New("exhausted")
	if _, err := s.UpdatePromo(ctx, "HEMAT", func(p *models.Promo) error {
		p.UsedCount = 99
		return abort
	}); !errors.Is(err, abort) {
		t.Fatalf("UpdatePromo() error = %v; want %v", err, abort)
	}
	p, _ := s.GetPromo(ctx, "HEMAT")
	if p.UsedCount != 0 {
		t.Errorf("aborted update was written: %+v", p)
	}
	if _, err := s.UpdatePromo(ctx, "NOPE", func(*models.Promo) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePromo() on missing code error = %v", err)
	}
	if err := s.CreatePromo(ctx, models.Promo{Code: "HEMAT"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate CreatePromo() error = %v", err)
	}
}

func TestFileStoreDeleteExpiredDiscounts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for _, d := range []models.Discount{
		{ID: "DISC_old", UserID: "U1", ExpiresAt: now.Add(-time.Hour), ClaimedAt: now.Add(-8 * 24 * time.Hour)},
		{ID: "DISC_new", UserID: "U1", ExpiresAt: now.Add(time.Hour), ClaimedAt: now.Add(-time.Hour)},
		{ID: "DISC_other", UserID: "U2", ExpiresAt: now.Add(time.Hour), ClaimedAt: now},
	} {
		if err := s.CreateDiscount(ctx, d); err != nil {
			t.Fatalf("CreateDiscount(%s) error = %v", d.ID, err)
		}
	}

	removed, err := s.DeleteExpiredDiscounts(ctx, now)
	if err != nil || removed != 1 {
		t.Fatalf("DeleteExpiredDiscounts() = %d, %v; want 1", removed, err)
	}
	mine, _ := s.ListDiscounts(ctx, "U1")
	if len(mine) != 1 || mine[0].ID != "DISC_new" {
		t.Errorf("ListDiscounts(U1) = %+v", mine)
	}
	all, _ := s.ListDiscounts(ctx, "")
	if len(all) != 2 {
		t.Errorf("ListDiscounts(all) has %d entries", len(all))
	}
}

func TestFileStoreCorruptDocument(t *testing.T) {
	s, dir := newTestStore(t)
	if err := os.WriteFile(filepath.Join(dir, promosFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	promos, err := s.ListPromos(context.Background())
	if err != nil || len(promos) != 0 {
		t.Errorf("ListPromos() on corrupt file = %v, %v", promos, err)
	}
}
