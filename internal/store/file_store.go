package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"autobuy_panel_echo/internal/models"
)

const (
	usersFile     = "dataLogin.json"
	promosFile    = "promoCodes.json"
	discountsFile = "userDiscounts.json"
)

type usersDoc struct {
	Users []models.User `json:"users"`
}

type promosDoc struct {
	Promos []models.Promo `json:"promos"`
}

type discountsDoc struct {
	Discounts []models.Discount `json:"discounts"`
}

// FileStore keeps each record kind in its own JSON document under dir.
// Every operation reads the document from disk, so edits made by hand are picked up.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir %s: %v", ErrPersistenceFailed, dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) read(name string, dest interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrPersistenceFailed, name, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("Corrupt %s, starting from an empty document: %v", name, err)
	}
	return nil
}

// write replaces name atomically through a temp file in the same directory
func (s *FileStore) write(name string, doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPersistenceFailed, name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistenceFailed, name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrPersistenceFailed, name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistenceFailed, name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("%w: replace %s: %v", ErrPersistenceFailed, name, err)
	}
	return nil
}

func (s *FileStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc usersDoc
	if err := s.read(usersFile, &doc); err != nil {
		return nil, err
	}
	return doc.Users, nil
}

func (s *FileStore) GetUser(ctx context.Context, id string) (models.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

// FindUserByLogin matches either the username or the email address
func (s *FileStore) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.Username == login || (u.Email != "" && u.Email == login) {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *FileStore) CreateUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc usersDoc
	if err := s.read(usersFile, &doc); err != nil {
		return err
	}
	for _, u := range doc.Users {
		if u.ID == user.ID || u.Username == user.Username || (user.Email != "" && u.Email == user.Email) {
			return ErrConflict
		}
	}
	doc.Users = append(doc.Users, user)
	return s.write(usersFile, doc)
}

func (s *FileStore) UpdateUser(ctx context.Context, id string, fn func(*models.User) error) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc usersDoc
	if err := s.read(usersFile, &doc); err != nil {
		return models.User{}, err
	}
	for i := range doc.Users {
		if doc.Users[i].ID != id {
			continue
		}
		updated := doc.Users[i]
		if err := fn(&updated); err != nil {
			return models.User{}, err
		}
		updated.ID = id
		doc.Users[i] = updated
		return updated, s.write(usersFile, doc)
	}
	return models.User{}, ErrNotFound
}

func (s *FileStore) ListPromos(ctx context.Context) ([]models.Promo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc promosDoc
	if err := s.read(promosFile, &doc); err != nil {
		return nil, err
	}
	return doc.Promos, nil
}

func (s *FileStore) GetPromo(ctx context.Context, code string) (models.Promo, error) {
	promos, err := s.ListPromos(ctx)
	if err != nil {
		return models.Promo{}, err
	}
	for _, p := range promos {
		if p.Code == code {
			return p, nil
		}
	}
	return models.Promo{}, ErrNotFound
}

func (s *FileStore) CreatePromo(ctx context.Context, promo models.Promo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc promosDoc
	if err := s.read(promosFile, &doc); err != nil {
		return err
	}
	for _, p := range doc.Promos {
		if p.Code == promo.Code {
			return ErrConflict
		}
	}
	doc.Promos = append(doc.Promos, promo)
	return s.write(promosFile, doc)
}

func (s *FileStore) UpdatePromo(ctx context.Context, code string, fn func(*models.Promo) error) (models.Promo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc promosDoc
	if err := s.read(promosFile, &doc); err != nil {
		return models.Promo{}, err
	}
	for i := range doc.Promos {
		if doc.Promos[i].Code != code {
			continue
		}
		updated := doc.Promos[i]
		if err := fn(&updated); err != nil {
			return models.Promo{}, err
		}
		updated.Code = code
		doc.Promos[i] = updated
		return updated, s.write(promosFile, doc)
	}
	return models.Promo{}, ErrNotFound
}

// ListDiscounts returns the discounts of userID ordered by claim time, or all of them when userID is empty
func (s *FileStore) ListDiscounts(ctx context.Context, userID string) ([]models.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc discountsDoc
	if err := s.read(discountsFile, &doc); err != nil {
		return nil, err
	}
	out := make([]models.Discount, 0, len(doc.Discounts))
	for _, d := range doc.Discounts {
		if userID == "" || d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClaimedAt.Before(out[j].ClaimedAt) })
	return out, nil
}

func (s *FileStore) CreateDiscount(ctx context.Context, discount models.Discount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc discountsDoc
	if err := s.read(discountsFile, &doc); err != nil {
		return err
	}
	for _, d := range doc.Discounts {
		if d.ID == discount.ID {
			return ErrConflict
		}
	}
	doc.Discounts = append(doc.Discounts, discount)
	return s.write(discountsFile, doc)
}

func (s *FileStore) UpdateDiscount(ctx context.Context, id string, fn func(*models.Discount) error) (models.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc discountsDoc
	if err := s.read(discountsFile, &doc); err != nil {
		return models.Discount{}, err
	}
	for i := range doc.Discounts {
		if doc.Discounts[i].ID != id {
			continue
		}
		updated := doc.Discounts[i]
		if err := fn(&updated); err != nil {
			return models.Discount{}, err
		}
		updated.ID = id
		doc.Discounts[i] = updated
		return updated, s.write(discountsFile, doc)
	}
	return models.Discount{}, ErrNotFound
}

func (s *FileStore) DeleteExpiredDiscounts(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc discountsDoc
	if err := s.read(discountsFile, &doc); err != nil {
		return 0, err
	}
	kept := doc.Discounts[:0]
	for _, d := range doc.Discounts {
		if d.ExpiresAt.After(now) {
			kept = append(kept, d)
		}
	}
	removed := len(doc.Discounts) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	doc.Discounts = kept
	return removed, s.write(discountsFile, doc)
}
