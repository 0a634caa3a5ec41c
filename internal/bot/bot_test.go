package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"autobuy_panel_echo/internal/models"
)

const adminID = 42

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	updates chan tgbotapi.Update
	stopped bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Text)
	}
	return out
}

type fakeUsers struct {
	users []models.User
	err   error
}

func (f *fakeUsers) List(ctx context.Context) ([]models.User, error) { return f.users, f.err }

type fakePromos struct {
	generated int
	promos    []models.Promo
}

func (f *fakePromos) GeneratePromo(ctx context.Context) (models.Promo, error) {
	f.generated++
	return models.Promo{Code: "AB12CD34", Discount: 10, MaxUses: 50, IsActive: true,
		ExpiresAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakePromos) ListPromos(ctx context.Context) ([]models.Promo, error) { return f.promos, nil }

type fakeTransactions struct{ txs []models.Transaction }

func (f *fakeTransactions) ActiveTransactions() []models.Transaction { return f.txs }

func command(from int64, text string) *tgbotapi.Message {
	name := strings.Fields(text)[0]
	return &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: from},
		Chat:     &tgbotapi.Chat{ID: from},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func newTestBot() (*Bot, *fakeAPI, *fakeUsers, *fakePromos) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	users := &fakeUsers{users: []models.User{{ID: "USER_1", Name: "Budi", Email: "budi@panel.com", Role: models.UserRoleMember, TotalSpent: 12500}}}
	promos := &fakePromos{}
	txs := &fakeTransactions{txs: []models.Transaction{{ID: "X1", Reference: "WEB-1", Username: "budi", FinalPrice: 1000, Status: models.TransactionStatusPending}}}
	b := New(api, adminID, users, promos, txs)
	b.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return b, api, users, promos
}

func TestAdminCommandsAreGated(t *testing.T) {
	for _, cmd := range []string{"/listusers", "/addpromo", "/listpromos", "/transactions"} {
		t.Run(cmd, func(t *testing.T) {
			b, api, _, promos := newTestBot()
			b.HandleMessage(context.Background(), command(7, cmd))

			texts := api.texts()
			if len(texts) != 1 || !strings.Contains(texts[0], "only the admin") {
				t.Errorf("replies = %q", texts)
			}
			if promos.generated != 0 {
				t.Error("non-admin generated a promo")
			}
		})
	}
}

func TestStartIsOpen(t *testing.T) {
	b, api, _, _ := newTestBot()
	b.HandleMessage(context.Background(), command(7, "/start"))
	if texts := api.texts(); len(texts) != 1 || !strings.Contains(texts[0], "/listusers") {
		t.Errorf("replies = %q", texts)
	}
}

func TestAdminCommands(t *testing.T) {
	b, api, _, promos := newTestBot()
	promos.promos = []models.Promo{
		{Code: "LIVE", Discount: 10, MaxUses: 5, UsedCount: 1, IsActive: true, ExpiresAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Code: "OLD", Discount: 20, MaxUses: 5, IsActive: true, ExpiresAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}

	ctx := context.Background()
	b.HandleMessage(ctx, command(adminID, "/listusers"))
	b.HandleMessage(ctx, command(adminID, "/addpromo"))
	b.HandleMessage(ctx, command(adminID, "/listpromos"))
	b.HandleMessage(ctx, command(adminID, "/transactions"))

	texts := api.texts()
	if len(texts) != 4 {
		t.Fatalf("replies = %q", texts)
	}
	if !strings.Contains(texts[0], "Budi") || !strings.Contains(texts[0], "Rp 12.500") {
		t.Errorf("listusers = %q", texts[0])
	}
	if promos.generated != 1 || !strings.Contains(texts[1], "AB12CD34") || !strings.Contains(texts[1], "01/06/2024") {
		t.Errorf("addpromo = %q", texts[1])
	}
	if !strings.Contains(texts[2], "Status: ACTIVE") || !strings.Contains(texts[2], "Status: EXPIRED") {
		t.Errorf("listpromos = %q", texts[2])
	}
	if !strings.Contains(texts[3], "X1 (WEB-1)") {
		t.Errorf("transactions = %q", texts[3])
	}
}

func TestCommandErrorIsReported(t *testing.T) {
	b, api, users, _ := newTestBot()
	users.err = errors.New("disk gone")
	b.HandleMessage(context.Background(), command(adminID, "/listusers"))
	if texts := api.texts(); len(texts) != 1 || texts[0] != "Error: disk gone" {
		t.Errorf("replies = %q", texts)
	}
}

func TestNonCommandsAreIgnored(t *testing.T) {
	b, api, _, _ := newTestBot()
	b.HandleMessage(context.Background(), &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 1}})
	if texts := api.texts(); len(texts) != 0 {
		t.Errorf("replies = %q", texts)
	}
}

func TestSplitMessage(t *testing.T) {
	block := strings.Repeat("x", 99) + "\n\n"

	tests := []struct {
		name      string
		text      string
		wantParts int
	}{
		{"short", "hello", 1},
		{"empty", "", 0},
		{"exactly the limit", strings.Repeat("a", MessageLimit), 1},
		{"blocks", strings.Repeat(block, 60), 2},
		{"no blank lines", strings.Repeat("b", MessageLimit*2), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := SplitMessage(tt.text)
			if len(parts) != tt.wantParts {
				t.Fatalf("parts = %d, want %d", len(parts), tt.wantParts)
			}
			for i, p := range parts {
				if len(p) > MessageLimit {
					t.Errorf("part %d has %d bytes", i, len(p))
				}
			}
		})
	}

	parts := SplitMessage(strings.Repeat(block, 60))
	if !strings.HasSuffix(parts[0], "x") || strings.HasPrefix(parts[1], "\n") {
		t.Errorf("split did not land on a blank line: %q / %q", parts[0][len(parts[0])-5:], parts[1][:5])
	}
}

func TestRunStopsWithContext(t *testing.T) {
	b, api, _, _ := newTestBot()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	api.updates <- tgbotapi.Update{Message: command(adminID, "/start")}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if len(api.texts()) != 1 || !api.stopped {
		t.Errorf("texts = %q, stopped = %v", api.texts(), api.stopped)
	}
}
