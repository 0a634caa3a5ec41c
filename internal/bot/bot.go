// Package bot runs the Telegram admin bot: user and coupon listings, promo
// generation and a view of in-flight transactions.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"autobuy_panel_echo/internal/models"
	"autobuy_panel_echo/internal/services"
)

const (
	// MessageLimit is the longest text Telegram accepts in one message
	MessageLimit = 4096
	splitBefore  = 4000
	pollTimeout  = 60
	dateLayout   = "02/01/2006"
)

// API is the part of *tgbotapi.BotAPI the bot needs
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type UserLister interface {
	List(ctx context.Context) ([]models.User, error)
}

type PromoManager interface {
	GeneratePromo(ctx context.Context) (models.Promo, error)
	ListPromos(ctx context.Context) ([]models.Promo, error)
}

type TransactionLister interface {
	ActiveTransactions() []models.Transaction
}

// Bot answers admin commands over long polling
type Bot struct {
	api          API
	adminID      int64
	users        UserLister
	promos       PromoManager
	transactions TransactionLister
	now          func() time.Time
}

func New(api API, adminID int64, users UserLister, promos PromoManager, transactions TransactionLister) *Bot {
	return &Bot{
		api:          api,
		adminID:      adminID,
		users:        users,
		promos:       promos,
		transactions: transactions,
		now:          time.Now,
	}
}

// Run polls for updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				b.HandleMessage(ctx, update.Message)
			}
		}
	}
}

// HandleMessage dispatches one incoming command
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	chatID := msg.Chat.ID

	command := msg.Command()
	if command == "start" {
		b.reply(chatID, welcomeText)
		return
	}

	switch command {
	case "listusers", "addpromo", "listpromos", "transactions":
	default:
		b.reply(chatID, "Unknown command. Send /start to see what I can do.")
		return
	}

	if msg.From == nil || b.adminID == 0 || msg.From.ID != b.adminID {
		b.reply(chatID, "Sorry, only the admin can use this command.")
		return
	}

	var (
		text string
		err  error
	)
	switch command {
	case "listusers":
		text, err = b.listUsers(ctx)
	case "addpromo":
		text, err = b.addPromo(ctx)
	case "listpromos":
		text, err = b.listPromos(ctx)
	case "transactions":
		text = b.listTransactions()
	}
	if err != nil {
		log.Printf("Bot command /%s failed: %v", command, err)
		b.reply(chatID, "Error: "+err.Error())
		return
	}
	b.reply(chatID, text)
}

const welcomeText = `Welcome to the Panel Bot!

Available commands:
/listusers - list registered users
/addpromo - create a promo coupon
/listpromos - list every coupon
/transactions - list pending transactions

This bot monitors the automatic panel store.`

func (b *Bot) listUsers(ctx context.Context) (string, error) {
	users, err := b.users.List(ctx)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "No registered users.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "USERS (%d)\n\n", len(users))
	for _, u := range users {
		fmt.Fprintf(&sb, "%s\n", u.Name)
		fmt.Fprintf(&sb, "ID: %s\n", u.ID)
		fmt.Fprintf(&sb, "Email: %s\n", u.Email)
		fmt.Fprintf(&sb, "Role: %s\n", u.Role)
		fmt.Fprintf(&sb, "Joined: %s\n", u.CreatedAt.Format(dateLayout))
		fmt.Fprintf(&sb, "Orders: %d\n", u.OrderCount)
		fmt.Fprintf(&sb, "Total spent: %s\n\n", services.FormatRupiah(u.TotalSpent))
	}
	return sb.String(), nil
}

func (b *Bot) addPromo(ctx context.Context) (string, error) {
	promo, err := b.promos.GeneratePromo(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("NEW COUPON CREATED\n\nCode: %s\nDiscount: %d%%\nMax uses: %d users\nExpires: %s",
		promo.Code, promo.Discount, promo.MaxUses, promo.ExpiresAt.Format(dateLayout)), nil
}

func (b *Bot) listPromos(ctx context.Context) (string, error) {
	promos, err := b.promos.ListPromos(ctx)
	if err != nil {
		return "", err
	}
	if len(promos) == 0 {
		return "No coupons available.", nil
	}

	now := b.now()
	var sb strings.Builder
	fmt.Fprintf(&sb, "COUPONS (%d)\n\n", len(promos))
	for _, p := range promos {
		fmt.Fprintf(&sb, "%s\n", p.Code)
		fmt.Fprintf(&sb, "Discount: %d%%\n", p.Discount)
		fmt.Fprintf(&sb, "Used: %d/%d\n", p.UsedCount, p.MaxUses)
		fmt.Fprintf(&sb, "Expires: %s\n", p.ExpiresAt.Format(dateLayout))
		fmt.Fprintf(&sb, "Status: %s\n\n", strings.ToUpper(string(p.State(now))))
	}
	return sb.String(), nil
}

func (b *Bot) listTransactions() string {
	txs := b.transactions.ActiveTransactions()
	if len(txs) == 0 {
		return "No pending transactions."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "TRANSACTIONS (%d)\n\n", len(txs))
	for _, tx := range txs {
		fmt.Fprintf(&sb, "%s (%s)\n", tx.ID, tx.Reference)
		fmt.Fprintf(&sb, "User: %s\n", tx.Username)
		fmt.Fprintf(&sb, "Product: %s\n", tx.ProductType)
		fmt.Fprintf(&sb, "Total: %s\n", services.FormatRupiah(tx.FinalPrice))
		fmt.Fprintf(&sb, "Status: %s\n", tx.Status)
		fmt.Fprintf(&sb, "Expires: %s\n\n", tx.ExpiresAt.Format("15:04 02/01/2006"))
	}
	return sb.String()
}

func (b *Bot) reply(chatID int64, text string) {
	for _, part := range SplitMessage(text) {
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			log.Printf("Failed to send bot reply to %d: %v", chatID, err)
			return
		}
	}
}

// SplitMessage cuts text into Telegram-sized parts, preferring a blank line before splitBefore bytes
func SplitMessage(text string) []string {
	var parts []string
	for len(text) > MessageLimit {
		cut := strings.LastIndex(text[:splitBefore], "\n\n")
		if cut <= 0 {
			cut = splitBefore
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
