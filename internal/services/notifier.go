package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"autobuy_panel_echo/internal/models"
)

const notifyTimeout = 10 * time.Second

// Notifier delivers a text message to the administrator
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// TelegramSender is the part of tgbotapi.BotAPI used for outbound messages
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends admin notifications to a fixed chat
type TelegramNotifier struct {
	sender TelegramSender
	chatID int64
}

func NewTelegramNotifier(sender TelegramSender, adminChatID int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: adminChatID}
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if n.sender == nil || n.chatID == 0 {
		return fmt.Errorf("telegram notifier not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// MultiNotifier fans a message out to every configured notifier
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopNotifier drops every message
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) error { return nil }

// dispatchNotification sends text on its own goroutine. Failures are only logged.
func dispatchNotification(n Notifier, text string) {
	if n == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := n.Notify(ctx, text); err != nil {
			log.Printf("Failed to send admin notification: %v", err)
		}
	}()
}

// FormatRupiah renders an amount the way Indonesian receipts do, e.g. "Rp 12.500"
func FormatRupiah(amount int64) string {
	digits := decimal.NewFromInt(amount).Abs().StringFixed(0)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if amount < 0 {
		return "Rp -" + b.String()
	}
	return "Rp " + b.String()
}

func paymentSuccessMessage(tx models.Transaction) string {
	var b strings.Builder
	b.WriteString("✅ PAYMENT SUCCESSFUL!\n\n")
	fmt.Fprintf(&b, "👤 User: %s\n", tx.Username)
	fmt.Fprintf(&b, "🎯 Product: %s\n", tx.ProductType)
	fmt.Fprintf(&b, "💰 Total: %s\n", FormatRupiah(tx.FinalPrice))
	if tx.DiscountApplied > 0 {
		fmt.Fprintf(&b, "🎫 Discount: %s\n", FormatRupiah(tx.DiscountApplied))
	}
	fmt.Fprintf(&b, "📝 Type: %s\n", tx.PanelType())
	fmt.Fprintf(&b, "🆔 Ref: %s", tx.Reference)
	return b.String()
}

func cancellationMessage(tx models.Transaction) string {
	return fmt.Sprintf("❌ TRANSACTION CANCELLED!\n\n"+
		"👤 User: %s\n"+
		"🎯 Product: %s\n"+
		"💰 Total: %s\n"+
		"🆔 Ref: %s\n"+
		"📝 Reason: cancelled by user",
		tx.Username, tx.ProductType, FormatRupiah(tx.FinalPrice), tx.Reference)
}

func couponClaimMessage(user models.User, promo models.Promo, discount models.Discount) string {
	return fmt.Sprintf("🎫 COUPON CLAIMED!\n\n"+
		"👤 User: %s (%s)\n"+
		"🏷️ Code: %s\n"+
		"💸 Discount: %d%%\n"+
		"📊 Used: %d/%d\n"+
		"⏰ Valid until: %s",
		user.Name, user.Username, promo.Code, discount.DiscountPercent,
		promo.UsedCount, promo.MaxUses, discount.ExpiresAt.Format("2006-01-02 15:04"))
}
