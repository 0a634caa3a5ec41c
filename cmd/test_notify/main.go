package main

import (
	"context"
	"flag"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"autobuy_panel_echo/internal/config"
	"autobuy_panel_echo/internal/services"
)

func main() {
	msg := flag.String("msg", "Test message from the autobuy panel", "Message body")
	channel := flag.String("channel", "telegram", "telegram|email")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var notifier services.Notifier
	switch *channel {
	case "telegram":
		if cfg.Telegram.BotToken == "" || cfg.Telegram.AdminID == 0 {
			log.Fatal("TELEGRAM_BOT_TOKEN and ADMIN_TELEGRAM_ID must be set")
		}
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			log.Fatalf("Failed to initialize bot: %v", err)
		}
		notifier = services.NewTelegramNotifier(api, cfg.Telegram.AdminID)
	case "email":
		if cfg.AdminEmail == "" {
			log.Fatal("ADMIN_EMAIL must be set")
		}
		notifier = services.NewEmailNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From, cfg.AdminEmail)
	default:
		log.Fatalf("Unknown channel %q", *channel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("Sending %s notification: %s", *channel, *msg)
	if err := notifier.Notify(ctx, *msg); err != nil {
		log.Fatalf("Failed to send message: %v", err)
	}

	log.Println("Message sent successfully!")
}
