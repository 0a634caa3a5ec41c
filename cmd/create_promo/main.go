package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"autobuy_panel_echo/internal/config"
	"autobuy_panel_echo/internal/services"
	"autobuy_panel_echo/internal/store"
)

func main() {
	code := flag.String("code", "", "Coupon code (optional, random when empty)")
	discount := flag.Int("discount", 10, "Discount percent (1-100)")
	maxUses := flag.Int("max_uses", 50, "How many users may claim the coupon")
	days := flag.Int("days", 30, "Days until the coupon expires")

	flag.Parse()

	if *discount < 1 || *discount > 100 || *maxUses < 1 || *days < 1 {
		fmt.Println("Usage: create_promo [-code <CODE>] [-discount <percent>] [-max_uses <n>] [-days <n>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var records store.Store
	if cfg.DatabaseURL != "" {
		db, err := store.InitDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect DB: %v", err)
		}
		records = store.NewGormStore(db)
	} else {
		records, err = store.NewFileStore(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open data dir: %v", err)
		}
	}

	coupons := services.NewCouponService(records, services.NopNotifier{})
	ctx := context.Background()

	if *code == "" {
		promo, err := coupons.GeneratePromo(ctx)
		if err != nil {
			log.Fatalf("Failed to generate promo: %v", err)
		}
		log.Printf("Promo %s created: %d%%, %d uses, expires %s", promo.Code, promo.Discount, promo.MaxUses, promo.ExpiresAt.Format("2006-01-02"))
		return
	}

	promo, err := coupons.CreatePromo(ctx, services.CreatePromoInput{
		Code:          *code,
		Discount:      *discount,
		MaxUses:       *maxUses,
		ExpiresInDays: *days,
	})
	if err != nil {
		log.Fatalf("Failed to create promo: %v", err)
	}

	log.Printf("Promo %s created: %d%%, %d uses, expires %s", promo.Code, promo.Discount, promo.MaxUses, promo.ExpiresAt.Format("2006-01-02"))
}
