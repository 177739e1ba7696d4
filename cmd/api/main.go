package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waylbridge/internal/classify"
	"waylbridge/internal/config"
	"waylbridge/internal/currency"
	internalhttp "waylbridge/internal/http"
	"waylbridge/internal/images"
	"waylbridge/internal/lineitems"
	"waylbridge/internal/payreq"
	"waylbridge/internal/services"
	"waylbridge/internal/shopify"
	"waylbridge/internal/wayl"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	platform, err := shopify.New(
		cfg.Shopify.StoreDomain,
		cfg.Shopify.AdminToken,
		cfg.Shopify.APIKey,
		cfg.Shopify.WebhookSecret,
		time.Duration(cfg.Shopify.TimeoutSeconds)*time.Second,
	)
	if err != nil {
		log.Fatalf("shopify gateway init failed: %v", err)
	}

	links := wayl.NewClient(cfg.Wayl.APIBase, cfg.Wayl.APIKey,
		time.Duration(cfg.Wayl.TimeoutSeconds)*time.Second)

	conv := currency.NewConverter(
		cfg.Payment.SettlementCurrency,
		cfg.Payment.BaseRate,
		cfg.Payment.MinAmount,
		cfg.Payment.Multipliers,
	)

	classifier := classify.New(classify.Options{
		Keywords:           cfg.FreeRules.Keywords,
		DiscountEnabled:    cfg.FreeRules.Discount.Enabled,
		DiscountMinPercent: cfg.FreeRules.Discount.MinPercent,
		DiscountMaxPrice:   cfg.FreeRules.Discount.MaxPrice,
	})

	imageRules := make([]images.Rule, 0, len(cfg.Images.Rules))
	for _, r := range cfg.Images.Rules {
		imageRules = append(imageRules, images.Rule{Keywords: r.Keywords, URL: r.URL})
	}

	builder := lineitems.Builder{
		Conv:          conv,
		Classifier:    classifier,
		Images:        images.NewResolver(imageRules, cfg.Images.Fallback),
		ShippingImage: cfg.Images.Shipping,
		TaxImage:      cfg.Images.Tax,
		OrderImage:    cfg.Images.Order,
	}

	assembler := payreq.Assembler{
		CallbackURL: cfg.BaseURL + "/webhooks/wayl/payment",
		StoreDomain: cfg.Shopify.StoreDomain,
	}

	orderSvc := &services.OrderService{
		Links:     links,
		Platform:  platform,
		Builder:   builder,
		Assembler: assembler,
	}
	reconcileSvc := &services.ReconcileService{Platform: platform}

	h := internalhttp.NewHandler(orderSvc, reconcileSvc, platform)
	h.Verifier = platform
	h.Prober = links
	h.Production = cfg.Production()
	h.Rate = conv.Rate()
	h.PayBase = cfg.Wayl.PayBase

	srv := internalhttp.NewServer(h)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router,
	}

	go func() {
		log.Printf("api listening on %s", cfg.Server.Addr)
		log.Printf("settlement currency %s, base rate %d", conv.Settlement, conv.Rate())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
