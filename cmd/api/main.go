package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"netcheck/internal/config"
	"netcheck/internal/httpapi"
	"netcheck/internal/logging"
	"netcheck/internal/notify"
	"netcheck/internal/probe"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	checks := probe.NewDispatcher(logger, notify.NewWebhook(cfg.WebhookURL))
	api := httpapi.NewServer(logger, checks)

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.Int("rate_rpm", cfg.RateRPM),
		zap.Bool("notify", cfg.WebhookURL != ""),
	)
	if err := http.ListenAndServe(cfg.Addr, api.Router(cfg.RateRPM, cfg.RateBurst)); err != nil {
		log.Fatal(err)
	}
}
