package main

import (
	"io"
	"log"
	"os"

	"staybook/internal/config"
	"staybook/internal/http/handlers"
	"staybook/internal/repos"
	"staybook/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.Open(cfg.DBDriver, cfg.DBDSN, cfg.SeedDemo)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	deps := handlers.NewDeps(db, cfg, nil)
	if cfg.ResetOutbox != "" {
		f, err := os.OpenFile(cfg.ResetOutbox, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			log.Fatalf("open reset outbox: %v", err)
		}
		defer f.Close()
		deps.Auth.Notifier = &services.OutboxNotifier{W: f}
	}
	app := handlers.NewApp(cfg, deps)

	log.Fatal(app.Listen(":" + cfg.Port))
}
