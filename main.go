package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"booking-bot/config"
	"booking-bot/internal/bot"
	"booking-bot/internal/lang"
	"booking-bot/internal/services"
	"booking-bot/internal/storage"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file, using environment as is")
	}
	cfg := config.Load()

	langStore, err := lang.Load(cfg.LocalePath)
	if err != nil {
		log.Fatal("locale load failed", zap.Error(err))
	}

	db, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		log.Fatal("storage init failed", zap.Error(err))
	}
	defer db.Close()

	if err := db.Init(); err != nil {
		log.Fatal("schema init failed", zap.Error(err))
	}

	bookingBot, err := bot.New(cfg, db, langStore, log)
	if err != nil {
		log.Fatal("bot init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := services.NewSweeper(db, bookingBot, cfg.GraceWindow, cfg.SweepInterval, cfg.SendTimeout, log)
	go sweeper.Run(ctx)

	go func() {
		<-ctx.Done()
		bookingBot.Stop()
	}()

	log.Info("bot started")
	bookingBot.Start()
}
