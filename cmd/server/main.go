package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"komisi/config"
	"komisi/internal/database"
	"komisi/internal/domain"
	"komisi/internal/repository"
	"komisi/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db, &cfg.Admin)
	if err := repository.NewSettingRepository(db).SeedDefaults(map[string]string{
		domain.SettingDefaultRatePercent:    strconv.FormatFloat(cfg.Commission.PlaceholderRatePercent, 'f', -1, 64),
		domain.SettingReconcileToleranceIDR: strconv.FormatInt(cfg.Commission.ReconcileTolerance, 10),
		domain.SettingMinPayoutIDR:          "50000",
	}); err != nil {
		log.Fatalf("settings: %v", err)
	}

	engine := router.Setup(db, cfg)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
