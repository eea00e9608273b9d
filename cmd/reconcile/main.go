package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"komisi/config"
	"komisi/internal/commission"
	"komisi/internal/database"
	"komisi/internal/domain"
	"komisi/internal/repository"
	"komisi/internal/service"

	"github.com/joho/godotenv"
)

// Audit CLI: compares the commission ledger against a recomputation from the
// order history and the current catalog, and prints any discrepancies as JSON.
// With -repair it also replays missing entries and rebuilds drifted wallets.
func main() {
	affiliateID := flag.Uint("affiliate", 0, "reconcile a single affiliate profile ID (0 = all)")
	asOfRaw := flag.String("as-of", "", "reconcile as of this RFC3339 instant (default now)")
	repair := flag.Bool("repair", false, "apply mechanical repairs (repost missing entries, rebuild drifted wallets)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.Load()

	asOf := time.Now()
	if *asOfRaw != "" {
		t, err := time.Parse(time.RFC3339, *asOfRaw)
		if err != nil {
			log.Fatalf("-as-of must be RFC3339: %v", err)
		}
		asOf = t
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	affiliateRepo := repository.NewAffiliateRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	unprocessedRepo := repository.NewUnprocessedRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	placeholderRate := settingRepo.GetFloat64(domain.SettingDefaultRatePercent, cfg.Commission.PlaceholderRatePercent)
	tolerance := settingRepo.GetInt64(domain.SettingReconcileToleranceIDR, cfg.Commission.ReconcileTolerance)

	rates := commission.NewRateResolver(productRepo, placeholderRate)
	attribution := commission.NewAttributionResolver(affiliateRepo)
	ledger := commission.NewLedgerWriter(commissionRepo)
	engine := commission.NewEngine(rates, attribution, ledger, unprocessedRepo)
	reconciler := commission.NewReconciler(commissionRepo, rates, tolerance)
	svc := service.NewReconcileService(reconciler, engine, orderRepo, walletRepo, affiliateRepo)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *affiliateID == 0 {
		if *repair {
			log.Fatal("-repair requires -affiliate; bulk repair is not supported")
		}
		dirty, err := svc.RunAll(asOf)
		if err != nil {
			log.Fatalf("reconcile: %v", err)
		}
		if len(dirty) == 0 {
			log.Println("all affiliate ledgers reconcile clean")
			return
		}
		for _, report := range dirty {
			_ = enc.Encode(report)
		}
		os.Exit(1)
	}

	if *repair {
		result, err := svc.Repair(*affiliateID, asOf)
		if err != nil {
			log.Fatalf("repair: %v", err)
		}
		_ = enc.Encode(result)
		log.Printf("repair done: reposted=%d rebuilt=%v skipped=%d", result.Reposted, result.Rebuilt, len(result.Skipped))
		return
	}

	report, err := svc.Run(*affiliateID, asOf)
	if err != nil {
		log.Fatalf("reconcile: %v", err)
	}
	_ = enc.Encode(report)
	if !report.Clean() {
		os.Exit(1)
	}
}
