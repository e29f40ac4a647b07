package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/earny00/steam-hidden-gem-hunter/config"
	"github.com/earny00/steam-hidden-gem-hunter/httputil"
	"github.com/earny00/steam-hidden-gem-hunter/logging"
	"github.com/earny00/steam-hidden-gem-hunter/scheduler"
	"github.com/earny00/steam-hidden-gem-hunter/scraper"
	"github.com/earny00/steam-hidden-gem-hunter/storage"
	"github.com/earny00/steam-hidden-gem-hunter/workers"
)

var (
	scanNow = flag.Bool("scan", false, "Run one discovery scan and exit")
	region  = flag.String("region", "kr", "Region code for -scan")
	refresh = flag.Bool("refresh", false, "Drop the cached snapshot before scanning")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting steam-hidden-gem-hunter...")
	log.Printf("Loaded %d regions", len(cfg.Regions))
	for code, r := range cfg.Regions {
		log.Printf("  - %s %s (%s)", r.Flag, r.Name, code)
	}

	ctx := context.Background()

	clients := httputil.NewClients()

	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		log.Fatalf("Failed to create cache dir: %v", err)
	}
	cache := storage.NewSnapshotStore(cfg.CacheDir)

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer store.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	var archive *storage.PostgresStore
	if cfg.DatabaseURL != "" {
		archive, err = storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer archive.Close()
		log.Printf("Archive connected: %s", maskConnectionString(cfg.DatabaseURL))
	}

	orchestrator := scraper.NewOrchestrator(cfg, clients, cache)
	orchestrator.SetStores(store, archive)

	if *scanNow {
		runScan(ctx, cfg, cache, orchestrator)
		return
	}

	// Daemon mode
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg, orchestrator)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	uploader := newUploader(ctx, cfg)
	mediaWorker := workers.NewMediaWorker(cache, regionCodes(cfg), uploader)
	sched.SetMediaWorker(mediaWorker)
	go mediaWorker.Run(ctx, 10*time.Minute)
	log.Println("Media worker started")

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

func runScan(ctx context.Context, cfg *config.Config, cache *storage.SnapshotStore, orchestrator *scraper.Orchestrator) {
	if *refresh {
		if err := cache.Invalidate(*region); err != nil {
			log.Printf("Warning: could not drop snapshot: %v", err)
		}
	}

	candidates, cached, err := orchestrator.LoadOrDiscover(ctx, *region)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	source := "fresh scan"
	if cached {
		source = "cached snapshot"
	}
	fmt.Printf("\n%d candidates for region %s (%s)\n\n", len(candidates), *region, source)

	for i, c := range candidates {
		fmt.Printf("%2d. %s\n", i+1, c.Title)
		fmt.Printf("    %s | %d%% of %d reviews | released %s (%d days ago)\n",
			c.PriceDisplay, c.RatingPercent, c.ReviewCount,
			c.ReleaseDate.Format(storage.DateLayout), c.DaysSinceRelease)
		fmt.Printf("    %s\n", c.Tags)
	}
}

func newUploader(ctx context.Context, cfg *config.Config) workers.Uploader {
	if !cfg.S3.Configured() {
		return workers.NewNoOpUploader()
	}

	uploader, err := storage.NewS3Uploader(ctx, storage.S3Config{
		Bucket:          cfg.S3.Bucket,
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
	if err != nil {
		log.Printf("Warning: S3 uploader unavailable, artwork mirroring disabled: %v", err)
		return workers.NewNoOpUploader()
	}
	return uploader
}

func regionCodes(cfg *config.Config) []string {
	var codes []string
	for code := range cfg.Regions {
		codes = append(codes, code)
	}
	return codes
}

// maskConnectionString hides the password when logging a DSN.
func maskConnectionString(connStr string) string {
	schemeEnd := strings.Index(connStr, "://")
	if schemeEnd < 0 {
		return connStr
	}

	rest := connStr[schemeEnd+3:]
	at := strings.Index(rest, "@")
	if at < 0 {
		return connStr
	}

	colon := strings.Index(rest[:at], ":")
	if colon < 0 {
		return connStr
	}

	return connStr[:schemeEnd+3] + rest[:colon+1] + "****" + rest[at:]
}
