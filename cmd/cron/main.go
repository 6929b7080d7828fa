package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "apollo67-api/internal/bootstrap/dotenv"
	"apollo67-api/internal/cli"
	"apollo67-api/internal/config"
	"apollo67-api/internal/svc"
	"apollo67-api/pkg/marketdata"
)

const (
	ingestInterval  = 1 * time.Hour    // Full dataset ingestion interval
	quoteInterval   = 2 * time.Minute  // Quote monitoring interval
	apiTimeout      = 15 * time.Second // Timeout for individual pipeline runs
	shutdownTimeout = 10 * time.Second // Grace period for shutdown
)

var monitoredSymbols = []string{"AAPL", "MSFT", "NVDA"}

var ingestDatasets = []string{
	marketdata.DatasetInstrument,
	marketdata.DatasetPriceBar,
	marketdata.DatasetCorporateAction,
	marketdata.DatasetSessionCalendar,
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting ingestion cron...")

	configPath := "etc/apollo67.yaml"
	appCfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[main] Failed to load app config: %v", err)
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}
	log.Printf("  - Monitored Symbols: %v", monitoredSymbols)
	log.Printf("  - Intervals: ingest=%s, quotes=%s", ingestInterval, quoteInterval)

	svcCtx := svc.NewServiceContext(*appCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		runIngestLoop(ctx, svcCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runQuoteMonitor(ctx, svcCtx)
	}()

	log.Println("[main] Ingestion cron started. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Println("[main] Shutdown signal received, stopping tasks...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[main] All tasks stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("[main] Shutdown timeout exceeded, forcing exit")
	}

	log.Println("[main] Ingestion cron stopped")
}

// runIngestLoop runs the full dataset pipeline on a schedule.
func runIngestLoop(ctx context.Context, svcCtx *svc.ServiceContext) {
	ticker := time.NewTicker(ingestInterval)
	defer ticker.Stop()

	// Run once immediately on startup
	ingestAll(ctx, svcCtx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[ingest] Stopping ingest loop")
			return
		case <-ticker.C:
			ingestAll(ctx, svcCtx)
		}
	}
}

func ingestAll(parentCtx context.Context, svcCtx *svc.ServiceContext) {
	for _, dataset := range ingestDatasets {
		if parentCtx.Err() != nil {
			return
		}
		func(ds string) {
			ctx, cancel := context.WithTimeout(parentCtx, apiTimeout)
			defer cancel()

			start := time.Now()
			report, err := svcCtx.Ingest.IngestDataset(ctx, ds, 0)
			elapsed := time.Since(start)

			if err != nil {
				log.Printf("[ingest.%s] [ERROR] %v, took %dms", ds, err, elapsed.Milliseconds())
				return
			}

			log.Printf("[ingest.%s] [OK] provider=%s fallback=%t records=%d warnings=%d, took %dms",
				ds, report.Provider, report.UsedFallback, report.Records, len(report.Warnings),
				elapsed.Milliseconds())
		}(dataset)
	}
}

// runQuoteMonitor keeps the quote cache warm and surfaces vendor health.
func runQuoteMonitor(ctx context.Context, svcCtx *svc.ServiceContext) {
	ticker := time.NewTicker(quoteInterval)
	defer ticker.Stop()

	// Run once immediately on startup
	monitorQuotes(ctx, svcCtx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[quotes] Stopping quote monitor")
			return
		case <-ticker.C:
			monitorQuotes(ctx, svcCtx)
		}
	}
}

func monitorQuotes(parentCtx context.Context, svcCtx *svc.ServiceContext) {
	if parentCtx.Err() != nil {
		return
	}

	for _, symbol := range monitoredSymbols {
		func(sym string) {
			ctx, cancel := context.WithTimeout(parentCtx, apiTimeout)
			defer cancel()

			start := time.Now()
			result, err := svcCtx.Selector.Quote(ctx, sym)
			elapsed := time.Since(start)

			if err != nil {
				log.Printf("[quotes.%s] [ERROR] %v, took %dms", sym, err, elapsed.Milliseconds())
				return
			}

			if result.Quote.Last <= 0 {
				log.Printf("[quotes.%s] [WARN] invalid last=%f, took %dms", sym, result.Quote.Last, elapsed.Milliseconds())
				return
			}

			log.Printf("[quotes.%s] [OK] last=%.2f provider=%s, took %dms",
				sym, result.Quote.Last, result.Provider, elapsed.Milliseconds())
		}(symbol)
	}
}
