// Package main lists sponsor payments that were signed but never landed on chain.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mint-booth/internal/adapter"
	"github.com/mint-booth/internal/config"
	"github.com/mint-booth/internal/logging"
	"github.com/mint-booth/internal/service"
	"github.com/mint-booth/internal/storage"
)

func main() {
	sinceFlag := flag.Duration("since", 24*time.Hour, "Only audit payments signed within this window")
	jsonFlag := flag.Bool("json", false, "Print results as JSON")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))

	if !cfg.Database.ClickHouse.Enabled {
		fmt.Println("ClickHouse is disabled (CLICKHOUSE_ENABLED=false); no sponsor payments are recorded")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	postgres, err := storage.NewPostgresDB(ctx, &cfg.Database.Postgres)
	if err != nil {
		fmt.Printf("Error connecting to Postgres: %v\n", err)
		os.Exit(1)
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(ctx, &cfg.Database.ClickHouse)
	if err != nil {
		fmt.Printf("Error connecting to ClickHouse: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = clickhouse.Close() }() // nolint:errcheck // cleanup in defer

	indexer, err := adapter.NewIndexerClient(&cfg.Algorand)
	if err != nil {
		fmt.Printf("Error creating indexer client: %v\n", err)
		os.Exit(1)
	}

	auditService := service.NewSponsorAuditService(
		storage.NewSponsorAuditRepository(clickhouse),
		storage.NewFreeMintClaimRepository(postgres),
		indexer,
	)

	since := time.Now().Add(-*sinceFlag)
	orphans, err := auditService.FindOrphans(ctx, since)
	if err != nil {
		fmt.Printf("Error auditing sponsor payments: %v\n", err)
		os.Exit(1)
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(orphans); err != nil {
			fmt.Printf("Error encoding results: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Sponsor payments since %s without a confirmed transaction: %d\n\n", since.Format(time.RFC3339), len(orphans))
	if len(orphans) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIGNED AT\tWALLET\tTXID\tAMOUNT\tREASON")
	for _, o := range orphans {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			o.Payment.SignedAt.Format(time.RFC3339),
			o.Payment.WalletAddress,
			o.Payment.TxID,
			o.Payment.Amount,
			o.Reason,
		)
	}
	_ = w.Flush()
}
