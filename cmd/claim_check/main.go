// Package main reports the free mint claim status of a wallet.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mint-booth/internal/adapter"
	"github.com/mint-booth/internal/config"
	"github.com/mint-booth/internal/logging"
	"github.com/mint-booth/internal/service"
	"github.com/mint-booth/internal/storage"
)

func main() {
	walletFlag := flag.String("wallet", "", "Wallet address to check (required)")
	flag.Parse()

	if *walletFlag == "" {
		fmt.Println("Usage: claim_check -wallet <address>")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	postgres, err := storage.NewPostgresDB(ctx, &cfg.Database.Postgres)
	if err != nil {
		fmt.Printf("Error connecting to Postgres: %v\n", err)
		os.Exit(1)
	}
	defer postgres.Close()

	indexer, err := adapter.NewIndexerClient(&cfg.Algorand)
	if err != nil {
		fmt.Printf("Error creating indexer client: %v\n", err)
		os.Exit(1)
	}

	signer, err := adapter.NewFeePoolSigner(cfg.Algorand.FeePoolMnemonic)
	if err != nil {
		fmt.Printf("Error loading fee pool account: %v\n", err)
		os.Exit(1)
	}

	claims := storage.NewFreeMintClaimRepository(postgres)

	// The cache is skipped so the answer always comes from the indexer
	freeMint := service.NewFreeMintService(service.FreeMintDeps{
		Claims:  claims,
		Indexer: indexer,
		Signer:  signer,
	})

	fmt.Printf("Wallet:  %s\n", *walletFlag)
	fmt.Printf("Sponsor: %s\n", signer.Address())

	claim, err := claims.GetByWallet(ctx, *walletFlag)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fmt.Println("Ledger:  no sponsor transaction recorded")
	case err != nil:
		fmt.Printf("Error reading claim ledger: %v\n", err)
		os.Exit(1)
	default:
		fmt.Printf("Ledger:  txid %s (updated %s)\n", claim.TxID, claim.UpdatedAt.Format(time.RFC3339))
	}

	status, err := freeMint.GetStatus(ctx, *walletFlag)
	if err != nil {
		fmt.Printf("Error resolving claim status: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Status:  %s\n", status)
}
