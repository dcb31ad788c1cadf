package storage

import (
	"context"
	"fmt"

	"github.com/mint-booth/internal/models"
)

// FreeMintClaimRepository stores the latest sponsor transaction id per wallet
type FreeMintClaimRepository struct {
	db *PostgresDB
}

// NewFreeMintClaimRepository creates a new free mint claim repository
func NewFreeMintClaimRepository(db *PostgresDB) *FreeMintClaimRepository {
	return &FreeMintClaimRepository{db: db}
}

// GetByWallet returns the claim row for a wallet
func (r *FreeMintClaimRepository) GetByWallet(ctx context.Context, walletAddress string) (*models.FreeMintClaim, error) {
	var c models.FreeMintClaim
	err := r.db.Pool().QueryRow(ctx, `
		SELECT id, wallet_address, txid, created_at, updated_at
		FROM free_mint_claims
		WHERE wallet_address = $1
	`, walletAddress).Scan(&c.ID, &c.WalletAddress, &c.TxID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get free mint claim: %w", err)
	}
	return &c, nil
}

// Upsert records txid as the wallet's pending claim, replacing any earlier pointer
func (r *FreeMintClaimRepository) Upsert(ctx context.Context, walletAddress, txID string) (*models.FreeMintClaim, error) {
	var c models.FreeMintClaim
	err := r.db.Pool().QueryRow(ctx, `
		INSERT INTO free_mint_claims (wallet_address, txid)
		VALUES ($1, $2)
		ON CONFLICT (wallet_address) DO UPDATE
		SET txid = EXCLUDED.txid, updated_at = now()
		RETURNING id, wallet_address, txid, created_at, updated_at
	`, walletAddress, txID).Scan(&c.ID, &c.WalletAddress, &c.TxID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert free mint claim: %w", err)
	}
	return &c, nil
}
