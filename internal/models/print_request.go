// Package models provides the persisted records of the mint booth service.
package models

import (
	"time"

	"github.com/mint-booth/internal/types"
)

// PrintRequest is a wallet's single entry in the print booth queue
type PrintRequest struct {
	ID            int64             `json:"id" db:"id"`
	WalletAddress string            `json:"wallet_address" db:"wallet_address"`
	AssetID       string            `json:"asset_id" db:"asset_id"`
	TShirtSize    types.TShirtSize  `json:"tshirt_size" db:"tshirt_size"`
	Status        types.PrintStatus `json:"status" db:"status"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}
