package models

import "time"

// FreeMintClaim points at the sponsor transaction most recently built for a wallet.
// A row alone does not mean the mint was claimed; see service.FreeMintService.
type FreeMintClaim struct {
	ID            int64     `json:"id" db:"id"`
	WalletAddress string    `json:"wallet_address" db:"wallet_address"`
	TxID          string    `json:"txid" db:"txid"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// SponsorPayment is an audit entry for a signed fee pool payment
type SponsorPayment struct {
	TxID           string    `json:"txid" ch:"txid"`
	GroupID        string    `json:"group_id" ch:"group_id"`
	WalletAddress  string    `json:"wallet_address" ch:"wallet_address"`
	SponsorAddress string    `json:"sponsor_address" ch:"sponsor_address"`
	Amount         uint64    `json:"amount" ch:"amount"`
	FirstValid     uint64    `json:"first_valid" ch:"first_valid"`
	LastValid      uint64    `json:"last_valid" ch:"last_valid"`
	SignedAt       time.Time `json:"signed_at" ch:"signed_at"`
}
