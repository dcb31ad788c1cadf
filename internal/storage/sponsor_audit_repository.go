package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/mint-booth/internal/models"
)

// SponsorAuditRepository appends signed fee pool payments to ClickHouse
type SponsorAuditRepository struct {
	db *ClickHouseDB
}

// NewSponsorAuditRepository creates a new sponsor audit repository
func NewSponsorAuditRepository(db *ClickHouseDB) *SponsorAuditRepository {
	return &SponsorAuditRepository{db: db}
}

// Record appends one signed sponsor payment
func (r *SponsorAuditRepository) Record(ctx context.Context, p *models.SponsorPayment) error {
	batch, err := r.db.Conn().PrepareBatch(ctx, `INSERT INTO sponsor_payments`)
	if err != nil {
		return fmt.Errorf("failed to prepare sponsor payment batch: %w", err)
	}
	defer func() { _ = batch.Abort() }()

	if err := batch.AppendStruct(p); err != nil {
		return fmt.Errorf("failed to append sponsor payment: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to record sponsor payment: %w", err)
	}
	return nil
}

// ListSince returns payments signed at or after since, oldest first
func (r *SponsorAuditRepository) ListSince(ctx context.Context, since time.Time) ([]models.SponsorPayment, error) {
	var payments []models.SponsorPayment
	err := r.db.Conn().Select(ctx, &payments, `
		SELECT txid, group_id, wallet_address, sponsor_address, amount, first_valid, last_valid, signed_at
		FROM sponsor_payments
		WHERE signed_at >= ?
		ORDER BY signed_at ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list sponsor payments: %w", err)
	}
	return payments, nil
}
