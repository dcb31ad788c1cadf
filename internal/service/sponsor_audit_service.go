package service

import (
	"context"
	"errors"
	"time"

	"github.com/mint-booth/internal/adapter"
	apperrors "github.com/mint-booth/internal/errors"
	"github.com/mint-booth/internal/logging"
	"github.com/mint-booth/internal/models"
	"github.com/mint-booth/internal/storage"
)

// Orphan reasons
const (
	// OrphanSuperseded means the wallet rebuilt its group and this payment
	// was never submitted
	OrphanSuperseded = "superseded"
	// OrphanUnsubmitted means the payment is still the wallet's pending
	// claim but is not on chain
	OrphanUnsubmitted = "unsubmitted"
	// OrphanSenderMismatch means the txid is on chain but was not sent by
	// the recorded sponsor
	OrphanSenderMismatch = "sender_mismatch"
)

// OrphanedPayment is a signed sponsor payment that did not land as recorded
type OrphanedPayment struct {
	Payment models.SponsorPayment `json:"payment"`
	Reason  string                `json:"reason"`
}

// SponsorAuditService compares the sponsor payment log with the chain
type SponsorAuditService struct {
	audit   SponsorAuditRepository
	claims  FreeMintClaimRepository
	indexer adapter.Indexer
}

// NewSponsorAuditService creates a sponsor audit service
func NewSponsorAuditService(audit SponsorAuditRepository, claims FreeMintClaimRepository, indexer adapter.Indexer) *SponsorAuditService {
	return &SponsorAuditService{
		audit:   audit,
		claims:  claims,
		indexer: indexer,
	}
}

// FindOrphans returns the payments signed since since that the indexer does
// not attribute to the sponsor.
func (s *SponsorAuditService) FindOrphans(ctx context.Context, since time.Time) ([]OrphanedPayment, error) {
	payments, err := s.audit.ListSince(ctx, since)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list sponsor payments", err)
	}

	logger := logging.FromContext(ctx)
	var orphans []OrphanedPayment

	for _, p := range payments {
		sender, err := s.indexer.LookupTransactionSender(ctx, p.TxID)
		if err == nil {
			if sender != p.SponsorAddress {
				orphans = append(orphans, OrphanedPayment{Payment: p, Reason: OrphanSenderMismatch})
			}
			continue
		}
		if !errors.Is(err, adapter.ErrTransactionNotFound) {
			return nil, apperrors.NewUpstreamError("sponsor payment lookup", err)
		}
		logger.WithField("txid", p.TxID).WithError(err).Debug("Sponsor payment not on indexer")

		reason := OrphanUnsubmitted
		claim, err := s.claims.GetByWallet(ctx, p.WalletAddress)
		switch {
		case err == nil && claim.TxID != p.TxID:
			reason = OrphanSuperseded
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return nil, apperrors.NewDatabaseError("get free mint claim", err)
		}
		orphans = append(orphans, OrphanedPayment{Payment: p, Reason: reason})
	}

	return orphans, nil
}
