package service

import (
	"context"
	"time"

	"github.com/mint-booth/internal/models"
	"github.com/mint-booth/internal/storage"
	"github.com/mint-booth/internal/types"
)

// Repository interfaces for dependency injection. The storage package
// provides the Postgres, Redis and ClickHouse implementations.

// SettingsRepository persists the singleton settings row
type SettingsRepository interface {
	GetOrCreate(ctx context.Context, defaults models.Settings) (*models.Settings, error)
	Update(ctx context.Context, patch storage.SettingsPatch) (*models.Settings, error)
}

// PrintRequestCounter counts the print booth queue
type PrintRequestCounter interface {
	Count(ctx context.Context) (int, error)
}

// PrintRequestRepository persists print requests. Insert must return
// storage.ErrDuplicate when the wallet already has a row.
type PrintRequestRepository interface {
	PrintRequestCounter
	Insert(ctx context.Context, req *models.PrintRequest) (*models.PrintRequest, error)
	GetByWallet(ctx context.Context, walletAddress string) (*models.PrintRequest, error)
	List(ctx context.Context, opts storage.ListPrintRequestsOptions) ([]*models.PrintRequest, int, error)
	UpdateStatus(ctx context.Context, id int64, status types.PrintStatus) (*models.PrintRequest, error)
}

// FreeMintClaimRepository persists the pending sponsor txid per wallet
type FreeMintClaimRepository interface {
	GetByWallet(ctx context.Context, walletAddress string) (*models.FreeMintClaim, error)
	Upsert(ctx context.Context, walletAddress, txID string) (*models.FreeMintClaim, error)
}

// ClaimCache remembers wallets already confirmed as claimed
type ClaimCache interface {
	IsClaimed(ctx context.Context, walletAddress string) (bool, error)
	MarkClaimed(ctx context.Context, walletAddress string) error
}

// SponsorAuditRepository stores every signed sponsor payment
type SponsorAuditRepository interface {
	Record(ctx context.Context, payment *models.SponsorPayment) error
	ListSince(ctx context.Context, since time.Time) ([]models.SponsorPayment, error)
}
