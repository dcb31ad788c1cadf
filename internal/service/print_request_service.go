package service

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/mint-booth/internal/errors"
	"github.com/mint-booth/internal/logging"
	"github.com/mint-booth/internal/models"
	"github.com/mint-booth/internal/storage"
	"github.com/mint-booth/internal/types"
)

const (
	// DefaultPageLimit is the page size used when none is given
	DefaultPageLimit = 50
	// MaxPageLimit is the largest page size either listing returns
	MaxPageLimit = 50

	conflictDetailKey = "printRequest"
)

// CreatePrintRequestInput is the public request to join the print queue
type CreatePrintRequestInput struct {
	WalletAddress string
	AssetID       types.AssetID
	TShirtSize    types.TShirtSize // empty selects types.DefaultTShirtSize
}

// PrintRequestPage is one page of a print request listing
type PrintRequestPage struct {
	Data       []*models.PrintRequest `json:"data"`
	Pagination types.Pagination       `json:"pagination"`
}

// PrintRequestService admits wallets to the print queue and lets admins move
// requests through fulfilment.
type PrintRequestService struct {
	requests PrintRequestRepository
	settings *SettingsService
}

// NewPrintRequestService creates a print request service
func NewPrintRequestService(requests PrintRequestRepository, settings *SettingsService) *PrintRequestService {
	return &PrintRequestService{
		requests: requests,
		settings: settings,
	}
}

// Create admits a wallet to the queue. Checks run in order: input, pause
// flag, capacity against a fresh count, existing wallet row, insert. The
// unique index on wallet_address decides concurrent duplicates.
func (s *PrintRequestService) Create(ctx context.Context, input CreatePrintRequestInput) (*models.PrintRequest, error) {
	wallet := strings.TrimSpace(input.WalletAddress)
	assetID := strings.TrimSpace(string(input.AssetID))
	if wallet == "" || assetID == "" {
		return nil, apperrors.NewValidationError("wallet_address and asset_id are required")
	}

	size := input.TShirtSize
	if size == "" {
		size = types.DefaultTShirtSize
	}
	if !size.Valid() {
		return nil, apperrors.NewInvalidEnumError("tshirt_size", types.TShirtSizeNames())
	}

	settings, err := s.settings.GetOrInit(ctx)
	if err != nil {
		return nil, err
	}
	if settings.IsPaused {
		return nil, apperrors.NewBoothPausedError()
	}

	count, err := s.requests.Count(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("count print requests", err)
	}
	if count >= settings.MaxPrintRequests {
		return nil, apperrors.NewBoothFullError(settings.MaxPrintRequests)
	}

	existing, err := s.requests.GetByWallet(ctx, wallet)
	switch {
	case err == nil:
		return nil, conflictError(existing)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, apperrors.NewDatabaseError("get print request", err)
	}

	created, err := s.requests.Insert(ctx, &models.PrintRequest{
		WalletAddress: wallet,
		AssetID:       assetID,
		TShirtSize:    size,
		Status:        types.PrintStatusPending,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		// Lost the race to a concurrent request for the same wallet
		existing, getErr := s.requests.GetByWallet(ctx, wallet)
		if getErr != nil {
			return nil, apperrors.NewDatabaseError("get print request", getErr)
		}
		return nil, conflictError(existing)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("create print request", err)
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"wallet_address": wallet,
		"id":             created.ID,
	}).Info("Print request created")

	return created, nil
}

// GetByWallet returns the wallet's print request
func (s *PrintRequestService) GetByWallet(ctx context.Context, walletAddress string) (*models.PrintRequest, error) {
	pr, err := s.requests.GetByWallet(ctx, strings.TrimSpace(walletAddress))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("No print request found")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get print request", err)
	}
	return pr, nil
}

// ListPublic returns print requests newest first
func (s *PrintRequestService) ListPublic(ctx context.Context, page, limit int) (*PrintRequestPage, error) {
	return s.list(ctx, page, limit, nil, false)
}

// ListAdmin returns print requests oldest first, in fulfilment order.
// statusFilter is a status name or "all"; unknown values list everything.
func (s *PrintRequestService) ListAdmin(ctx context.Context, page, limit int, statusFilter string) (*PrintRequestPage, error) {
	var status *types.PrintStatus
	if st := types.PrintStatus(strings.TrimSpace(statusFilter)); st.Valid() {
		status = &st
	}
	return s.list(ctx, page, limit, status, true)
}

// UpdateStatus sets the status of request id. Any status may follow any other.
func (s *PrintRequestService) UpdateStatus(ctx context.Context, id int64, status string) (*models.PrintRequest, error) {
	if strings.TrimSpace(status) == "" {
		return nil, apperrors.NewValidationError("status is required")
	}
	st := types.PrintStatus(status)
	if !st.Valid() {
		return nil, apperrors.NewInvalidEnumError("status", types.PrintStatusNames())
	}

	pr, err := s.requests.UpdateStatus(ctx, id, st)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("Print request not found")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("update print request", err)
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"id":     id,
		"status": st,
	}).Info("Print request status updated")

	return pr, nil
}

func (s *PrintRequestService) list(ctx context.Context, page, limit int, status *types.PrintStatus, ascending bool) (*PrintRequestPage, error) {
	page, limit, err := NormalizePage(page, limit)
	if err != nil {
		return nil, err
	}

	opts := storage.ListPrintRequestsOptions{
		Offset:    types.NewPagination(page, limit, 0).Offset(),
		Limit:     limit,
		Status:    status,
		Ascending: ascending,
	}
	rows, total, err := s.requests.List(ctx, opts)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list print requests", err)
	}

	return &PrintRequestPage{
		Data:       rows,
		Pagination: types.NewPagination(page, limit, total),
	}, nil
}

// NormalizePage applies the listing defaults. Zero means "not given": page
// defaults to 1 and limit to DefaultPageLimit. A negative page is rejected;
// limit is clamped to [1, MaxPageLimit].
func NormalizePage(page, limit int) (int, int, error) {
	if page < 0 {
		return 0, 0, apperrors.NewValidationError("Page must be greater than 0")
	}
	if page == 0 {
		page = 1
	}

	switch {
	case limit == 0:
		limit = DefaultPageLimit
	case limit < 1:
		limit = 1
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}

	return page, limit, nil
}

func conflictError(existing *models.PrintRequest) error {
	return apperrors.NewConflictError("Wallet address already has a print request", conflictDetailKey, existing)
}
