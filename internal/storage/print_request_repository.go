package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mint-booth/internal/models"
	"github.com/mint-booth/internal/types"
)

const printRequestColumns = `id, wallet_address, asset_id, tshirt_size, status, created_at, updated_at`

// ListPrintRequestsOptions selects one page of print requests
type ListPrintRequestsOptions struct {
	Offset    int
	Limit     int
	Status    *types.PrintStatus // nil lists every status
	Ascending bool               // order by created_at ascending instead of descending
}

// PrintRequestRepository persists the print booth queue
type PrintRequestRepository struct {
	db *PostgresDB
}

// NewPrintRequestRepository creates a new print request repository
func NewPrintRequestRepository(db *PostgresDB) *PrintRequestRepository {
	return &PrintRequestRepository{db: db}
}

// Insert stores a new print request. The unique index on wallet_address is
// the source of truth for one-request-per-wallet: a conflicting insert
// returns ErrDuplicate instead of a row.
func (r *PrintRequestRepository) Insert(ctx context.Context, req *models.PrintRequest) (*models.PrintRequest, error) {
	row := r.db.Pool().QueryRow(ctx, `
		INSERT INTO print_requests (wallet_address, asset_id, tshirt_size, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wallet_address) DO NOTHING
		RETURNING `+printRequestColumns,
		req.WalletAddress, req.AssetID, string(req.TShirtSize), string(req.Status),
	)

	created, err := scanPrintRequest(row)
	if err != nil {
		if isNoRows(err) || isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to insert print request: %w", err)
	}

	return created, nil
}

// GetByWallet returns the print request for a wallet
func (r *PrintRequestRepository) GetByWallet(ctx context.Context, walletAddress string) (*models.PrintRequest, error) {
	row := r.db.Pool().QueryRow(ctx, `
		SELECT `+printRequestColumns+`
		FROM print_requests
		WHERE wallet_address = $1
	`, walletAddress)

	pr, err := scanPrintRequest(row)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get print request: %w", err)
	}

	return pr, nil
}

// Count returns the number of print requests in the queue
func (r *PrintRequestRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool().QueryRow(ctx, `SELECT count(*) FROM print_requests`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count print requests: %w", err)
	}
	return count, nil
}

// List returns one page of print requests and the total matching the filter
func (r *PrintRequestRepository) List(ctx context.Context, opts ListPrintRequestsOptions) ([]*models.PrintRequest, int, error) {
	order := "DESC"
	if opts.Ascending {
		order = "ASC"
	}

	var status *string
	if opts.Status != nil {
		s := string(*opts.Status)
		status = &s
	}

	// id breaks ties between rows created in the same instant
	rows, err := r.db.Pool().Query(ctx, `
		SELECT `+printRequestColumns+`
		FROM print_requests
		WHERE ($1::print_request_status IS NULL OR status = $1::print_request_status)
		ORDER BY created_at `+order+`, id `+order+`
		LIMIT $2 OFFSET $3
	`, status, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list print requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.PrintRequest, 0, opts.Limit)
	for rows.Next() {
		pr, err := scanPrintRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan print request: %w", err)
		}
		requests = append(requests, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate print requests: %w", err)
	}

	var total int
	err = r.db.Pool().QueryRow(ctx, `
		SELECT count(*)
		FROM print_requests
		WHERE ($1::print_request_status IS NULL OR status = $1::print_request_status)
	`, status).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count print requests: %w", err)
	}

	return requests, total, nil
}

// UpdateStatus sets the status of a print request and refreshes updated_at
func (r *PrintRequestRepository) UpdateStatus(ctx context.Context, id int64, status types.PrintStatus) (*models.PrintRequest, error) {
	row := r.db.Pool().QueryRow(ctx, `
		UPDATE print_requests
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+printRequestColumns,
		id, string(status),
	)

	pr, err := scanPrintRequest(row)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update print request: %w", err)
	}

	return pr, nil
}

func scanPrintRequest(row pgx.Row) (*models.PrintRequest, error) {
	var (
		pr     models.PrintRequest
		size   string
		status string
	)
	if err := row.Scan(&pr.ID, &pr.WalletAddress, &pr.AssetID, &size, &status, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
		return nil, err
	}
	pr.TShirtSize = types.TShirtSize(size)
	pr.Status = types.PrintStatus(status)
	return &pr, nil
}
