// Package types provides common type definitions for the mint booth service.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PrintStatus is the fulfilment state of a print request.
// Any status may follow any other; admins move requests freely.
type PrintStatus string

const (
	// PrintStatusPending is the state of a newly created request
	PrintStatusPending PrintStatus = "pending"
	// PrintStatusInProgress means the booth is printing the request
	PrintStatusInProgress PrintStatus = "in_progress"
	// PrintStatusCompleted means the print is ready for pickup
	PrintStatusCompleted PrintStatus = "completed"
	// PrintStatusCollected means the owner picked the print up
	PrintStatusCollected PrintStatus = "collected"
)

// PrintStatuses lists every valid status in lifecycle order.
var PrintStatuses = []PrintStatus{
	PrintStatusPending,
	PrintStatusInProgress,
	PrintStatusCompleted,
	PrintStatusCollected,
}

// Valid reports whether s is one of the four known statuses.
func (s PrintStatus) Valid() bool {
	for _, v := range PrintStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// PrintStatusNames returns the valid statuses as strings.
func PrintStatusNames() []string {
	names := make([]string, len(PrintStatuses))
	for i, s := range PrintStatuses {
		names[i] = string(s)
	}
	return names
}

// TShirtSize is the shirt size a print is requested on.
type TShirtSize string

const (
	SizeS  TShirtSize = "S"
	SizeM  TShirtSize = "M"
	SizeL  TShirtSize = "L"
	SizeXL TShirtSize = "XL"
)

// DefaultTShirtSize is used when a request omits the size.
const DefaultTShirtSize = SizeM

// TShirtSizes lists every valid size.
var TShirtSizes = []TShirtSize{SizeS, SizeM, SizeL, SizeXL}

// Valid reports whether z is a known size.
func (z TShirtSize) Valid() bool {
	for _, v := range TShirtSizes {
		if z == v {
			return true
		}
	}
	return false
}

// TShirtSizeNames returns the valid sizes as strings.
func TShirtSizeNames() []string {
	names := make([]string, len(TShirtSizes))
	for i, s := range TShirtSizes {
		names[i] = string(s)
	}
	return names
}

// ClaimStatus is the reconciled state of a wallet's free mint.
type ClaimStatus string

const (
	// ClaimStatusClaimed means the recorded sponsor payment is on chain
	ClaimStatusClaimed ClaimStatus = "claimed"
	// ClaimStatusNotClaimed covers no record, unconfirmed and unreachable states
	ClaimStatusNotClaimed ClaimStatus = "not_claimed"
)

// AssetID is an external NFT identifier. Clients send it as a JSON number or
// string; it is always stored as text.
type AssetID string

// UnmarshalJSON accepts a JSON string, an integer, or null.
func (a *AssetID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AssetID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("asset_id must be a string or number: %w", err)
	}
	*a = AssetID(n.String())
	return nil
}

// String returns the asset id text.
func (a AssetID) String() string {
	return string(a)
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes the total page count for a listing.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the number of rows to skip for this page.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
