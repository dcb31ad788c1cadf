// Package adapter wraps the Algorand node, the indexer and the custodial
// fee-pool key behind small interfaces the services depend on.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/mint-booth/internal/circuitbreaker"
)

// AccountBalance is the spendable state of an account in microAlgos
type AccountBalance struct {
	Address    string
	Amount     uint64
	MinBalance uint64
}

// ChainClient is the subset of algod the free mint flow needs
type ChainClient interface {
	// AccountBalance returns the current balance and minimum balance of address
	AccountBalance(ctx context.Context, address string) (*AccountBalance, error)

	// SuggestedParams returns the network parameters for a new transaction
	SuggestedParams(ctx context.Context) (types.SuggestedParams, error)

	// SendRawGroup submits concatenated signed transactions and returns the
	// id of the first one
	SendRawGroup(ctx context.Context, raw []byte) (string, error)

	// WaitForConfirmation blocks until txid is confirmed or maxRounds rounds
	// have passed, returning the confirmed round
	WaitForConfirmation(ctx context.Context, txid string, maxRounds uint64) (uint64, error)
}

// Indexer looks up confirmed transactions
type Indexer interface {
	// LookupTransactionSender returns the sender of a confirmed transaction
	LookupTransactionSender(ctx context.Context, txid string) (string, error)
}

// Signer holds the custodial sponsor key
type Signer interface {
	// Address is the sponsor account address
	Address() string

	// SignTransaction signs tx and returns its id and the encoded signed transaction
	SignTransaction(tx types.Transaction) (txid string, signed []byte, err error)
}

var (
	// ErrConfirmationTimeout is returned when a transaction is not confirmed
	// within the allowed number of rounds
	ErrConfirmationTimeout = errors.New("transaction not confirmed within round limit")

	// ErrTransactionNotFound is returned when the indexer has no record of a txid
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTransactionRejected is returned when the node drops a pending transaction
	ErrTransactionRejected = errors.New("transaction rejected by node")

	// ErrInvalidMnemonic is returned when the fee pool mnemonic cannot be decoded
	ErrInvalidMnemonic = errors.New("invalid fee pool mnemonic")
)

// AdapterError wraps an upstream failure with the node and operation it came from
type AdapterError struct {
	Upstream string // "algod" or "indexer"
	Op       string // Operation that failed (e.g. "AccountBalance")
	Err      error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Upstream, e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

func newAdapterError(upstream, op string, err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Upstream: upstream, Op: op, Err: err}
}

// upstreamStatus returns the HTTP status code the SDK reported for err. The
// SDK's typed errors (common.NotFound, common.BadRequest) are plain error
// aliases, so the "HTTP <code>:" prefix of the message is the only reliable
// marker.
func upstreamStatus(err error) (int, bool) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		var code int
		if _, scanErr := fmt.Sscanf(e.Error(), "HTTP %d:", &code); scanErr == nil {
			return code, true
		}
	}
	return 0, false
}

// isUpstreamFailure reports whether err means the node itself is unhealthy.
// Transport errors, timeouts and 5xx responses count; a 4xx is the node
// answering about a bad or unknown request.
func isUpstreamFailure(err error) bool {
	code, ok := upstreamStatus(err)
	if !ok {
		return true
	}
	return code >= http.StatusInternalServerError
}

// breakerConfig is the default breaker for name, tripped only by upstream failures
func breakerConfig(name string) *circuitbreaker.Config {
	cfg := circuitbreaker.DefaultConfig(name)
	cfg.IsFailure = isUpstreamFailure
	return cfg
}
