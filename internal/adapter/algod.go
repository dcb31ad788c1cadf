package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/mint-booth/internal/circuitbreaker"
	"github.com/mint-booth/internal/config"
	"github.com/mint-booth/internal/logging"
	"github.com/mint-booth/internal/retry"
)

const algodUpstream = "algod"

// AlgodClient implements ChainClient against an algod REST endpoint
type AlgodClient struct {
	client  *algod.Client
	breaker *circuitbreaker.CircuitBreaker
	retry   *retry.Config
	timeout time.Duration
}

// NewAlgodClient creates an algod client from configuration
func NewAlgodClient(cfg *config.AlgorandConfig) (*AlgodClient, error) {
	client, err := algod.MakeClient(cfg.AlgodAddress, cfg.AlgodToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create algod client: %w", err)
	}

	return &AlgodClient{
		client:  client,
		breaker: circuitbreaker.NewCircuitBreaker(breakerConfig(algodUpstream)),
		retry:   readRetryConfig(),
		timeout: cfg.RequestTimeout,
	}, nil
}

// AccountBalance returns the balance and minimum balance of address
func (c *AlgodClient) AccountBalance(ctx context.Context, address string) (*AccountBalance, error) {
	var balance *AccountBalance

	err := c.call(ctx, "AccountBalance", true, func(ctx context.Context) error {
		info, err := c.client.AccountInformation(address).Do(ctx)
		if err != nil {
			return err
		}
		balance = &AccountBalance{
			Address:    address,
			Amount:     info.Amount,
			MinBalance: info.MinBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return balance, nil
}

// SuggestedParams returns the parameters for a transaction built now
func (c *AlgodClient) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	var params types.SuggestedParams

	err := c.call(ctx, "SuggestedParams", true, func(ctx context.Context) error {
		p, err := c.client.SuggestedParams().Do(ctx)
		if err != nil {
			return err
		}
		params = p
		return nil
	})

	return params, err
}

// SendRawGroup submits a signed transaction group. Submission is not
// retried: a resend after a lost response would be rejected as a duplicate.
func (c *AlgodClient) SendRawGroup(ctx context.Context, raw []byte) (string, error) {
	var txid string

	err := c.call(ctx, "SendRawGroup", false, func(ctx context.Context) error {
		id, err := c.client.SendRawTransaction(raw).Do(ctx)
		if err != nil {
			return err
		}
		txid = id
		return nil
	})

	return txid, err
}

// WaitForConfirmation polls the node round by round until txid is confirmed,
// rejected, or maxRounds rounds have passed.
func (c *AlgodClient) WaitForConfirmation(ctx context.Context, txid string, maxRounds uint64) (uint64, error) {
	round, err := waitForConfirmation(ctx, &algodRounds{client: c.client}, txid, maxRounds)
	if err != nil && !errors.Is(err, ErrConfirmationTimeout) && !errors.Is(err, ErrTransactionRejected) {
		return 0, newAdapterError(algodUpstream, "WaitForConfirmation", err)
	}
	return round, err
}

// call runs fn under the request timeout and the circuit breaker, retrying
// transient failures when retryable is set.
func (c *AlgodClient) call(ctx context.Context, op string, retryable bool, fn func(ctx context.Context) error) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	run := func(ctx context.Context) error {
		if !retryable {
			return fn(ctx)
		}
		return retry.Do(ctx, c.retry, func(ctx context.Context, _ int) error {
			return fn(ctx)
		})
	}

	if err := c.breaker.Execute(ctx, run); err != nil {
		logging.FromContext(ctx).WithFields(map[string]interface{}{
			"upstream": algodUpstream,
			"op":       op,
		}).WithError(err).Warn("Upstream call failed")
		return newAdapterError(algodUpstream, op, err)
	}
	return nil
}

// readRetryConfig retries node reads only on upstream failures; a 4xx
// answer will not change on resend.
func readRetryConfig() *retry.Config {
	cfg := retry.DefaultConfig()
	cfg.ShouldRetry = isUpstreamFailure
	return cfg
}

// roundSource is the node state the confirmation loop polls
type roundSource interface {
	LastRound(ctx context.Context) (uint64, error)
	Pending(ctx context.Context, txid string) (confirmedRound uint64, poolError string, err error)
	WaitAfter(ctx context.Context, round uint64) (uint64, error)
}

func waitForConfirmation(ctx context.Context, src roundSource, txid string, maxRounds uint64) (uint64, error) {
	current, err := src.LastRound(ctx)
	if err != nil {
		return 0, err
	}
	deadline := current + maxRounds

	for {
		confirmed, poolError, err := src.Pending(ctx, txid)
		if err != nil {
			return 0, err
		}
		if confirmed > 0 {
			return confirmed, nil
		}
		if poolError != "" {
			return 0, fmt.Errorf("%w: %s", ErrTransactionRejected, poolError)
		}
		if current >= deadline {
			return 0, fmt.Errorf("%w: %s after %d rounds", ErrConfirmationTimeout, txid, maxRounds)
		}

		if _, err := src.WaitAfter(ctx, current); err != nil {
			return 0, err
		}
		current++
	}
}

type algodRounds struct {
	client *algod.Client
}

func (a *algodRounds) LastRound(ctx context.Context) (uint64, error) {
	status, err := a.client.Status().Do(ctx)
	if err != nil {
		return 0, err
	}
	return status.LastRound, nil
}

func (a *algodRounds) Pending(ctx context.Context, txid string) (uint64, string, error) {
	info, _, err := a.client.PendingTransactionInformation(txid).Do(ctx)
	if err != nil {
		return 0, "", err
	}
	return info.ConfirmedRound, info.PoolError, nil
}

func (a *algodRounds) WaitAfter(ctx context.Context, round uint64) (uint64, error) {
	status, err := a.client.StatusAfterBlock(round).Do(ctx)
	if err != nil {
		return 0, err
	}
	return status.LastRound, nil
}
