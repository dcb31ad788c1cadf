package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/indexer"

	"github.com/mint-booth/internal/circuitbreaker"
	"github.com/mint-booth/internal/config"
)

const indexerUpstream = "indexer"

// IndexerClient implements Indexer against an Algorand indexer endpoint
type IndexerClient struct {
	client  *indexer.Client
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
}

// NewIndexerClient creates an indexer client from configuration
func NewIndexerClient(cfg *config.AlgorandConfig) (*IndexerClient, error) {
	client, err := indexer.MakeClient(cfg.IndexerAddress, cfg.IndexerToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer client: %w", err)
	}

	return &IndexerClient{
		client:  client,
		breaker: circuitbreaker.NewCircuitBreaker(breakerConfig(indexerUpstream)),
		timeout: cfg.RequestTimeout,
	}, nil
}

// LookupTransactionSender returns the sender of txid. An unknown txid yields
// ErrTransactionNotFound and does not count against the breaker.
func (c *IndexerClient) LookupTransactionSender(ctx context.Context, txid string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var sender string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		resp, err := c.client.LookupTransaction(txid).Do(ctx)
		if err != nil {
			return err
		}
		sender = resp.Transaction.Sender
		return nil
	})
	if err != nil {
		if code, ok := upstreamStatus(err); ok && code == http.StatusNotFound {
			err = fmt.Errorf("%w: %s", ErrTransactionNotFound, txid)
		}
		return "", newAdapterError(indexerUpstream, "LookupTransactionSender", err)
	}

	return sender, nil
}
