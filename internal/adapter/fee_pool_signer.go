package adapter

import (
	"fmt"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// FeePoolSigner signs sponsor payments with the custodial fee pool key.
// Signing does not mutate shared state, so it is safe for concurrent use.
type FeePoolSigner struct {
	account crypto.Account
}

// NewFeePoolSigner derives the fee pool account from its 25-word mnemonic
func NewFeePoolSigner(phrase string) (*FeePoolSigner, error) {
	sk, err := mnemonic.ToPrivateKey(strings.TrimSpace(phrase))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}

	account, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}

	return &FeePoolSigner{account: account}, nil
}

// NewFeePoolSignerFromAccount wraps an existing account
func NewFeePoolSignerFromAccount(account crypto.Account) *FeePoolSigner {
	return &FeePoolSigner{account: account}
}

// Address returns the fee pool address
func (s *FeePoolSigner) Address() string {
	return s.account.Address.String()
}

// SignTransaction signs tx with the fee pool key
func (s *FeePoolSigner) SignTransaction(tx types.Transaction) (string, []byte, error) {
	txid, signed, err := crypto.SignTransaction(s.account.PrivateKey, tx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign sponsor transaction: %w", err)
	}
	return txid, signed, nil
}
