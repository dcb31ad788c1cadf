package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/google/uuid"

	"github.com/mint-booth/internal/adapter"
	apperrors "github.com/mint-booth/internal/errors"
	"github.com/mint-booth/internal/logging"
	"github.com/mint-booth/internal/models"
	"github.com/mint-booth/internal/storage"
	appTypes "github.com/mint-booth/internal/types"
)

const sponsorNotePrefix = "mint-booth:"

// SponsoredGroup is a two-transaction group: index 0 is the signed sponsor
// payment, the rest are the caller's unsigned transactions.
type SponsoredGroup struct {
	Group []string `json:"group"`
}

// SubmitResult is the outcome of a confirmed group submission
type SubmitResult struct {
	TxID           string `json:"txid"`
	ConfirmedRound uint64 `json:"confirmed_round"`
}

// FreeMintDeps collects the collaborators of FreeMintService. Cache and
// Audit are optional.
type FreeMintDeps struct {
	Claims             FreeMintClaimRepository
	Cache              ClaimCache
	Audit              SponsorAuditRepository
	Chain              adapter.ChainClient
	Indexer            adapter.Indexer
	Signer             adapter.Signer
	ConfirmationRounds uint64
}

// FreeMintService builds fee-sponsored mint groups and reconciles claims
// against the indexer. Claimed status is always derived from chain state;
// the ledger row only says which txid to look for.
type FreeMintService struct {
	claims             FreeMintClaimRepository
	cache              ClaimCache
	audit              SponsorAuditRepository
	chain              adapter.ChainClient
	indexer            adapter.Indexer
	signer             adapter.Signer
	confirmationRounds uint64

	now     func() time.Time
	newNote func() []byte
}

// NewFreeMintService creates a free mint service
func NewFreeMintService(deps FreeMintDeps) *FreeMintService {
	rounds := deps.ConfirmationRounds
	if rounds == 0 {
		rounds = 4
	}
	return &FreeMintService{
		claims:             deps.Claims,
		cache:              deps.Cache,
		audit:              deps.Audit,
		chain:              deps.Chain,
		indexer:            deps.Indexer,
		signer:             deps.Signer,
		confirmationRounds: rounds,
		now:                time.Now,
		newNote: func() []byte {
			return []byte(sponsorNotePrefix + uuid.NewString())
		},
	}
}

// GetStatus reports whether the wallet's free mint is confirmed on chain.
// Indexer failures read as not claimed.
func (s *FreeMintService) GetStatus(ctx context.Context, walletAddress string) (appTypes.ClaimStatus, error) {
	wallet := strings.TrimSpace(walletAddress)
	if wallet == "" {
		return "", apperrors.NewValidationError("wallet_address is required")
	}
	return s.resolveClaim(ctx, wallet, false)
}

// BuildSponsoredGroup groups a fee pool payment with the caller's unsigned
// transaction, signs the payment and records its txid as the wallet's
// pending claim. Nothing is persisted unless every upstream call succeeds.
func (s *FreeMintService) BuildSponsoredGroup(ctx context.Context, txnBase64 string) (*SponsoredGroup, error) {
	userTxn, err := decodeUnsignedTxn(txnBase64)
	if err != nil {
		return nil, err
	}
	sender := userTxn.Sender.String()
	logger := logging.FromContext(ctx).WithField("wallet_address", sender)

	// An indexer outage must not read as not_claimed here: that would sign a
	// second sponsor payment for a wallet that already claimed.
	status, err := s.resolveClaim(ctx, sender, true)
	if err != nil {
		return nil, err
	}
	if status == appTypes.ClaimStatusClaimed {
		return nil, apperrors.NewAlreadyClaimedError()
	}

	balance, err := s.chain.AccountBalance(ctx, sender)
	if err != nil {
		return nil, upstreamError("account lookup", err)
	}
	amount := SponsorContribution(balance.Amount, balance.MinBalance)

	params, err := s.chain.SuggestedParams(ctx)
	if err != nil {
		return nil, upstreamError("transaction params", err)
	}

	payment, err := transaction.MakePaymentTxn(s.signer.Address(), sender, amount, s.newNote(), "", params)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build sponsor payment", err)
	}

	grouped, err := transaction.AssignGroupID([]types.Transaction{payment, userTxn}, "")
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("txn cannot be grouped: %v", err))
	}

	txid, signed, err := s.signer.SignTransaction(grouped[0])
	if err != nil {
		return nil, apperrors.NewInternalError("failed to sign sponsor payment", err)
	}

	if _, err := s.claims.Upsert(ctx, sender, txid); err != nil {
		return nil, apperrors.NewDatabaseError("record free mint claim", err)
	}

	s.recordAudit(ctx, &models.SponsorPayment{
		TxID:           txid,
		GroupID:        base64.StdEncoding.EncodeToString(grouped[0].Group[:]),
		WalletAddress:  sender,
		SponsorAddress: s.signer.Address(),
		Amount:         amount,
		FirstValid:     uint64(grouped[0].FirstValid),
		LastValid:      uint64(grouped[0].LastValid),
		SignedAt:       s.now().UTC(),
	})

	logger.WithFields(map[string]interface{}{
		"txid":   txid,
		"amount": amount,
	}).Info("Sponsored group built")

	group := make([]string, 0, len(grouped))
	group = append(group, base64.StdEncoding.EncodeToString(signed))
	for _, tx := range grouped[1:] {
		group = append(group, base64.StdEncoding.EncodeToString(msgpack.Encode(tx)))
	}

	return &SponsoredGroup{Group: group}, nil
}

// SubmitGroup sends a fully signed group and waits a bounded number of
// rounds for it to confirm.
func (s *FreeMintService) SubmitGroup(ctx context.Context, group []string) (*SubmitResult, error) {
	if len(group) == 0 {
		return nil, apperrors.NewValidationError("group is required")
	}

	var raw []byte
	for i, encoded := range group {
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("group[%d] is not valid base64", i))
		}
		var stx types.SignedTxn
		if err := msgpack.Decode(b, &stx); err != nil || !isSigned(stx) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("group[%d] is not a signed transaction", i))
		}
		raw = append(raw, b...)
	}

	txid, err := s.chain.SendRawGroup(ctx, raw)
	if err != nil {
		return nil, upstreamError("group submission", err)
	}

	round, err := s.chain.WaitForConfirmation(ctx, txid, s.confirmationRounds)
	if err != nil {
		return nil, upstreamError("confirmation", err)
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"txid":            txid,
		"confirmed_round": round,
	}).Info("Sponsored group confirmed")

	return &SubmitResult{TxID: txid, ConfirmedRound: round}, nil
}

// resolveClaim derives the claim status of wallet. Cache failures degrade to
// a fresh lookup. An unknown txid is not_claimed; any other indexer failure
// is not_claimed too unless strict is set, in which case it is returned as an
// upstream error.
func (s *FreeMintService) resolveClaim(ctx context.Context, wallet string, strict bool) (appTypes.ClaimStatus, error) {
	logger := logging.FromContext(ctx).WithField("wallet_address", wallet)

	if s.cache != nil {
		claimed, err := s.cache.IsClaimed(ctx, wallet)
		if err != nil {
			logger.WithError(err).Warn("Claim cache read failed")
		} else if claimed {
			return appTypes.ClaimStatusClaimed, nil
		}
	}

	claim, err := s.claims.GetByWallet(ctx, wallet)
	if errors.Is(err, storage.ErrNotFound) {
		return appTypes.ClaimStatusNotClaimed, nil
	}
	if err != nil {
		return "", apperrors.NewDatabaseError("get free mint claim", err)
	}

	sender, err := s.indexer.LookupTransactionSender(ctx, claim.TxID)
	if err != nil {
		if strict && !errors.Is(err, adapter.ErrTransactionNotFound) {
			return "", upstreamError("claim lookup", err)
		}
		logger.WithField("txid", claim.TxID).WithError(err).Debug("Claim transaction not found on indexer")
		return appTypes.ClaimStatusNotClaimed, nil
	}
	if sender != s.signer.Address() {
		return appTypes.ClaimStatusNotClaimed, nil
	}

	if s.cache != nil {
		if err := s.cache.MarkClaimed(ctx, wallet); err != nil {
			logger.WithError(err).Warn("Claim cache write failed")
		}
	}
	return appTypes.ClaimStatusClaimed, nil
}

func (s *FreeMintService) recordAudit(ctx context.Context, payment *models.SponsorPayment) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, payment); err != nil {
		logging.FromContext(ctx).WithField("txid", payment.TxID).WithError(err).Warn("Failed to record sponsor payment audit")
	}
}

func decodeUnsignedTxn(txnBase64 string) (types.Transaction, error) {
	var tx types.Transaction

	encoded := strings.TrimSpace(txnBase64)
	if encoded == "" {
		return tx, apperrors.NewValidationError("txn is required")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return tx, apperrors.NewValidationError("txn must be base64 encoded")
	}
	if err := msgpack.Decode(raw, &tx); err != nil {
		return tx, apperrors.NewValidationError("txn is not a valid transaction")
	}
	if tx.Sender == (types.Address{}) {
		return tx, apperrors.NewValidationError("txn has no sender")
	}
	if tx.Group != (types.Digest{}) {
		return tx, apperrors.NewValidationError("txn is already part of a group")
	}

	return tx, nil
}

func isSigned(stx types.SignedTxn) bool {
	return stx.Sig != (types.Signature{}) || len(stx.Msig.Subsigs) > 0 || len(stx.Lsig.Logic) > 0
}

// upstreamError maps an adapter failure to the client-facing taxonomy
func upstreamError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, adapter.ErrConfirmationTimeout) {
		return apperrors.NewUpstreamTimeoutError(op, err)
	}
	return apperrors.NewUpstreamError(op, err)
}
