package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/mint-booth/internal/adapter"
	"github.com/mint-booth/internal/models"
	"github.com/mint-booth/internal/storage"
	appTypes "github.com/mint-booth/internal/types"
)

var errFake = errors.New("fake failure")

// In-memory repositories for testing

type fakeSettingsRepo struct {
	mu        sync.Mutex
	row       *models.Settings
	creates   int
	updates   int
	getErr    error
	updateErr error
}

func (f *fakeSettingsRepo) GetOrCreate(_ context.Context, defaults models.Settings) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.row == nil {
		now := time.Now()
		row := defaults
		row.ID = 1
		row.CreatedAt, row.UpdatedAt = now, now
		f.row = &row
		f.creates++
	}
	cp := *f.row
	return &cp, nil
}

func (f *fakeSettingsRepo) Update(_ context.Context, patch storage.SettingsPatch) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.row == nil {
		return nil, storage.ErrNotFound
	}
	if patch.IsPaused != nil {
		f.row.IsPaused = *patch.IsPaused
	}
	if patch.MaxPrintRequests != nil {
		f.row.MaxPrintRequests = *patch.MaxPrintRequests
	}
	f.row.UpdatedAt = time.Now()
	f.updates++
	cp := *f.row
	return &cp, nil
}

type fakePrintRequestRepo struct {
	mu     sync.Mutex
	rows   []*models.PrintRequest
	nextID int64
	clock  time.Time

	countErr error
	// hideOnce makes the next GetByWallet miss, simulating a concurrent insert
	// landing between the existence check and the insert
	hideOnce bool
}

func newFakePrintRequestRepo() *fakePrintRequestRepo {
	return &fakePrintRequestRepo{clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakePrintRequestRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakePrintRequestRepo) seed(wallet string, status appTypes.PrintStatus) *models.PrintRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	now := f.tick()
	pr := &models.PrintRequest{
		ID: f.nextID, WalletAddress: wallet, AssetID: "1", TShirtSize: appTypes.SizeM,
		Status: status, CreatedAt: now, UpdatedAt: now,
	}
	f.rows = append(f.rows, pr)
	return pr
}

func (f *fakePrintRequestRepo) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.rows), nil
}

func (f *fakePrintRequestRepo) Insert(_ context.Context, req *models.PrintRequest) (*models.PrintRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.WalletAddress == req.WalletAddress {
			return nil, storage.ErrDuplicate
		}
	}
	f.nextID++
	now := f.tick()
	pr := *req
	pr.ID = f.nextID
	pr.CreatedAt, pr.UpdatedAt = now, now
	f.rows = append(f.rows, &pr)
	cp := pr
	return &cp, nil
}

func (f *fakePrintRequestRepo) GetByWallet(_ context.Context, wallet string) (*models.PrintRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hideOnce {
		f.hideOnce = false
		return nil, storage.ErrNotFound
	}
	for _, r := range f.rows {
		if r.WalletAddress == wallet {
			cp := *r
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakePrintRequestRepo) List(_ context.Context, opts storage.ListPrintRequestsOptions) ([]*models.PrintRequest, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*models.PrintRequest
	for _, r := range f.rows {
		if opts.Status == nil || r.Status == *opts.Status {
			cp := *r
			matched = append(matched, &cp)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if opts.Ascending {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if opts.Offset >= total {
		return []*models.PrintRequest{}, total, nil
	}
	end := opts.Offset + opts.Limit
	if end > total {
		end = total
	}
	return matched[opts.Offset:end], total, nil
}

func (f *fakePrintRequestRepo) UpdateStatus(_ context.Context, id int64, status appTypes.PrintStatus) (*models.PrintRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			r.Status = status
			r.UpdatedAt = f.tick()
			cp := *r
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

type fakeClaimRepo struct {
	mu      sync.Mutex
	claims  map[string]*models.FreeMintClaim
	upserts int
	getErr  error
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: make(map[string]*models.FreeMintClaim)}
}

func (f *fakeClaimRepo) GetByWallet(_ context.Context, wallet string) (*models.FreeMintClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.claims[wallet]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClaimRepo) Upsert(_ context.Context, wallet, txID string) (*models.FreeMintClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	c, ok := f.claims[wallet]
	if !ok {
		c = &models.FreeMintClaim{ID: int64(len(f.claims) + 1), WalletAddress: wallet, CreatedAt: time.Now()}
		f.claims[wallet] = c
	}
	c.TxID = txID
	c.UpdatedAt = time.Now()
	cp := *c
	return &cp, nil
}

type fakeClaimCache struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func newFakeClaimCache() *fakeClaimCache {
	return &fakeClaimCache{claimed: make(map[string]bool)}
}

func (f *fakeClaimCache) IsClaimed(_ context.Context, wallet string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.claimed[wallet], nil
}

func (f *fakeClaimCache) MarkClaimed(_ context.Context, wallet string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.claimed[wallet] = true
	return nil
}

type fakeAudit struct {
	mu       sync.Mutex
	payments []models.SponsorPayment
	err      error
}

func (f *fakeAudit) Record(_ context.Context, p *models.SponsorPayment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakeAudit) ListSince(_ context.Context, since time.Time) ([]models.SponsorPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.SponsorPayment
	for _, p := range f.payments {
		if !p.SignedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Chain fakes

type fakeChain struct {
	mu         sync.Mutex
	balances   map[string]*adapter.AccountBalance
	balanceErr error
	paramsErr  error

	sent      [][]byte
	sendErr   error
	waitRound uint64
	waitErr   error
}

func newFakeChain() *fakeChain {
	return &fakeChain{balances: make(map[string]*adapter.AccountBalance), waitRound: 1234}
}

func (f *fakeChain) AccountBalance(_ context.Context, address string) (*adapter.AccountBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	if b, ok := f.balances[address]; ok {
		return b, nil
	}
	return &adapter.AccountBalance{Address: address, Amount: 100000, MinBalance: 100000}, nil
}

func (f *fakeChain) SuggestedParams(context.Context) (types.SuggestedParams, error) {
	if f.paramsErr != nil {
		return types.SuggestedParams{}, f.paramsErr
	}
	return types.SuggestedParams{
		Fee:             0,
		MinFee:          1000,
		FirstRoundValid: 1000,
		LastRoundValid:  2000,
		GenesisID:       "testnet-v1.0",
		GenesisHash:     make([]byte, 32),
	}, nil
}

func (f *fakeChain) SendRawGroup(_ context.Context, raw []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, raw)
	return "SUBMITTED-TXID", nil
}

func (f *fakeChain) WaitForConfirmation(context.Context, string, uint64) (uint64, error) {
	if f.waitErr != nil {
		return 0, f.waitErr
	}
	return f.waitRound, nil
}

type fakeIndexer struct {
	mu      sync.Mutex
	senders map[string]string
	err     error
	lookups int
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{senders: make(map[string]string)}
}

func (f *fakeIndexer) LookupTransactionSender(_ context.Context, txid string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return "", f.err
	}
	sender, ok := f.senders[txid]
	if !ok {
		return "", fmt.Errorf("%w: %s", adapter.ErrTransactionNotFound, txid)
	}
	return sender, nil
}
