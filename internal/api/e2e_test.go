package api

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mint-booth/internal/auth"
	"github.com/mint-booth/internal/models"
	"github.com/mint-booth/internal/service"
	"github.com/mint-booth/internal/storage"
	"github.com/mint-booth/internal/types"
)

// memoryStore backs the booth services with in-memory settings and print
// requests, enforcing the same one-row-per-wallet rule as the database.
type memoryStore struct {
	mu       sync.Mutex
	settings *models.Settings
	requests []*models.PrintRequest
	nextID   int64
	clock    time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{clock: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (m *memoryStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

type memorySettings struct{ *memoryStore }

func (m memorySettings) GetOrCreate(_ context.Context, defaults models.Settings) (*models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		now := m.tick()
		s := defaults
		s.ID, s.CreatedAt, s.UpdatedAt = 1, now, now
		m.settings = &s
	}
	cp := *m.settings
	return &cp, nil
}

func (m memorySettings) Update(_ context.Context, patch storage.SettingsPatch) (*models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return nil, storage.ErrNotFound
	}
	if patch.IsPaused != nil {
		m.settings.IsPaused = *patch.IsPaused
	}
	if patch.MaxPrintRequests != nil {
		m.settings.MaxPrintRequests = *patch.MaxPrintRequests
	}
	m.settings.UpdatedAt = m.tick()
	cp := *m.settings
	return &cp, nil
}

type memoryPrintRequests struct{ *memoryStore }

func (m memoryPrintRequests) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests), nil
}

func (m memoryPrintRequests) Insert(_ context.Context, req *models.PrintRequest) (*models.PrintRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.WalletAddress == req.WalletAddress {
			return nil, storage.ErrDuplicate
		}
	}
	m.nextID++
	now := m.tick()
	pr := *req
	pr.ID, pr.CreatedAt, pr.UpdatedAt = m.nextID, now, now
	m.requests = append(m.requests, &pr)
	cp := pr
	return &cp, nil
}

func (m memoryPrintRequests) GetByWallet(_ context.Context, wallet string) (*models.PrintRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.WalletAddress == wallet {
			cp := *r
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m memoryPrintRequests) List(_ context.Context, opts storage.ListPrintRequestsOptions) ([]*models.PrintRequest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []*models.PrintRequest
	for _, r := range m.requests {
		if opts.Status == nil || r.Status == *opts.Status {
			cp := *r
			rows = append(rows, &cp)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if opts.Ascending {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	total := len(rows)
	if opts.Offset >= total {
		return []*models.PrintRequest{}, total, nil
	}
	end := opts.Offset + opts.Limit
	if end > total {
		end = total
	}
	return rows[opts.Offset:end], total, nil
}

func (m memoryPrintRequests) UpdateStatus(_ context.Context, id int64, status types.PrintStatus) (*models.PrintRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id {
			r.Status = status
			r.UpdatedAt = m.tick()
			cp := *r
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func createBoothServer(t *testing.T) (*Server, *memoryStore, string) {
	t.Helper()
	store := newMemoryStore()
	requests := memoryPrintRequests{store}
	settings := service.NewSettingsService(memorySettings{store}, requests, 100)
	tokens := auth.NewTokenManager(testJWTSecret, 7*24*time.Hour)

	server := NewServer(testServerConfig(), Services{
		Settings:      settings,
		PrintRequests: service.NewPrintRequestService(requests, settings),
		FreeMint:      &mockFreeMintService{},
		Auth:          service.NewAuthService(service.AdminCredentials{Username: testAdminUser, Password: testAdminPassword}, tokens),
	}, nil)

	token, _, err := tokens.Issue(auth.RoleAdmin)
	require.NoError(t, err)
	return server, store, token
}

func TestPrintRequestLifecycle(t *testing.T) {
	server, _, token := createBoothServer(t)

	// Three wallets are already queued
	for _, wallet := range []string{"X", "Y", "Z"} {
		w := doRequest(t, server, "POST", "/print-request", map[string]interface{}{"wallet_address": wallet, "asset_id": 1})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doRequest(t, server, "POST", "/print-request", map[string]interface{}{"wallet_address": "A", "asset_id": 42, "tshirt_size": "M"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "42", created["asset_id"])
	id := int(created["id"].(float64))

	w = doRequest(t, server, "PATCH", "/print-request/"+strconv.Itoa(id), `{"status":"in_progress"}`, withBearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody(t, w)
	assert.Equal(t, "in_progress", updated["status"])
	assert.Equal(t, created["created_at"], updated["created_at"])
	assert.NotEqual(t, created["updated_at"], updated["updated_at"])

	w = doRequest(t, server, "POST", "/print-request", map[string]interface{}{"wallet_address": "A", "asset_id": 42})
	require.Equal(t, http.StatusConflict, w.Code)
	existing := decodeBody(t, w)["printRequest"].(map[string]interface{})
	assert.Equal(t, "in_progress", existing["status"])
	assert.Equal(t, float64(id), existing["id"])
}

func TestBoothPauseAndCapacity(t *testing.T) {
	server, store, token := createBoothServer(t)

	w := doRequest(t, server, "PATCH", "/admin/settings", `{"is_paused":true}`, withBearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, server, "POST", "/print-request", `{"wallet_address":"A","asset_id":"1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "BOOTH_PAUSED", decodeBody(t, w)["code"])

	w = doRequest(t, server, "PATCH", "/admin/settings", `{"is_paused":false,"max_print_requests":1}`, withBearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, server, "POST", "/print-request", `{"wallet_address":"A","asset_id":"1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, server, "POST", "/print-request", `{"wallet_address":"B","asset_id":"1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "BOOTH_FULL", decodeBody(t, w)["code"])

	w = doRequest(t, server, "GET", "/booth-status", nil)
	status := decodeBody(t, w)
	assert.Equal(t, false, status["available"])
	assert.Equal(t, float64(1), status["current_count"])

	w = doRequest(t, server, "PATCH", "/admin/settings", `{"max_print_requests":0}`, withBearer(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	store.mu.Lock()
	assert.Len(t, store.requests, 1)
	store.mu.Unlock()
}

func TestPrintRequestListings(t *testing.T) {
	server, _, token := createBoothServer(t)

	for _, wallet := range []string{"A", "B", "C"} {
		w := doRequest(t, server, "POST", "/print-request", map[string]interface{}{"wallet_address": wallet, "asset_id": 1})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := doRequest(t, server, "PATCH", "/print-request/2", `{"status":"completed"}`, withBearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, server, "GET", "/print-request?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	public := decodeBody(t, w)
	data := public["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "C", data[0].(map[string]interface{})["wallet_address"])
	assert.Equal(t, map[string]interface{}{"page": float64(1), "limit": float64(2), "total": float64(3), "totalPages": float64(2)}, public["pagination"])

	w = doRequest(t, server, "GET", "/admin/print-request?status=completed", nil, withBearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeBody(t, w)["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "B", data[0].(map[string]interface{})["wallet_address"])

	w = doRequest(t, server, "GET", "/admin/print-request?status=all", nil, withBearer(token))
	data = decodeBody(t, w)["data"].([]interface{})
	require.Len(t, data, 3)
	assert.Equal(t, "A", data[0].(map[string]interface{})["wallet_address"])

	w = doRequest(t, server, "GET", "/print-request?page=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminSettingsInitializesOnRead(t *testing.T) {
	server, store, token := createBoothServer(t)

	w := doRequest(t, server, "GET", "/admin/settings", nil, withBearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["is_paused"])
	assert.Equal(t, float64(100), body["max_print_requests"])
	assert.Equal(t, float64(0), body["current_count"])

	store.mu.Lock()
	assert.NotNil(t, store.settings)
	store.mu.Unlock()
}
