package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mint-booth/internal/auth"
	"github.com/mint-booth/internal/models"
	"github.com/mint-booth/internal/service"
	"github.com/mint-booth/internal/types"
)

const (
	testJWTSecret     = "api-test-secret-with-enough-entropy"
	testAdminUser     = "admin"
	testAdminPassword = "booth-password"
	testOrigin        = "http://localhost:5173"
)

// Mock services for testing

type mockSettingsService struct {
	getFunc    func(ctx context.Context) (*models.SettingsView, error)
	updateFunc func(ctx context.Context, input service.UpdateSettingsInput) (*models.SettingsView, error)
	statusFunc func(ctx context.Context) (*models.BoothStatus, error)
}

func (m *mockSettingsService) Get(ctx context.Context) (*models.SettingsView, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx)
	}
	return &models.SettingsView{
		Settings:     models.Settings{ID: 1, MaxPrintRequests: 100},
		CurrentCount: 3,
	}, nil
}

func (m *mockSettingsService) Update(ctx context.Context, input service.UpdateSettingsInput) (*models.SettingsView, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, input)
	}
	view := &models.SettingsView{Settings: models.Settings{ID: 1, MaxPrintRequests: 100}}
	if input.IsPaused != nil {
		view.IsPaused = *input.IsPaused
	}
	if input.MaxPrintRequests != nil {
		view.MaxPrintRequests = *input.MaxPrintRequests
	}
	return view, nil
}

func (m *mockSettingsService) BoothStatus(ctx context.Context) (*models.BoothStatus, error) {
	if m.statusFunc != nil {
		return m.statusFunc(ctx)
	}
	return &models.BoothStatus{MaxPrintRequests: 100, CurrentCount: 3, Available: true}, nil
}

type mockPrintRequestService struct {
	createFunc       func(ctx context.Context, input service.CreatePrintRequestInput) (*models.PrintRequest, error)
	getByWalletFunc  func(ctx context.Context, wallet string) (*models.PrintRequest, error)
	listPublicFunc   func(ctx context.Context, page, limit int) (*service.PrintRequestPage, error)
	listAdminFunc    func(ctx context.Context, page, limit int, status string) (*service.PrintRequestPage, error)
	updateStatusFunc func(ctx context.Context, id int64, status string) (*models.PrintRequest, error)
}

func (m *mockPrintRequestService) Create(ctx context.Context, input service.CreatePrintRequestInput) (*models.PrintRequest, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, input)
	}
	return &models.PrintRequest{
		ID:            1,
		WalletAddress: input.WalletAddress,
		AssetID:       string(input.AssetID),
		TShirtSize:    input.TShirtSize,
		Status:        types.PrintStatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}, nil
}

func (m *mockPrintRequestService) GetByWallet(ctx context.Context, wallet string) (*models.PrintRequest, error) {
	if m.getByWalletFunc != nil {
		return m.getByWalletFunc(ctx, wallet)
	}
	return &models.PrintRequest{ID: 1, WalletAddress: wallet, AssetID: "1", Status: types.PrintStatusPending}, nil
}

func (m *mockPrintRequestService) ListPublic(ctx context.Context, page, limit int) (*service.PrintRequestPage, error) {
	if m.listPublicFunc != nil {
		return m.listPublicFunc(ctx, page, limit)
	}
	return &service.PrintRequestPage{Data: []*models.PrintRequest{}, Pagination: types.NewPagination(1, 50, 0)}, nil
}

func (m *mockPrintRequestService) ListAdmin(ctx context.Context, page, limit int, status string) (*service.PrintRequestPage, error) {
	if m.listAdminFunc != nil {
		return m.listAdminFunc(ctx, page, limit, status)
	}
	return &service.PrintRequestPage{Data: []*models.PrintRequest{}, Pagination: types.NewPagination(1, 50, 0)}, nil
}

func (m *mockPrintRequestService) UpdateStatus(ctx context.Context, id int64, status string) (*models.PrintRequest, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return &models.PrintRequest{ID: id, WalletAddress: "W", Status: types.PrintStatus(status)}, nil
}

type mockFreeMintService struct {
	statusFunc func(ctx context.Context, wallet string) (types.ClaimStatus, error)
	buildFunc  func(ctx context.Context, txn string) (*service.SponsoredGroup, error)
	submitFunc func(ctx context.Context, group []string) (*service.SubmitResult, error)
}

func (m *mockFreeMintService) GetStatus(ctx context.Context, wallet string) (types.ClaimStatus, error) {
	if m.statusFunc != nil {
		return m.statusFunc(ctx, wallet)
	}
	return types.ClaimStatusNotClaimed, nil
}

func (m *mockFreeMintService) BuildSponsoredGroup(ctx context.Context, txn string) (*service.SponsoredGroup, error) {
	if m.buildFunc != nil {
		return m.buildFunc(ctx, txn)
	}
	return &service.SponsoredGroup{Group: []string{"c2lnbmVk", txn}}, nil
}

func (m *mockFreeMintService) SubmitGroup(ctx context.Context, group []string) (*service.SubmitResult, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, group)
	}
	return &service.SubmitResult{TxID: "TXID", ConfirmedRound: 42}, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error {
	return m.err
}

type testMocks struct {
	settings      *mockSettingsService
	printRequests *mockPrintRequestService
	freeMint      *mockFreeMintService
	postgres      *mockPinger
	tokens        *auth.TokenManager
}

func testServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:              "localhost",
		Port:              "0",
		AllowedOrigin:     testOrigin,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}
}

func createTestServer() (*Server, *testMocks) {
	return createTestServerWithConfig(testServerConfig())
}

func createTestServerWithConfig(cfg *ServerConfig) (*Server, *testMocks) {
	mocks := &testMocks{
		settings:      &mockSettingsService{},
		printRequests: &mockPrintRequestService{},
		freeMint:      &mockFreeMintService{},
		postgres:      &mockPinger{},
		tokens:        auth.NewTokenManager(testJWTSecret, 7*24*time.Hour),
	}

	authService := service.NewAuthService(service.AdminCredentials{
		Username: testAdminUser,
		Password: testAdminPassword,
	}, mocks.tokens)

	server := NewServer(cfg, Services{
		Settings:      mocks.settings,
		PrintRequests: mocks.printRequests,
		FreeMint:      mocks.freeMint,
		Auth:          authService,
	}, map[string]Pinger{"postgres": mocks.postgres})

	return server, mocks
}

// adminToken issues a valid admin token from the test secret
func (m *testMocks) adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := m.tokens.Issue(auth.RoleAdmin)
	require.NoError(t, err)
	return token
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

func doRequest(t *testing.T, server *Server, method, path string, body interface{}, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}
