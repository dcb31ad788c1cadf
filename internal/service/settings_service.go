package service

import (
	"context"

	apperrors "github.com/mint-booth/internal/errors"
	"github.com/mint-booth/internal/models"
	"github.com/mint-booth/internal/storage"
)

// UpdateSettingsInput is an admin patch of the booth settings. Nil fields are
// left unchanged.
type UpdateSettingsInput struct {
	IsPaused         *bool
	MaxPrintRequests *int
}

// SettingsService owns the singleton booth settings
type SettingsService struct {
	settings   SettingsRepository
	requests   PrintRequestCounter
	defaultMax int
}

// NewSettingsService creates a settings service. defaultMax is used when the
// settings row is first created.
func NewSettingsService(settings SettingsRepository, requests PrintRequestCounter, defaultMax int) *SettingsService {
	if defaultMax < 1 {
		defaultMax = 100
	}
	return &SettingsService{
		settings:   settings,
		requests:   requests,
		defaultMax: defaultMax,
	}
}

// GetOrInit returns the settings row, creating it with defaults on first use
func (s *SettingsService) GetOrInit(ctx context.Context) (*models.Settings, error) {
	settings, err := s.settings.GetOrCreate(ctx, models.Settings{
		IsPaused:         false,
		MaxPrintRequests: s.defaultMax,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("load settings", err)
	}
	return settings, nil
}

// Get returns the settings with the live print request count
func (s *SettingsService) Get(ctx context.Context) (*models.SettingsView, error) {
	settings, err := s.GetOrInit(ctx)
	if err != nil {
		return nil, err
	}
	return s.withCount(ctx, settings)
}

// Update validates and applies an admin patch. Lowering the limit below the
// current count only blocks future requests.
func (s *SettingsService) Update(ctx context.Context, input UpdateSettingsInput) (*models.SettingsView, error) {
	if input.MaxPrintRequests != nil && *input.MaxPrintRequests < 1 {
		return nil, apperrors.NewValidationError("max_print_requests must be a number greater than or equal to 1")
	}

	if _, err := s.GetOrInit(ctx); err != nil {
		return nil, err
	}

	settings, err := s.settings.Update(ctx, storage.SettingsPatch{
		IsPaused:         input.IsPaused,
		MaxPrintRequests: input.MaxPrintRequests,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("update settings", err)
	}

	return s.withCount(ctx, settings)
}

// BoothStatus summarises whether the booth currently accepts print requests
func (s *SettingsService) BoothStatus(ctx context.Context) (*models.BoothStatus, error) {
	view, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	return &models.BoothStatus{
		IsPaused:         view.IsPaused,
		MaxPrintRequests: view.MaxPrintRequests,
		CurrentCount:     view.CurrentCount,
		Available:        !view.IsPaused && view.CurrentCount < view.MaxPrintRequests,
	}, nil
}

func (s *SettingsService) withCount(ctx context.Context, settings *models.Settings) (*models.SettingsView, error) {
	count, err := s.requests.Count(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("count print requests", err)
	}
	return &models.SettingsView{Settings: *settings, CurrentCount: count}, nil
}
