package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"clubevents/internal/repo"
)

// SettingsService stores site and payment-provider settings as plain
// key/value pairs.
type SettingsService struct {
	repo repo.Repository
	log  *zerolog.Logger
}

func NewSettingsService(repo repo.Repository, logger *zerolog.Logger) *SettingsService {
	return &SettingsService{repo: repo, log: logger}
}

func (s *SettingsService) Get(ctx context.Context) (map[string]string, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, storageErr("get settings", err)
	}
	return settings, nil
}

// Update upserts every pair. Blank keys are skipped.
func (s *SettingsService) Update(ctx context.Context, updates map[string]string) error {
	cleaned := make(map[string]string, len(updates))
	for k, v := range updates {
		if k = strings.TrimSpace(k); k != "" {
			cleaned[k] = v
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	if err := s.repo.UpsertSettingsTx(ctx, cleaned); err != nil {
		return storageErr("update settings", err)
	}
	s.log.Info().Int("keys", len(cleaned)).Msg("settings updated")
	return nil
}
