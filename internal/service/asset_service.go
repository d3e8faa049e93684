package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/the-local-guys/testtag-api/internal/models"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
)

type assetNumberStore interface {
	ListAssetNumbers(ctx context.Context, sessionID string) ([]string, error)
	FindAssetNumberOwner(ctx context.Context, sessionID, assetNumber string) (string, error)
}

// AssetService allocates and validates per-session asset numbers. Numbers
// double as handwritten physical tag labels, so the service never reassigns
// one on its own: callers must request a fresh number after a frequency
// change moves an item into a different band.
type AssetService struct {
	results assetNumberStore
	logger  *zap.Logger
}

// NewAssetService constructs an AssetService.
func NewAssetService(results assetNumberStore, logger *zap.Logger) *AssetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetService{results: results, logger: logger}
}

// NextAssetNumber returns the smallest unused number at or above the band
// start for the cadence. It is re-derived from the current result set on
// every call rather than tracked in a counter, so stored data can never
// drift from the allocator. The linear probe is fine at session scale
// (tens to low hundreds of items).
func (s *AssetService) NextAssetNumber(ctx context.Context, sessionID string, frequency models.Frequency) (int, error) {
	if !models.ValidFrequency(frequency) {
		return 0, appErrors.Clone(appErrors.ErrValidation, "unknown test frequency")
	}

	numbers, err := s.results.ListAssetNumbers(ctx, sessionID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset numbers")
	}

	used := make(map[int]struct{}, len(numbers))
	for _, raw := range numbers {
		if n, ok := models.ParseAssetNumber(raw); ok {
			used[n] = struct{}{}
		}
	}

	for candidate := frequency.BandStart(); frequency.InBand(candidate); candidate++ {
		if _, taken := used[candidate]; !taken {
			return candidate, nil
		}
	}
	return 0, appErrors.Clone(appErrors.ErrValidation, "no asset numbers left in the frequency band")
}

// ValidateAssetNumber checks a caller-supplied number for parseability, band
// membership, and uniqueness within the session. excludeResultID carves out
// the result being edited so a result can keep its own number.
func (s *AssetService) ValidateAssetNumber(ctx context.Context, sessionID, candidate string, frequency models.Frequency, excludeResultID string) error {
	if !models.ValidFrequency(frequency) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown test frequency")
	}

	n, ok := models.CanonicalAssetNumber(candidate)
	if !ok {
		return appErrors.ErrAssetNotANumber
	}

	if !frequency.InBand(n) {
		return appErrors.ErrAssetOutOfBand
	}

	ownerID, err := s.results.FindAssetNumberOwner(ctx, sessionID, candidate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check asset number")
	}

	if ownerID != excludeResultID {
		return appErrors.ErrDuplicateAssetNumber
	}
	return nil
}
