package repository

import (
	"context"

	"stocxer-screener/internal/entity"

	"gorm.io/gorm"
)

// ScreenerResultRepository reads persisted signal rows. Writes happen
// through ScreenerScanRepository so results and summary commit together.
type ScreenerResultRepository interface {
	FindByScanID(ctx context.Context, scanID, userID string) ([]entity.ScreenerResult, error)
}

type screenerResultRepository struct {
	db *gorm.DB
}

// NewScreenerResultRepository creates a new ScreenerResultRepository.
func NewScreenerResultRepository(db *gorm.DB) ScreenerResultRepository {
	return &screenerResultRepository{db: db}
}

func (r *screenerResultRepository) FindByScanID(ctx context.Context, scanID, userID string) ([]entity.ScreenerResult, error) {
	var results []entity.ScreenerResult
	err := r.db.WithContext(ctx).
		Where("scan_id = ? AND user_id = ?", scanID, userID).
		Order("confidence DESC").
		Find(&results).Error
	return results, err
}
