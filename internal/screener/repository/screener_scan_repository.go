package repository

import (
	"context"

	"stocxer-screener/internal/entity"

	"gorm.io/gorm"
)

// ScreenerScanRepository persists scan summaries and their result rows.
type ScreenerScanRepository interface {
	// CreateWithResults writes the summary row and its result rows in a
	// single transaction, after the per-symbol barrier.
	CreateWithResults(ctx context.Context, scan *entity.ScreenerScan, results []*entity.ScreenerResult) error
	FindByUser(ctx context.Context, userID string, limit int) ([]entity.ScreenerScan, error)
	FindByScanID(ctx context.Context, scanID, userID string) (*entity.ScreenerScan, error)
}

type screenerScanRepository struct {
	db *gorm.DB
}

// NewScreenerScanRepository creates a new ScreenerScanRepository.
func NewScreenerScanRepository(db *gorm.DB) ScreenerScanRepository {
	return &screenerScanRepository{db: db}
}

func (r *screenerScanRepository) CreateWithResults(ctx context.Context, scan *entity.ScreenerScan, results []*entity.ScreenerResult) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(results) > 0 {
			if err := tx.Create(results).Error; err != nil {
				return err
			}
		}
		return tx.Create(scan).Error
	})
}

func (r *screenerScanRepository) FindByUser(ctx context.Context, userID string, limit int) ([]entity.ScreenerScan, error) {
	var scans []entity.ScreenerScan
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&scans).Error
	return scans, err
}

func (r *screenerScanRepository) FindByScanID(ctx context.Context, scanID, userID string) (*entity.ScreenerScan, error) {
	var scan entity.ScreenerScan
	err := r.db.WithContext(ctx).
		Where("scan_id = ? AND user_id = ?", scanID, userID).
		First(&scan).Error
	if err != nil {
		return nil, err
	}
	return &scan, nil
}
