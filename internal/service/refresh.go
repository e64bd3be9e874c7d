package service

import (
	"context"
	"fmt"

	"mediakit/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Refresh regenerates every style variant of every asset image from the
// stored originals, in batches so a large table never loads at once. Use
// it after changing the style set or the transform settings.
func Refresh(ctx context.Context, db *gorm.DB, factory *Factory) error {
	var (
		refreshed int
		failed    int
		batch     []model.Asset
	)

	err := db.WithContext(ctx).
		Where("image_file_name IS NOT NULL").
		FindInBatches(&batch, 100, func(_ *gorm.DB, _ int) error {
			for i := range batch {
				asset := &batch[i]

				m, err := factory.Image(db, asset)
				if err != nil {
					return err
				}

				if err := m.Reprocess(ctx); err != nil {
					failed++
					zap.L().Error("Failed to refresh asset image",
						zap.Uint("asset_id", asset.ID),
						zap.Error(err))
					continue
				}

				refreshed++
			}

			return nil
		}).Error
	if err != nil {
		return fmt.Errorf("refresh aborted, %w", err)
	}

	zap.L().Info("Refresh finished",
		zap.Int("refreshed", refreshed),
		zap.Int("failed", failed))

	return nil
}
