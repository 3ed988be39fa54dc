package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jvetere1999/passion-os-sub009/model"
)

// AnnotationRepository stores per-track annotation snapshots.
type AnnotationRepository interface {
	// Load returns the stored annotations for a track, or nil when the
	// track has none yet.
	Load(ctx context.Context, trackID string) (*model.AudioAnnotations, error)

	// Save replaces the annotation snapshot for a track.
	Save(ctx context.Context, trackID string, annotations *model.AudioAnnotations) error

	// Delete drops the snapshot for a track.
	Delete(ctx context.Context, trackID string) error
}

// gormAnnotationRepository implements AnnotationRepository on GORM.
type gormAnnotationRepository struct {
	db *gorm.DB
}

// NewGormAnnotationRepository creates a GORM-backed annotation repository.
func NewGormAnnotationRepository(db *gorm.DB) AnnotationRepository {
	return &gormAnnotationRepository{db: db}
}

// Load returns the snapshot for a track, or nil when absent.
func (r *gormAnnotationRepository) Load(ctx context.Context, trackID string) (*model.AudioAnnotations, error) {
	var record model.TrackAnnotationsRecord
	err := r.db.WithContext(ctx).
		Where("track_id = ?", trackID).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record.Data, nil
}

// Save replaces the snapshot, inserting the row on first write.
func (r *gormAnnotationRepository) Save(ctx context.Context, trackID string, annotations *model.AudioAnnotations) error {
	result := r.db.WithContext(ctx).Model(&model.TrackAnnotationsRecord{}).
		Where("track_id = ?", trackID).
		Updates(map[string]interface{}{
			"data":       annotations,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	record := &model.TrackAnnotationsRecord{
		TrackID:   trackID,
		Data:      *annotations,
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// Delete drops the snapshot for a track.
func (r *gormAnnotationRepository) Delete(ctx context.Context, trackID string) error {
	return r.db.WithContext(ctx).
		Where("track_id = ?", trackID).
		Delete(&model.TrackAnnotationsRecord{}).Error
}
