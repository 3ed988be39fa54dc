package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jvetere1999/passion-os-sub009/model"
)

// TrackRepository defines the data operations for imported reference tracks.
type TrackRepository interface {
	Create(ctx context.Context, track *model.ReferenceTrack) error
	GetByID(ctx context.Context, id string) (*model.ReferenceTrack, error)
	GetAllByUserID(ctx context.Context, userID int64) ([]*model.ReferenceTrack, error)
	ListByStatus(ctx context.Context, status string) ([]*model.ReferenceTrack, error)
	UpdateStatus(ctx context.Context, id string, status string, errMessage *string) error
	SetAnalysis(ctx context.Context, id string, bpm *float64, key *string, durationSeconds float64) error
	Delete(ctx context.Context, id string) error
}

// gormTrackRepository implements TrackRepository on GORM.
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository creates a GORM-backed track repository.
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// Create inserts a new reference track.
func (r *gormTrackRepository) Create(ctx context.Context, track *model.ReferenceTrack) error {
	return r.db.WithContext(ctx).Create(track).Error
}

// GetByID returns the track with the given id, or nil when absent.
func (r *gormTrackRepository) GetByID(ctx context.Context, id string) (*model.ReferenceTrack, error) {
	var track model.ReferenceTrack
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&track).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// GetAllByUserID returns a user's tracks, newest first.
func (r *gormTrackRepository) GetAllByUserID(ctx context.Context, userID int64) ([]*model.ReferenceTrack, error) {
	var tracks []*model.ReferenceTrack
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tracks).Error
	return tracks, err
}

// ListByStatus returns every track currently in the given status.
func (r *gormTrackRepository) ListByStatus(ctx context.Context, status string) ([]*model.ReferenceTrack, error) {
	var tracks []*model.ReferenceTrack
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&tracks).Error
	return tracks, err
}

// UpdateStatus moves a track through the import pipeline. The error
// message is cleared unless one is supplied.
func (r *gormTrackRepository) UpdateStatus(ctx context.Context, id string, status string, errMessage *string) error {
	return r.db.WithContext(ctx).Model(&model.ReferenceTrack{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errMessage,
			"updated_at":    time.Now(),
		}).Error
}

// SetAnalysis stores the analysis result and marks the track ready.
func (r *gormTrackRepository) SetAnalysis(ctx context.Context, id string, bpm *float64, key *string, durationSeconds float64) error {
	return r.db.WithContext(ctx).Model(&model.ReferenceTrack{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"bpm":              bpm,
			"key_signature":    key,
			"duration_seconds": durationSeconds,
			"status":           model.TrackStatusReady,
			"error_message":    nil,
			"updated_at":       time.Now(),
		}).Error
}

// Delete removes a track row.
func (r *gormTrackRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.ReferenceTrack{}).Error
}
