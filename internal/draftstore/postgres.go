package draftstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventwizard/internal/drafts"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DraftRecord is one persisted wizard snapshot
type DraftRecord struct {
	Key       string     `gorm:"primaryKey;size:255" json:"key"`
	Payload   []byte     `gorm:"type:jsonb;not null" json:"payload"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (DraftRecord) TableName() string {
	return "wizard_drafts"
}

// Postgres keeps snapshots in the wizard_drafts table
type Postgres struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewPostgres(db *gorm.DB, ttl time.Duration) *Postgres {
	return &Postgres{db: db, ttl: ttl}
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var rec DraftRecord
	err := p.db.WithContext(ctx).
		Where("key = ?", key).
		Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, drafts.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return rec.Payload, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	rec := DraftRecord{Key: key, Payload: value}
	if p.ttl > 0 {
		expiresAt := time.Now().UTC().Add(p.ttl)
		rec.ExpiresAt = &expiresAt
	}

	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if err := p.db.WithContext(ctx).Where("key = ?", key).Delete(&DraftRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// PurgeExpired deletes the snapshots whose TTL has passed
func (p *Postgres) PurgeExpired(ctx context.Context) (int64, error) {
	res := p.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now().UTC()).
		Delete(&DraftRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge drafts: %w", res.Error)
	}
	return res.RowsAffected, nil
}
