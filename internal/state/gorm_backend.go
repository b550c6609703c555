package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/localloop/localloop-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// snapshotRow is the single-row table holding the serialized snapshot. The
// relational store is an alternative blob home, not a query layer.
type snapshotRow struct {
	ID        uint      `gorm:"primaryKey"`
	Payload   []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (snapshotRow) TableName() string {
	return "building_snapshots"
}

const snapshotRowID = 1

// GormBackend persists the snapshot into a single-row table via GORM.
type GormBackend struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewGormBackend migrates the snapshot table and returns the backend.
func NewGormBackend(db *gorm.DB, logg *logger.Logger) (*GormBackend, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm handle is required")
	}
	if err := db.AutoMigrate(&snapshotRow{}); err != nil {
		return nil, fmt.Errorf("migrating snapshot table: %w", err)
	}
	return &GormBackend{db: db, logg: logg}, nil
}

// Load reads the snapshot row. A missing or undecodable payload yields the
// default snapshot.
func (g *GormBackend) Load(ctx context.Context) (Snapshot, error) {
	var row snapshotRow
	err := g.db.WithContext(ctx).First(&row, snapshotRowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DefaultSnapshot(), nil
		}
		return Snapshot{}, fmt.Errorf("loading snapshot row: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(row.Payload, &snap); err != nil {
		if g.logg != nil {
			g.logg.Warn(ctx, "snapshot row is corrupted, starting from default state")
		}
		return DefaultSnapshot(), nil
	}
	return snap, nil
}

// Persist upserts the snapshot row.
func (g *GormBackend) Persist(ctx context.Context, snap Snapshot) error {
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	row := snapshotRow{
		ID:        snapshotRowID,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}
	err = g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("persisting snapshot row: %w", err)
	}
	return nil
}
