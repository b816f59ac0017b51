package database

import (
	"errors"
	"time"

	"github.com/hallyulab/musebook/backend/internal/muses"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationPurgeRetiredSnapshotSlots = "2026-08-12_purge_retired_snapshot_slots"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationPurgeRetiredSnapshotSlots, apply: purgeRetiredSnapshotSlots},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// purgeRetiredSnapshotSlots removes collection snapshots stored under
// superseded slot keys. The versioned-key scheme never deserializes an old
// payload into a new record shape, so retired slots are dead weight.
func purgeRetiredSnapshotSlots(db *gorm.DB) error {
	return db.Where("slot_key <> ?", muses.SnapshotKey).
		Delete(&muses.ArchiveSnapshot{}).Error
}
