package muses

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotKey is the schema-versioned slot the whole collection is written
// under. A breaking change to the serialized record shape bumps the suffix;
// snapshots stored under retired keys become invisible and the seed archive
// takes over. No field-level upgrade path exists on purpose.
const SnapshotKey = "muse_archive_db_v2"

// ErrMissingArchiveDatabase indicates the archive was constructed without a database handle.
var ErrMissingArchiveDatabase = errors.New("muses: archive database handle is required")

// ArchiveSnapshot is the single durable key-value slot holding the serialized
// collection.
type ArchiveSnapshot struct {
	SlotKey        string `gorm:"column:slot_key;primaryKey;size:190;not null"`
	Payload        string `gorm:"column:payload;type:text;not null"`
	SavedAtSeconds int64  `gorm:"column:saved_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (ArchiveSnapshot) TableName() string {
	return "archive_snapshots"
}

// Archive is the durable key-value storage consumed by the Store. Reads
// distinguish "absent" from failure so the caller can fall back to defaults
// without treating a missing slot as an error.
type Archive interface {
	ReadSnapshot(key string) (payload string, found bool, err error)
	WriteSnapshot(key, payload string) error
	DeleteSnapshot(key string) error
}

type gormArchive struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewGormArchive wraps a gorm database handle as the durable snapshot slot.
func NewGormArchive(db *gorm.DB, clock func() time.Time) (Archive, error) {
	if db == nil {
		return nil, ErrMissingArchiveDatabase
	}
	if clock == nil {
		clock = time.Now
	}
	return &gormArchive{db: db, clock: clock}, nil
}

func (a *gormArchive) ReadSnapshot(key string) (string, bool, error) {
	var snapshot ArchiveSnapshot
	err := a.db.Where("slot_key = ?", key).Take(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("muses: read snapshot %q: %w", key, err)
	}
	return snapshot.Payload, true, nil
}

func (a *gormArchive) WriteSnapshot(key, payload string) error {
	snapshot := ArchiveSnapshot{
		SlotKey:        key,
		Payload:        payload,
		SavedAtSeconds: a.clock().UTC().Unix(),
	}
	err := a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "saved_at_s"}),
	}).Create(&snapshot).Error
	if err != nil {
		return fmt.Errorf("muses: write snapshot %q: %w", key, err)
	}
	return nil
}

func (a *gormArchive) DeleteSnapshot(key string) error {
	err := a.db.Where("slot_key = ?", key).Delete(&ArchiveSnapshot{}).Error
	if err != nil {
		return fmt.Errorf("muses: delete snapshot %q: %w", key, err)
	}
	return nil
}
