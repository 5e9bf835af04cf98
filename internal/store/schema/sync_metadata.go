package schema

import "time"

// SyncMetadata records the last successful sync time per entity so
// incremental syncs know where to resume
type SyncMetadata struct {
	// Entity is the sync target ("members", "bills", "house_votes", "senate_votes", "zip_districts")
	Entity     string    `gorm:"column:entity;primaryKey;type:text"`
	LastSyncAt time.Time `gorm:"column:last_sync_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for the SyncMetadata model
func (SyncMetadata) TableName() string {
	return "sync_metadata"
}
