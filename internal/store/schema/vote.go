package schema

import (
	"time"

	"github.com/democracy-watch/congress-indexer/internal/domain"
)

// Vote represents the votes table - one member's recorded position on one roll call
type Vote struct {
	// ID is the internal database primary key
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// MemberID and RollCallID together identify a vote; re-syncing a
	// roll call updates the position rather than duplicating the row
	MemberID   string `gorm:"column:member_id;not null;type:uuid;uniqueIndex:idx_votes_member_roll_call,priority:1"`
	RollCallID string `gorm:"column:roll_call_id;not null;type:uuid;uniqueIndex:idx_votes_member_roll_call,priority:2"`
	// Position is the canonical vote position (Yea, Nay, Present, Not Voting)
	Position domain.VotePosition `gorm:"column:position;not null;type:text"`
	// BillID denormalizes the roll call's bill for per-member vote history queries
	BillID    *string   `gorm:"column:bill_id;type:uuid;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// Associations
	Member   *Member   `gorm:"foreignKey:MemberID"`
	RollCall *RollCall `gorm:"foreignKey:RollCallID"`
}

// TableName specifies the table name for the Vote model
func (Vote) TableName() string {
	return "votes"
}
