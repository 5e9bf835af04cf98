package schema

import (
	"time"

	"github.com/democracy-watch/congress-indexer/internal/domain"
)

// Member represents the members table - current and recent members of Congress
type Member struct {
	// ID is the internal database primary key
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// BioguideID is the Biographical Directory identifier assigned to every member (e.g., "N000188")
	BioguideID string `gorm:"column:bioguide_id;not null;uniqueIndex;type:text"`
	// LisID is the Senate legislative information system identifier (e.g., "S354"), backfilled from Senate roll calls
	LisID *string `gorm:"column:lis_id;uniqueIndex;type:text"`
	FirstName string `gorm:"column:first_name;not null;type:text"`
	LastName  string `gorm:"column:last_name;not null;type:text"`
	FullName  string `gorm:"column:full_name;not null;type:text"`
	// Party is the normalized party name (Republican, Democrat, Independent)
	Party string `gorm:"column:party;not null;type:text"`
	// StateCode references states.code
	StateCode string `gorm:"column:state_code;not null;type:text;index"`
	// Chamber is "house" or "senate"
	Chamber domain.Chamber `gorm:"column:chamber;not null;type:text;index"`
	// District is the congressional district number for representatives ("07", "AL"), nil for senators
	District         *string    `gorm:"column:district;type:text"`
	CurrentTermStart *time.Time `gorm:"column:current_term_start"`
	WebsiteURL       *string    `gorm:"column:website_url;type:text"`
	// IsActive indicates whether the member currently holds the seat
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// Associations
	Votes []Vote `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Member model
func (Member) TableName() string {
	return "members"
}
