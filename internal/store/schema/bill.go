package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Bill represents the bills table - legislation tracked across both chambers
type Bill struct {
	// ID is the internal database primary key
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// Congress is the congress number the bill was introduced in (e.g., 119)
	Congress int `gorm:"column:congress;not null;uniqueIndex:idx_bills_congress_type_number,priority:1"`
	// BillType is the lowercase bill type slug (hr, s, hres, sres, hjres, sjres, hconres, sconres)
	BillType string `gorm:"column:bill_type;not null;type:text;uniqueIndex:idx_bills_congress_type_number,priority:2"`
	// BillNumber is the number within the congress and type
	BillNumber int    `gorm:"column:bill_number;not null;uniqueIndex:idx_bills_congress_type_number,priority:3"`
	Title      string `gorm:"column:title;not null;type:text"`
	// Summary is the latest CRS summary with markup stripped
	Summary        *string    `gorm:"column:summary;type:text"`
	IntroducedDate *time.Time `gorm:"column:introduced_date"`
	// SponsorID references members.id; nil when the sponsor is not in the members table
	SponsorID *string `gorm:"column:sponsor_id;type:uuid;index"`
	// PolicyAreaID references policy_areas.id
	PolicyAreaID *string `gorm:"column:policy_area_id;type:uuid;index"`
	// Subjects is the list of legislative subject terms as a JSON array
	Subjects datatypes.JSON `gorm:"column:subjects;type:jsonb"`
	// WebsiteURL is the congress.gov bill text page
	WebsiteURL       *string    `gorm:"column:website_url;type:text"`
	LatestAction     *string    `gorm:"column:latest_action;type:text"`
	LatestActionDate *time.Time `gorm:"column:latest_action_date"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	// Associations
	Sponsor    *Member     `gorm:"foreignKey:SponsorID"`
	PolicyArea *PolicyArea `gorm:"foreignKey:PolicyAreaID"`
	RollCalls  []RollCall  `gorm:"foreignKey:BillID"`
}

// TableName specifies the table name for the Bill model
func (Bill) TableName() string {
	return "bills"
}
