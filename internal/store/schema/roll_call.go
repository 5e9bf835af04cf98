package schema

import (
	"time"

	"github.com/democracy-watch/congress-indexer/internal/domain"
)

// RollCall represents the roll_calls table - recorded floor votes in either chamber
type RollCall struct {
	// ID is the internal database primary key
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// Congress, Chamber, Session and RollNumber together identify a roll call
	Congress   int            `gorm:"column:congress;not null;uniqueIndex:idx_roll_calls_natural_key,priority:1"`
	Chamber    domain.Chamber `gorm:"column:chamber;not null;type:text;uniqueIndex:idx_roll_calls_natural_key,priority:2"`
	Session    int            `gorm:"column:session;not null;uniqueIndex:idx_roll_calls_natural_key,priority:3"`
	RollNumber int            `gorm:"column:roll_number;not null;uniqueIndex:idx_roll_calls_natural_key,priority:4"`
	VoteDate   time.Time      `gorm:"column:vote_date;not null;index"`
	// Question is the matter being voted on (e.g., "On Passage")
	Question string `gorm:"column:question;not null;type:text"`
	// Result is the chamber's stated outcome (e.g., "Passed", "Nomination Confirmed")
	Result string `gorm:"column:result;not null;type:text"`
	// BillID references bills.id when the roll call is tied to legislation
	BillID *string `gorm:"column:bill_id;type:uuid;index"`

	// Chamber-reported position totals
	YeaTotal       int `gorm:"column:yea_total;not null;default:0"`
	NayTotal       int `gorm:"column:nay_total;not null;default:0"`
	PresentTotal   int `gorm:"column:present_total;not null;default:0"`
	NotVotingTotal int `gorm:"column:not_voting_total;not null;default:0"`

	// Party breakdown computed from recorded votes joined to members
	RepublicanYea int `gorm:"column:republican_yea;not null;default:0"`
	RepublicanNay int `gorm:"column:republican_nay;not null;default:0"`
	DemocratYea   int `gorm:"column:democrat_yea;not null;default:0"`
	DemocratNay   int `gorm:"column:democrat_nay;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// Associations
	Bill  *Bill  `gorm:"foreignKey:BillID"`
	Votes []Vote `gorm:"foreignKey:RollCallID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the RollCall model
func (RollCall) TableName() string {
	return "roll_calls"
}
