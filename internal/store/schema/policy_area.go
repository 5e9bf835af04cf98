package schema

import "time"

// PolicyArea is the reference table of top-level legislative policy
// areas assigned by the Congressional Research Service
type PolicyArea struct {
	// ID is the internal database primary key
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// Name is the policy area label (e.g., "Armed Forces and National Security")
	Name      string    `gorm:"column:name;not null;uniqueIndex;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for the PolicyArea model
func (PolicyArea) TableName() string {
	return "policy_areas"
}
