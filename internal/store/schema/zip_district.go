package schema

import "time"

// ZipDistrict represents the zip_districts table - the ZIP-to-
// congressional-district cache. A ZIP code can span several districts,
// so the full triple is the natural key.
type ZipDistrict struct {
	// ID is the internal database primary key
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// ZipCode is the 5-digit ZIP code
	ZipCode   string `gorm:"column:zip_code;not null;type:text;uniqueIndex:idx_zip_districts_natural_key,priority:1;index"`
	StateCode string `gorm:"column:state_code;not null;type:text;uniqueIndex:idx_zip_districts_natural_key,priority:2"`
	// DistrictNumber is the district within the state ("07") or "AL" for at-large
	DistrictNumber string    `gorm:"column:district_number;not null;type:text;uniqueIndex:idx_zip_districts_natural_key,priority:3"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for the ZipDistrict model
func (ZipDistrict) TableName() string {
	return "zip_districts"
}
