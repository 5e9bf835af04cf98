package schema

// State is the reference table of U.S. states and territories
type State struct {
	// Code is the 2-letter postal code
	Code string `gorm:"column:code;primaryKey;type:text"`
	// Name is the full state name
	Name string `gorm:"column:name;not null;type:text"`
}

// TableName specifies the table name for the State model
func (State) TableName() string {
	return "states"
}
