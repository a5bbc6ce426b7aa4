package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Value is one statistic for an authority in a year.
// PercentageValue is a 0..1 ratio against the parent property and stays 0
// for properties without a parent.
type Value struct {
	ID string `gorm:"type:uuid;primarykey" json:"id"`

	AuthorityID string     `gorm:"type:uuid;not null;uniqueIndex:idx_value_authority_property_year" json:"authority_id"`
	Authority   *Authority `gorm:"foreignKey:AuthorityID" json:"authority,omitempty"`
	PropertyID  string     `gorm:"type:uuid;not null;uniqueIndex:idx_value_authority_property_year;index" json:"property_id"`
	Property    *Property  `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	YearID      string     `gorm:"type:uuid;not null;uniqueIndex:idx_value_authority_property_year;index" json:"year_id"`
	Year        *Year      `gorm:"foreignKey:YearID" json:"year,omitempty"`

	Value           float64 `gorm:"not null;default:0" json:"value"`
	PercentageValue float64 `gorm:"not null;default:0" json:"percentage_value"`
}

// BeforeCreate hook to generate UUID
func (v *Value) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Value) TableName() string {
	return "stat_values"
}
