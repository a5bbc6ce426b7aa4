package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Property is a measured statistic of a jurisdiction
type Property struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	JurisdictionID string        `gorm:"type:uuid;not null;index" json:"jurisdiction_id"`
	Jurisdiction   *Jurisdiction `gorm:"foreignKey:JurisdictionID" json:"jurisdiction,omitempty"`

	LocalID     string `gorm:"size:100" json:"local_id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Slug        string `gorm:"size:255;index" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	// Dynamic holds the rule source for computed properties
	Dynamic *string `gorm:"size:500" json:"dynamic,omitempty"`
	// Special is a stable key shared by equivalent properties across jurisdictions
	Special *string `gorm:"size:100;index" json:"special,omitempty"`

	ChildOfID *string   `gorm:"type:uuid;index" json:"child_of_id,omitempty"`
	ChildOf   *Property `gorm:"foreignKey:ChildOfID" json:"child_of,omitempty"`
}

// IsDynamic reports whether the property is computed rather than read
func (p *Property) IsDynamic() bool {
	return p.Dynamic != nil && *p.Dynamic != ""
}

// BeforeCreate hook to generate UUID
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Property) TableName() string {
	return "properties"
}
