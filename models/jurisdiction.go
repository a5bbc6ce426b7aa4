package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Jurisdiction is one data source, e.g. Scottish FOISA statistics. It owns
// every Year, Authority and Property loaded from that source.
type Jurisdiction struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name            string `gorm:"size:255;not null" json:"name"`
	Slug            string `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description     string `gorm:"type:text" json:"description"`
	LongDescription string `gorm:"type:text" json:"long_description"`
	DataSource      string `gorm:"size:255" json:"data_source"`
	GeoLabel        string `gorm:"size:255" json:"geo_label"`
	StartYear       int    `json:"start_year"`
	EndYear         int    `json:"end_year"`
	// Comma separated request types, e.g. "FOI,EIR"
	PublicTypes  string `gorm:"size:255" json:"public_types"`
	PrivateTypes string `gorm:"size:255" json:"private_types"`
	RunID        string `gorm:"size:36;index" json:"run_id"`

	// Relationships
	Years       []Year      `gorm:"foreignKey:JurisdictionID" json:"years,omitempty"`
	Authorities []Authority `gorm:"foreignKey:JurisdictionID" json:"authorities,omitempty"`
	Properties  []Property  `gorm:"foreignKey:JurisdictionID" json:"properties,omitempty"`
}

// BeforeCreate hook to generate UUID
func (j *Jurisdiction) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Jurisdiction) TableName() string {
	return "jurisdictions"
}
