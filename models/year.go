package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// AllTimeYear is the sentinel number of the synthetic year that
	// aggregates every reporting year of a jurisdiction
	AllTimeYear    = 9999
	AllTimeDisplay = "All time"
	AllTimeSlug    = "alltime"
)

// Year is a reporting year of a jurisdiction
type Year struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	JurisdictionID string        `gorm:"type:uuid;not null;uniqueIndex:idx_year_jurisdiction_number" json:"jurisdiction_id"`
	Jurisdiction   *Jurisdiction `gorm:"foreignKey:JurisdictionID" json:"jurisdiction,omitempty"`

	Number  int    `gorm:"not null;uniqueIndex:idx_year_jurisdiction_number" json:"number"`
	Display string `gorm:"size:50;not null" json:"display"`
	Slug    string `gorm:"size:50;not null" json:"slug"`
}

// NewYear builds the Year row for number, labelling the sentinel as all time
func NewYear(jurisdictionID string, number int) Year {
	y := Year{JurisdictionID: jurisdictionID, Number: number}
	if number == AllTimeYear {
		y.Display = AllTimeDisplay
		y.Slug = AllTimeSlug
	} else {
		y.Display = strconv.Itoa(number)
		y.Slug = strconv.Itoa(number)
	}
	return y
}

// IsAllTime reports whether the year is the all-time aggregate
func (y *Year) IsAllTime() bool {
	return y.Number == AllTimeYear
}

// BeforeCreate hook to generate UUID
func (y *Year) BeforeCreate(tx *gorm.DB) error {
	if y.ID == "" {
		y.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Year) TableName() string {
	return "years"
}
