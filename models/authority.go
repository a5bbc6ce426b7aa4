package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OverallAuthorityName is the display name of the jurisdiction-wide aggregate
const OverallAuthorityName = "All Authorities"

// Authority is a reporting body, a sector grouping bodies, or the overall
// aggregate. Bodies point at their sector and sectors at the overall record.
type Authority struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	JurisdictionID string        `gorm:"type:uuid;not null;index" json:"jurisdiction_id"`
	Jurisdiction   *Jurisdiction `gorm:"foreignKey:JurisdictionID" json:"jurisdiction,omitempty"`

	Name       string `gorm:"size:255;not null" json:"name"`
	Slug       string `gorm:"size:255;index" json:"slug"`
	LocalID    string `gorm:"size:100" json:"local_id"`
	RenderFull bool   `gorm:"default:false" json:"render_full"`
	IsSector   bool   `gorm:"default:false;index" json:"is_sector"`
	IsOverall  bool   `gorm:"default:false;index" json:"is_overall"`

	SectorID *string    `gorm:"type:uuid;index" json:"sector_id,omitempty"`
	Sector   *Authority `gorm:"foreignKey:SectorID" json:"sector,omitempty"`
}

// IsBody reports whether the authority is an ordinary reporting body
func (a *Authority) IsBody() bool {
	return !a.IsSector && !a.IsOverall
}

// BeforeCreate hook to generate UUID
func (a *Authority) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Authority) TableName() string {
	return "authorities"
}
