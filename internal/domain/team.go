package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamMember is a profile on the team section. Rows are maintained directly
// in the datastore (or with cmd/seed); the site only reads them.
type TeamMember struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id" yaml:"id,omitempty"`
	Name        string    `gorm:"not null" json:"name" yaml:"name"`
	Title       string    `gorm:"not null" json:"title" yaml:"title"`
	Description string    `gorm:"type:text" json:"description" yaml:"description"`
	ImageURL    string    `gorm:"column:image_url" json:"image_url" yaml:"image_url"`
	ImageAlt    string    `gorm:"column:image_alt" json:"image_alt" yaml:"image_alt"`
	Order       int       `gorm:"column:order" json:"order" yaml:"order"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at" yaml:"-"`
}

// TableName specifies the table name for TeamMember
func (TeamMember) TableName() string {
	return TableTeamMembers
}

// BeforeCreate hook
func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
